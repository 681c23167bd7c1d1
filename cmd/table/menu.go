package main

import (
	"fmt"

	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
)

// choice is one menu line and the command it sends. A zero cmd.Type quits.
type choice struct {
	label string
	cmd   models.Command
}

func eventKind(ev models.EventView) game.EventKind { return game.EventKind(ev.Kind) }

func seatName(st models.TableState, i int) string {
	if i < 0 || i >= len(st.Seats) {
		return "the pot"
	}
	return st.Seats[i].Name
}

// choices lists what the seat to act may do next.
func choices(st models.TableState) []choice {
	if st.Over {
		return []choice{
			{label: "Play again", cmd: models.Command{Type: models.CmdReset}},
			{label: "Quit"},
		}
	}
	if w := st.Wild; w != nil {
		var out []choice
		switch w.Phase {
		case "reward":
			out = append(out,
				choice{label: fmt.Sprintf("Take the hub pot (%d)", st.Pot), cmd: models.Command{Type: models.CmdTakePot}},
				choice{label: "Steal 3 chips", cmd: models.Command{Type: models.CmdStealThree}},
			)
			return out
		case "choosing", "stealing":
			for _, t := range w.Targets {
				most := min(w.MaxSteal, st.Seats[t].Chips)
				for n := 1; n <= most; n++ {
					out = append(out, choice{
						label: fmt.Sprintf("Steal %d from %s (%d chips)", n, seatName(st, t), st.Seats[t].Chips),
						cmd:   models.Command{Type: models.CmdSteal, Seat: t, Amount: n},
					})
				}
			}
			seen := map[string]bool{}
			for _, f := range w.Cancellable {
				if seen[f] {
					continue
				}
				seen[f] = true
				out = append(out, choice{label: "Cancel a " + f + " pass", cmd: models.Command{Type: models.CmdCancel, Face: f}})
			}
			out = append(out, choice{label: "Done with wilds", cmd: models.Command{Type: models.CmdFinish}})
		}
		return out
	}
	return []choice{
		{label: fmt.Sprintf("Roll for %s", seatName(st, st.Current)), cmd: models.Command{Type: models.CmdRoll}},
		{label: "Start over", cmd: models.Command{Type: models.CmdReset}},
		{label: "Quit"},
	}
}

func labels(cs []choice) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.label
	}
	return out
}

func pick(cs []choice, label string) (choice, bool) {
	for _, c := range cs {
		if c.label == label {
			return c, true
		}
	}
	return choice{}, false
}
