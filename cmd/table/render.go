package main

import (
	"fmt"
	"strings"

	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pterm/pterm"
)

func seatPanel(st models.TableState, s models.SeatView) pterm.Panel {
	box := pterm.DefaultBox.WithLeftPadding(2).WithRightPadding(2)
	title := pterm.LightCyan(fmt.Sprintf("|SEAT %d|", s.Index+1))
	if !s.Occupied {
		return pterm.Panel{Data: box.WithTitle(title).Sprint(pterm.Gray("empty"))}
	}
	state := pterm.LightGreen("in")
	switch {
	case s.Eliminated:
		state = pterm.LightRed("OUT")
	case s.Danger:
		state = pterm.LightYellow("DANGER")
	}
	name := s.Name
	if s.Index == st.Current && !st.Over {
		name = pterm.BgGreen.Sprint(" " + s.Name + " ")
	}
	body := pterm.Sprintfln("%s\nchips: %d\n%s", name, s.Chips, state)
	return pterm.Panel{Data: box.WithTitle(title).WithTitleTopCenter().Sprint(body)}
}

func printTable(st models.TableState) {
	var seats []pterm.Panel
	for _, s := range st.Seats {
		seats = append(seats, seatPanel(st, s))
	}
	pot := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTitle(pterm.LightYellow("|HUB|")).WithTitleTopCenter().
		Sprintf("pot: %d", st.Pot)
	_ = pterm.DefaultPanel.WithPanels([][]pterm.Panel{seats, {{Data: pot}}}).Render()

	if st.Status != "" {
		pterm.Info.Println(st.Status)
	}
	if w := st.Wild; w != nil {
		pterm.Warning.Printfln("%s has a wild choice (%s, %d left)", seatName(st, w.Roller), w.Phase, w.Pending)
	}
}

func printWinner(st models.TableState) {
	msg := "Nobody is left at the table."
	if st.Winner >= 0 {
		msg = fmt.Sprintf("%s wins with %d chips!", seatName(st, st.Winner), st.Seats[st.Winner].Chips)
	}
	pterm.DefaultBox.WithTitle(pterm.LightGreen("|WINNER|")).WithTitleTopCenter().
		WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1).Println(msg)
}

func narrate(ev models.EventView) {
	switch eventKind(ev) {
	case game.EventRoll:
		pterm.Println(pterm.LightCyan(ev.Name) + " rolls " + strings.Join(ev.Faces, " "))
	case game.EventTransfer:
		pterm.Println("  one chip moves from " + ev.Name)
	case game.EventDanger:
		pterm.Warning.Printfln("%s is out of chips", ev.Name)
	case game.EventEliminated:
		pterm.Error.Println(ev.Message)
	case game.EventWin:
		pterm.Success.Println(ev.Message)
	default:
		if ev.Message != "" {
			pterm.Println("  " + ev.Message)
		}
	}
}
