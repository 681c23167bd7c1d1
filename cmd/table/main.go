// Command table plays Left-Hub-Right-Wild at one terminal, passing the
// keyboard around the table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pterm/pterm"
)

func main() {
	remote := flag.String("remote", "", "REST server base URL; empty plays locally")
	tableID := flag.String("table", "", "existing table id (remote only)")
	variant := flag.String("variant", game.VariantClassic, "classic or dealer")
	script := flag.String("dice", os.Getenv("DICE_SCRIPT"), "scripted dice, e.g. \"L,R,3xW\" (local only)")
	delay := flag.Duration("delay", 600*time.Millisecond, "narration pacing step")
	flag.Parse()

	pterm.DefaultHeader.WithFullWidth().Println("LEFT  HUB  RIGHT  WILD")

	ctx := context.Background()
	var (
		b   backend
		err error
	)
	if *remote != "" {
		spinner, _ := pterm.DefaultSpinner.Start("Connecting to " + *remote + " ...")
		b, err = newRemoteBackend(ctx, *remote, *tableID, *variant)
		if err != nil {
			spinner.Fail(err.Error())
			os.Exit(1)
		}
		spinner.Success("Connected")
	} else {
		b, err = newLocalBackend(*variant, *script, *delay, narrate)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
	}
	defer b.Close()

	if err := seatPlayers(ctx, b); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	if err := play(ctx, b); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func seatPlayers(ctx context.Context, b backend) error {
	st, err := b.State(ctx)
	if err != nil {
		return err
	}
	for i := range st.Seats {
		if st.Seats[i].Occupied {
			continue
		}
		name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText(fmt.Sprintf("Name for seat %d", i+1)).Show()
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		if _, err := b.Do(ctx, models.Command{Type: models.CmdJoin, Name: name}); err != nil {
			if b.Fatal(err) {
				return err
			}
			pterm.Warning.Println(err)
		}
		b.Settle()
	}
	return nil
}

func play(ctx context.Context, b backend) error {
	for {
		st, err := b.State(ctx)
		if err != nil {
			return err
		}
		pterm.Println()
		printTable(st)
		if st.Over {
			printWinner(st)
		}

		cs := choices(st)
		sel, _ := pterm.DefaultInteractiveSelect.WithDefaultText("What now?").WithOptions(labels(cs)).Show()
		c, ok := pick(cs, sel)
		if !ok || c.cmd.Type == "" {
			return nil
		}
		if _, err := b.Do(ctx, c.cmd); err != nil {
			if b.Fatal(err) {
				return err
			}
			pterm.Warning.Println(err)
		}
		b.Settle()
	}
}
