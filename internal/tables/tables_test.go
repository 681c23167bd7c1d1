package tables

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pefman/hubdice/internal/engine"
	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pefman/hubdice/internal/stats"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newManager(t *testing.T, store stats.Store, script string) *Manager {
	t.Helper()
	dice, err := ScriptedDice(script)
	require.NoError(t, err)
	return NewManager(quietLogger(), Options{Store: store, Dice: dice})
}

func seatFour(t *testing.T, tbl *Table) {
	t.Helper()
	for _, name := range []string{"Ana", "Ben", "Cy", "Di"} {
		_, err := tbl.Do(context.Background(), models.Command{Type: models.CmdJoin, Name: name})
		require.NoError(t, err)
	}
}

func TestManagerCreateGetDelete(t *testing.T) {
	m := newManager(t, nil, "")
	tbl, err := m.Create("")
	require.NoError(t, err)
	assert.Equal(t, game.VariantClassic, tbl.State().Variant)

	got, err := m.Get(tbl.ID)
	require.NoError(t, err)
	assert.Same(t, tbl, got)

	_, err = m.Create("mystery")
	assert.ErrorIs(t, err, game.ErrUnknownVariant)

	dealer, err := m.Create(game.VariantDealer)
	require.NoError(t, err)
	assert.Len(t, m.List(), 2)

	require.NoError(t, m.Delete(dealer.ID))
	assert.ErrorIs(t, m.Delete(dealer.ID), ErrNotFound)
	_, err = m.Get(dealer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagersDoNotShareTables(t *testing.T) {
	rest, ws := newManager(t, nil, ""), newManager(t, nil, "")
	tbl, err := rest.Create("")
	require.NoError(t, err)

	_, err = ws.Get(tbl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, ws.List())
	assert.Len(t, rest.List(), 1)
}

func TestTableDoDispatchesCommands(t *testing.T) {
	m := newManager(t, nil, "W,D,D")
	tbl, _ := m.Create("")
	seatFour(t, tbl)

	st, err := tbl.Do(context.Background(), models.Command{Type: models.CmdRoll})
	require.NoError(t, err)
	require.NotNil(t, st.Wild)
	assert.Equal(t, "choosing", st.Wild.Phase)
	assert.Equal(t, []int{1, 2, 3}, st.Wild.Targets)

	st, err = tbl.Do(context.Background(), models.Command{Type: models.CmdSteal, Seat: 2})
	require.NoError(t, err)
	assert.Nil(t, st.Wild)
	assert.Equal(t, 4, st.Seats[0].Chips)
	assert.Equal(t, 2, st.Seats[2].Chips)
	assert.Equal(t, 1, st.Current)
	assert.Len(t, st.History, 1)
}

func TestTableDoRejections(t *testing.T) {
	m := newManager(t, nil, "")
	tbl, _ := m.Create("")
	seatFour(t, tbl)
	before := tbl.State()

	st, err := tbl.Do(context.Background(), models.Command{Type: models.CmdFinish})
	assert.ErrorIs(t, err, game.ErrNoWildPending)
	assert.Equal(t, before.Seats, st.Seats)
	assert.NotEmpty(t, st.Status)

	_, err = tbl.Do(context.Background(), models.Command{Type: "dance"})
	assert.ErrorIs(t, err, ErrBadCommand)

	_, err = tbl.Do(context.Background(), models.Command{Type: models.CmdCancel, Face: "X"})
	assert.ErrorIs(t, err, ErrBadCommand)

	_, err = tbl.Do(context.Background(), models.Command{Type: models.CmdJoin, Name: "Eve"})
	assert.ErrorIs(t, err, game.ErrTableFull)
}

func TestTableRecordsResultOnce(t *testing.T) {
	store := stats.NewMemoryStore()
	m := newManager(t, store, "")
	tbl, _ := m.Create("")

	// Two-seat table: Ana's wilds strip Ben one chip at a time.
	rules := game.Classic()
	rules.RequireFullTable = false
	dice, err := engine.ParseScript("W,D,D, D,D, W,D,D, D, W,D,D")
	require.NoError(t, err)
	tbl.mu.Lock()
	s := game.NewSession(tbl.log, rules, engine.NewScriptedRoller(dice...))
	s.Subscribe(game.ListenerFunc(func(e game.Event) {
		if e.Kind == game.EventWin {
			tbl.wonPot = e.Amount
		}
	}))
	_, _ = s.Join("Ana")
	_, _ = s.Join("Ben")
	tbl.session = s
	tbl.mu.Unlock()

	ctx := context.Background()
	for i := 0; i < 20 && !tbl.State().Over; i++ {
		st := tbl.State()
		if st.Wild != nil {
			_, err := tbl.Do(ctx, models.Command{Type: models.CmdSteal, Seat: st.Wild.Targets[0]})
			require.NoError(t, err)
			continue
		}
		_, err := tbl.Do(ctx, models.Command{Type: models.CmdRoll})
		require.NoError(t, err)
	}
	require.True(t, tbl.State().Over)
	assert.Equal(t, 0, tbl.State().Winner)
	_, _ = tbl.Do(ctx, models.Command{Type: models.CmdRoll})

	ana, err := store.PlayerStats(ctx, "Ana")
	require.NoError(t, err)
	ben, _ := store.PlayerStats(ctx, "Ben")
	assert.Equal(t, 1, ana.Games, "a second command after the win records nothing")
	assert.Equal(t, 1, ana.Wins)
	assert.Equal(t, 6, ana.ChipsWon)
	assert.Equal(t, 1, ben.Games)

	_, err = tbl.Do(ctx, models.Command{Type: models.CmdReset})
	require.NoError(t, err)
	assert.False(t, tbl.recorded)
}

func TestSubscribeReceivesEventsThenState(t *testing.T) {
	m := newManager(t, nil, "L,D,D")
	tbl, _ := m.Create("")
	seatFour(t, tbl)
	ch, stop := tbl.Subscribe(16)

	_, err := tbl.Do(context.Background(), models.Command{Type: models.CmdRoll})
	require.NoError(t, err)

	var kinds []string
	for msg := range ch {
		if msg.Type == "state" {
			break
		}
		kinds = append(kinds, msg.Data.(models.EventView).Kind)
	}
	assert.Equal(t, []string{"roll", "transfer"}, kinds)

	stop()
	stop()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	m := newManager(t, nil, "")
	tbl, _ := m.Create("")
	_, stop := tbl.Subscribe(1)
	defer stop()

	done := make(chan struct{})
	go func() {
		seatFour(t, tbl)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("command blocked on a full subscriber")
	}
}

func TestReapRemovesIdleTables(t *testing.T) {
	m := newManager(t, nil, "")
	old, _ := m.Create("")
	fresh, _ := m.Create("")
	ch, _ := old.Subscribe(1)

	old.mu.Lock()
	old.updatedAt = time.Now().Add(-time.Hour)
	old.mu.Unlock()

	assert.Equal(t, 1, m.Reap(30*time.Minute))
	_, err := m.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
	_, ok := <-ch
	assert.False(t, ok, "subscribers of a reaped table are closed")
}

func TestScriptedDice(t *testing.T) {
	dice, err := ScriptedDice("")
	require.NoError(t, err)
	assert.Nil(t, dice)

	_, err = ScriptedDice("L,Q")
	assert.Error(t, err)

	dice, err = ScriptedDice("2xH")
	require.NoError(t, err)
	assert.Equal(t, []engine.Face{engine.Hub, engine.Hub}, dice().Roll(2))
	assert.Equal(t, []engine.Face{engine.Hub}, dice().Roll(1), "each table gets its own script")
}
