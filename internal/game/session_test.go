package game

import (
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/pefman/hubdice/internal/engine"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	L = engine.Left
	R = engine.Right
	H = engine.Hub
	D = engine.Dot
	W = engine.Wild
)

func newTable(t *testing.T, rules Rules, faces ...engine.Face) *Session {
	t.Helper()
	s := NewSession(logrus.StandardLogger(), rules, engine.NewScriptedRoller(faces...))
	for _, name := range []string{"A", "B", "C", "D"} {
		_, err := s.Join(name)
		require.NoError(t, err)
	}
	return s
}

func rollN(t *testing.T, s *Session, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.Roll()
		require.NoError(t, err)
	}
}

func chips(s *Session) []int {
	out := make([]int, NumSeats)
	for i, seat := range s.Seats() {
		out[i] = seat.Chips
	}
	return out
}

func TestJoinFillsSeatsInOrder(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Classic(), nil)
	for i, name := range []string{"A", " B ", "C", "D"} {
		seat, err := s.Join(name)
		require.NoError(t, err)
		assert.Equal(t, i, seat)
	}
	assert.Equal(t, "B", s.Seat(1).Name)
	assert.Equal(t, 12, s.Issued())

	before := s.Seats()
	_, err := s.Join("E")
	assert.ErrorIs(t, err, ErrTableFull)
	assert.Equal(t, before, s.Seats())
	assert.Equal(t, ErrTableFull.Error(), s.Status())
}

func TestJoinRejectsBlankName(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Classic(), nil)
	_, err := s.Join("   ")
	assert.ErrorIs(t, err, ErrBlankName)
	assert.False(t, s.Seat(0).Occupied())
	assert.Equal(t, 0, s.Issued())
}

func TestJoinStartChipsPerVariant(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Dealer(), nil)
	_, err := s.Join("A")
	require.NoError(t, err)
	assert.Equal(t, 5, s.Seat(0).Chips)
}

func TestNeighbors(t *testing.T) {
	s := newTable(t, Classic())
	assert.Equal(t, 1, s.Left(0))
	assert.Equal(t, 3, s.Right(0))
	assert.Equal(t, 0, s.Left(3))

	s.seats[1].Eliminated = true
	assert.Equal(t, 2, s.Left(0))
	assert.Equal(t, 0, s.Right(2))

	s.seats[2].Eliminated = true
	s.seats[3].Eliminated = true
	assert.Equal(t, 0, s.Left(0), "no live neighbor passes to self")
	assert.Equal(t, 0, s.Right(0))
}

func TestNeighborsSkipEmptySeats(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Classic(), nil)
	_, _ = s.Join("A")
	_, _ = s.Join("B")
	assert.Equal(t, 1, s.Left(0))
	assert.Equal(t, 1, s.Right(0))
	assert.Equal(t, 0, s.Left(1))
}

func TestRollRequiresFullTableBeforeFirstRoll(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Classic(), engine.NewScriptedRoller())
	_, err := s.Roll()
	assert.ErrorIs(t, err, ErrNoPlayers)

	_, _ = s.Join("A")
	_, _ = s.Join("B")
	_, err = s.Roll()
	assert.ErrorIs(t, err, ErrTableNotFull)
	assert.Equal(t, "4 players are required to start the game", s.Status())
	assert.False(t, s.Started())

	relaxed := Classic()
	relaxed.RequireFullTable = false
	s = NewSession(logrus.StandardLogger(), relaxed, engine.NewScriptedRoller(D, D, D))
	_, _ = s.Join("A")
	_, _ = s.Join("B")
	_, err = s.Roll()
	assert.NoError(t, err)
}

func TestRollAllDotsPassesTurn(t *testing.T) {
	s := newTable(t, Classic(), D, D, D)
	res, err := s.Roll()
	require.NoError(t, err)
	assert.Equal(t, []engine.Face{D, D, D}, res.Faces)
	assert.Empty(t, res.Transfers)
	assert.Equal(t, []int{3, 3, 3, 3}, chips(s))
	assert.Equal(t, 0, s.Pot())
	assert.Equal(t, 1, s.Current())
	assert.Len(t, s.History(), 1)
}

func TestRollTransfers(t *testing.T) {
	s := newTable(t, Classic(), L, R, H)
	res, err := s.Roll()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 3, 4}, chips(s))
	assert.Equal(t, 1, s.Pot())
	assert.True(t, s.Seat(0).Danger)
	assert.Equal(t, []Transfer{
		{Face: L, From: 0, To: 1},
		{Face: R, From: 0, To: 3},
		{Face: H, From: 0, To: PotSeat},
	}, res.Transfers)
	assert.Equal(t, 1, s.Current())
	assert.Equal(t, s.Issued(), s.TotalChips())
}

func TestDiceCountFollowsChips(t *testing.T) {
	s := newTable(t, Classic(), L, L, D)
	rollN(t, s, 1)
	assert.Equal(t, 5, s.Seat(1).Chips)

	res, err := s.Roll()
	require.NoError(t, err)
	assert.Len(t, res.Faces, 3, "dice are capped at three")
}

func TestDangerSeatIsEliminatedOnNextAdvance(t *testing.T) {
	faces := []engine.Face{L, L, D}
	for i := 0; i < 3; i++ {
		faces = append(faces, D, D, D)
	}
	faces = append(faces, H)
	s := newTable(t, Classic(), faces...)

	rollN(t, s, 4)
	require.Equal(t, 0, s.Current())
	require.Equal(t, 1, s.Seat(0).Chips)

	res, err := s.Roll()
	require.NoError(t, err)
	assert.Len(t, res.Faces, 1)
	assert.Equal(t, 0, s.Seat(0).Chips)
	assert.Equal(t, 1, s.Pot())
	assert.True(t, s.Seat(0).Danger)
	assert.False(t, s.Seat(0).Eliminated)
	assert.Equal(t, 1, s.Current())

	rollN(t, s, 3)
	assert.True(t, s.Seat(0).Eliminated)
	assert.Equal(t, 1, s.Current(), "eliminated seat is skipped")
	assert.Equal(t, 1, s.Left(3))
	assert.Equal(t, 3, s.Right(1))
	assert.Equal(t, s.Issued(), s.TotalChips())
}

func TestDangerClearsWhenChipsArrive(t *testing.T) {
	s := newTable(t, Classic(), L, L, R, R, D, D, D, D, D, D, D, D)
	rollN(t, s, 1)
	require.True(t, s.Seat(0).Danger)

	rollN(t, s, 1)
	assert.Equal(t, 1, s.Seat(0).Chips)
	assert.False(t, s.Seat(0).Danger)

	rollN(t, s, 2)
	assert.Equal(t, 0, s.Current())
	assert.False(t, s.Seat(0).Eliminated)
}

func TestNoGracePeriodEliminatesAtOnce(t *testing.T) {
	rules := Classic()
	rules.GracePeriod = false
	s := newTable(t, rules, L, L, R)
	rollN(t, s, 1)
	assert.True(t, s.Seat(0).Eliminated, "eliminated at the end of the turn it hit zero")
	assert.Equal(t, 1, s.Current())
	assert.Equal(t, 3, s.Right(1))
}

func TestLastDangerSeatWinsPot(t *testing.T) {
	s := newTableWithDice(t, Classic(), engine.NewScriptedRoller(H, H, H))
	s.seats = [NumSeats]Seat{
		{Name: "A", Chips: 1},
		{Name: "B", Chips: 1},
		{Name: "C", Chips: 1},
		{Name: "D", Eliminated: true},
	}
	s.pot = 9
	s.issued = 12
	s.started = true

	rollN(t, s, 3)
	require.True(t, s.Over())
	w, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, 2, w)
	assert.Equal(t, 12, s.Seat(2).Chips)
	assert.Equal(t, 0, s.Pot())
	assert.True(t, s.Seat(0).Eliminated)
	assert.True(t, s.Seat(1).Eliminated)
	assert.False(t, s.Seat(2).Eliminated)
	assert.Contains(t, s.Status(), "LAST MAN STANDING")
}

func TestNoGraceSweepKeepsActingSeat(t *testing.T) {
	rules := Classic()
	rules.GracePeriod = false
	rules.TwoPlayerShortCircuit = false
	s := newTableWithDice(t, rules, engine.NewScriptedRoller(H))
	s.seats = [NumSeats]Seat{
		{Name: "A", Chips: 1},
		{Name: "B"},
		{Name: "C", Eliminated: true},
		{Name: "D", Eliminated: true},
	}
	s.pot = 11
	s.issued = 12
	s.started = true

	rollN(t, s, 1)
	require.True(t, s.Over())
	w, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, 0, w)
	assert.Equal(t, 12, s.Seat(0).Chips)
	assert.True(t, s.Seat(1).Eliminated)
	assert.Equal(t, 0, s.Pot())
}

func TestWildStealLastChipWinsPot(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Classic(), engine.NewScriptedRoller(W, D, D))
	s.seats = [NumSeats]Seat{
		{Name: "A", Chips: 3},
		{Name: "B", Chips: 1},
		{Name: "C", Eliminated: true},
		{Name: "D", Eliminated: true},
	}
	s.pot = 5
	s.issued = 9
	s.started = true

	res, err := s.Roll()
	require.NoError(t, err)
	assert.True(t, res.WildPending)
	assert.Equal(t, []int{1}, s.Wild().Targets)

	require.NoError(t, s.ChooseSteal(1, 1))
	w, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, 0, w)
	assert.Equal(t, 9, s.Seat(0).Chips)
	assert.Equal(t, 0, s.Pot())
	assert.True(t, s.Seat(1).Eliminated)
	assert.Equal(t, s.Issued(), s.TotalChips())

	_, err = s.Roll()
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestForcedSkipTwoPlayerShortCircuit(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Classic(), engine.NewScriptedRoller())
	s.seats = [NumSeats]Seat{
		{Name: "A", Chips: 0, Danger: true},
		{Name: "B", Chips: 3},
		{Name: "C", Eliminated: true},
		{Name: "D", Eliminated: true},
	}
	s.pot = 9
	s.issued = 12
	s.started = true

	res, err := s.Roll()
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.True(t, res.GameOver)
	assert.Equal(t, 1, res.Winner)
	assert.Equal(t, 12, s.Seat(1).Chips)
	assert.Contains(t, s.Status(), "B WINS")
}

func TestForcedSkipWithoutShortCircuit(t *testing.T) {
	rules := Classic()
	rules.TwoPlayerShortCircuit = false
	s := NewSession(logrus.StandardLogger(), rules, engine.NewScriptedRoller(D, D, D))
	s.seats = [NumSeats]Seat{
		{Name: "A", Chips: 0},
		{Name: "B", Chips: 3},
		{Name: "C", Eliminated: true},
		{Name: "D", Eliminated: true},
	}
	s.issued = 3
	s.started = true

	res, err := s.Roll()
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.True(t, s.Seat(0).Danger)
	assert.False(t, s.Over())
	assert.Equal(t, 1, s.Current())
	assert.Equal(t, TurnRecord{Seat: 0, Name: "A", Skipped: true}, s.History()[0])

	rollN(t, s, 1)
	w, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, 1, w)
	assert.True(t, s.Seat(0).Eliminated)
}

func TestRollRejectedOnInactiveSeat(t *testing.T) {
	s := newTable(t, Classic())
	s.started = true
	s.seats[0].Eliminated = true
	_, err := s.Roll()
	assert.ErrorIs(t, err, ErrSeatInactive)
}

func TestResetIsIdempotent(t *testing.T) {
	s := newTable(t, Classic(), L, R, H, W, D, D)
	rollN(t, s, 2)
	require.NoError(t, s.Finish())

	s.Reset()
	once := s.Seats()
	s.Reset()

	assert.Equal(t, once, s.Seats())
	assert.Equal(t, []int{3, 3, 3, 3}, chips(s))
	assert.Equal(t, 0, s.Pot())
	assert.Equal(t, 0, s.Current())
	assert.False(t, s.Started())
	assert.False(t, s.Over())
	assert.Empty(t, s.History())
	assert.Equal(t, WildNone, s.Wild().Phase)
	for _, seat := range s.Seats() {
		assert.False(t, seat.Danger)
		assert.False(t, seat.Eliminated)
	}
}

func TestResetAfterWin(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Classic(), engine.NewScriptedRoller())
	s.seats = [NumSeats]Seat{
		{Name: "A", Chips: 0, Danger: true},
		{Name: "B", Chips: 3},
		{Name: "C", Eliminated: true},
		{Name: "D", Eliminated: true},
	}
	s.issued = 12
	s.pot = 9
	s.started = true
	rollN(t, s, 1)
	require.True(t, s.Over())

	s.Reset()
	assert.False(t, s.Over())
	_, ok := s.Winner()
	assert.False(t, ok)
	assert.Equal(t, []int{3, 3, 3, 3}, chips(s))
}

func TestEventsAreEmitted(t *testing.T) {
	s := NewSession(logrus.StandardLogger(), Classic(), engine.NewScriptedRoller(L, R, H))
	var kinds []EventKind
	s.Subscribe(ListenerFunc(func(e Event) { kinds = append(kinds, e.Kind) }))
	s.Subscribe(ListenerFunc(func(e Event) { panic("listener failure") }))
	for _, name := range []string{"A", "B", "C", "D"} {
		_, err := s.Join(name)
		require.NoError(t, err)
	}
	rollN(t, s, 1)
	s.Reset()

	assert.Equal(t, []EventKind{
		EventJoin, EventJoin, EventJoin, EventJoin,
		EventRoll, EventTransfer, EventTransfer, EventTransfer, EventDanger,
		EventReset,
	}, kinds)
}

func TestRulesFor(t *testing.T) {
	r, err := RulesFor("")
	require.NoError(t, err)
	assert.Equal(t, Classic(), r)

	r, err = RulesFor(" Dealer ")
	require.NoError(t, err)
	assert.Equal(t, 5, r.StartChips)
	assert.Equal(t, 3, r.MaxStealPerWild)

	_, err = RulesFor("vegas")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

// TestRandomGamesConserveChips plays full games with real dice and a simple
// chooser, checking the ledger after every command.
func TestRandomGamesConserveChips(t *testing.T) {
	base := time.Now().UnixNano()
	for _, rules := range []Rules{Classic(), Dealer()} {
		for game := int64(0); game < 100; game++ {
			seed := base + game
			t.Run(fmt.Sprintf("%s/seed=%d", rules.Variant, seed), func(t *testing.T) {
				playRandomGame(t, rules, seed)
			})
		}
	}
}

func playRandomGame(t *testing.T, rules Rules, seed int64) {
	s := newTableWithDice(t, rules, engine.NewRandomRoller(rand.New(rand.NewSource(seed))))
	eliminatedChips := map[int]int{}
	check := func() {
		require.Equal(t, s.Issued(), s.TotalChips())
		require.GreaterOrEqual(t, s.Pot(), 0)
		for i, seat := range s.Seats() {
			require.GreaterOrEqual(t, seat.Chips, 0)
			if prev, ok := eliminatedChips[i]; ok {
				require.Equal(t, prev, seat.Chips, "eliminated seat %d changed chips", i)
			} else if seat.Eliminated {
				eliminatedChips[i] = seat.Chips
			}
		}
	}
	for step := 0; step < 2000 && !s.Over(); step++ {
		if s.Wild().Phase == WildNone {
			_, err := s.Roll()
			require.NoError(t, err)
		} else {
			require.NoError(t, chooseWild(s, step))
		}
		check()
	}
	require.True(t, s.Over(), "game did not finish")
	w, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, s.Issued(), s.Seat(w).Chips)
	assert.Equal(t, 0, s.Pot())
}

func newTableWithDice(t *testing.T, rules Rules, dice engine.Roller) *Session {
	t.Helper()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	s := NewSession(quiet, rules, dice)
	for _, name := range []string{"A", "B", "C", "D"} {
		_, err := s.Join(name)
		require.NoError(t, err)
	}
	return s
}

func chooseWild(s *Session, step int) error {
	w := s.Wild()
	switch w.Phase {
	case WildReward:
		if step%2 == 0 {
			return s.TakePot()
		}
		return s.StealThree()
	case WildStealing:
		if len(w.Targets) == 0 {
			return s.Finish()
		}
		return s.ChooseSteal(w.Targets[0], 1)
	default:
		if len(w.Targets) > 0 {
			return s.ChooseSteal(w.Targets[step%len(w.Targets)], 1)
		}
		if len(w.Cancellable) > 0 {
			return s.ChooseCancel(w.Cancellable[0])
		}
		return s.Finish()
	}
}
