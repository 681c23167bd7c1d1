package tables

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pefman/hubdice/internal/engine"
	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pefman/hubdice/internal/stats"
	"github.com/sirupsen/logrus"
)

// ErrBadCommand marks a command that could not be understood, as opposed to
// one the game refused.
var ErrBadCommand = errors.New("bad command")

const recordTimeout = 5 * time.Second

// Table is one session plus the viewers watching it. All commands run under mu.
type Table struct {
	ID string

	mu        sync.Mutex
	session   *game.Session
	log       logrus.FieldLogger
	store     stats.Store
	createdAt time.Time
	updatedAt time.Time
	recorded  bool
	wonPot    int

	subsMu  sync.Mutex
	subs    map[uint64]chan models.WsMsg
	nextSub uint64
}

func newTable(id string, log logrus.FieldLogger, store stats.Store, rules game.Rules, dice engine.Roller) *Table {
	log = log.WithField("table", id)
	now := time.Now()
	t := &Table{
		ID:        id,
		log:       log,
		store:     store,
		createdAt: now,
		updatedAt: now,
		subs:      make(map[uint64]chan models.WsMsg),
	}
	t.session = game.NewSession(log, rules, dice)
	t.session.Subscribe(game.ListenerFunc(func(e game.Event) {
		if e.Kind == game.EventWin {
			t.wonPot = e.Amount
		}
		t.broadcast(models.WsMsg{Type: "event", Data: EventView(e)})
	}))
	return t
}

// Do applies cmd and returns the resulting state. On rejection the state is
// unchanged apart from its status line.
func (t *Table) Do(ctx context.Context, cmd models.Command) (models.TableState, error) {
	t.mu.Lock()
	err := t.apply(cmd)
	t.updatedAt = time.Now()
	state := Snapshot(t.ID, t.session)
	result, finished := t.pendingResult()
	t.broadcast(models.WsMsg{Type: "state", Data: state})
	t.mu.Unlock()

	if err != nil {
		t.log.WithFields(logrus.Fields{"cmd": cmd.Type, "error": err}).Debug("table: command rejected")
	}
	if finished {
		t.record(ctx, result)
	}
	return state, err
}

func (t *Table) apply(cmd models.Command) error {
	s := t.session
	switch cmd.Type {
	case models.CmdJoin:
		_, err := s.Join(cmd.Name)
		return err
	case models.CmdRoll:
		_, err := s.Roll()
		return err
	case models.CmdReset:
		s.Reset()
		t.recorded = false
		return nil
	case models.CmdSteal:
		return s.ChooseSteal(cmd.Seat, cmd.Amount)
	case models.CmdCancel:
		face, err := engine.ParseFace(cmd.Face)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadCommand, err)
		}
		return s.ChooseCancel(face)
	case models.CmdFinish:
		return s.Finish()
	case models.CmdTakePot:
		return s.TakePot()
	case models.CmdStealThree:
		return s.StealThree()
	}
	return fmt.Errorf("%w: unknown type %q", ErrBadCommand, cmd.Type)
}

// pendingResult reports a won game that has not been written to the ledger yet.
func (t *Table) pendingResult() (models.GameResult, bool) {
	s := t.session
	w, ok := s.Winner()
	if !ok || t.recorded {
		return models.GameResult{}, false
	}
	t.recorded = true
	r := models.GameResult{
		TableID: t.ID,
		Variant: s.Rules().Variant,
		Winner:  s.Seat(w).Name,
		Chips:   s.Seat(w).Chips,
		Rolls:   s.Rolls(),
		EndedAt: time.Now().Unix(),
	}
	for _, seat := range s.Seats() {
		if seat.Occupied() {
			r.Players = append(r.Players, seat.Name)
		}
	}
	r.Pot = t.wonPot
	return r, true
}

func (t *Table) record(ctx context.Context, r models.GameResult) {
	if t.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := t.store.RecordResult(ctx, r); err != nil {
		t.log.WithError(err).Error("table: record result failed")
		return
	}
	t.log.WithFields(logrus.Fields{"winner": r.Winner, "pot": r.Pot}).Info("table: result recorded")
}

// State returns the current state without changing anything.
func (t *Table) State() models.TableState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot(t.ID, t.session)
}

func (t *Table) Summary() models.TableSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	players := 0
	for _, seat := range t.session.Seats() {
		if seat.Occupied() {
			players++
		}
	}
	return models.TableSummary{
		ID:        t.ID,
		Variant:   t.session.Rules().Variant,
		Players:   players,
		Started:   t.session.Started(),
		Over:      t.session.Over(),
		CreatedAt: t.createdAt.Unix(),
	}
}

func (t *Table) idleSince() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updatedAt
}

// Subscribe returns a channel of event and state messages in the order they
// happen, and a func that stops delivery and closes the channel. A viewer that
// falls more than buf messages behind misses messages.
func (t *Table) Subscribe(buf int) (<-chan models.WsMsg, func()) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	t.nextSub++
	id := t.nextSub
	ch := make(chan models.WsMsg, buf)
	t.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.subsMu.Lock()
			defer t.subsMu.Unlock()
			if c, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(c)
			}
		})
	}
}

func (t *Table) broadcast(msg models.WsMsg) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for id, ch := range t.subs {
		select {
		case ch <- msg:
		default:
			t.log.WithFields(logrus.Fields{"subscriber": id, "type": msg.Type}).Warn("table: subscriber behind, dropping message")
		}
	}
}

// closeSubscribers ends every subscription; used when the table is removed.
func (t *Table) closeSubscribers() {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}
