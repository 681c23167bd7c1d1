package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/pefman/hubdice/internal/api"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pefman/hubdice/internal/present"
	"github.com/pefman/hubdice/internal/stats"
	"github.com/pefman/hubdice/internal/tables"
	"github.com/sirupsen/logrus"
)

// backend runs commands against a table, in process or over REST.
type backend interface {
	State(ctx context.Context) (models.TableState, error)
	Do(ctx context.Context, cmd models.Command) (models.TableState, error)
	// Fatal reports an error that ends the session rather than a refused command.
	Fatal(err error) bool
	// Settle blocks until pending narration has been shown.
	Settle()
	Close()
}

type localBackend struct {
	table   *tables.Table
	sched   *present.Scheduler[models.EventView]
	updates <-chan models.WsMsg
	stop    func()
}

func newLocalBackend(variant, script string, step time.Duration, narrate func(models.EventView)) (*localBackend, error) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	dice, err := tables.ScriptedDice(script)
	if err != nil {
		return nil, err
	}
	m := tables.NewManager(log, tables.Options{Store: stats.NewMemoryStore(), Dice: dice})
	t, err := m.Create(variant)
	if err != nil {
		return nil, err
	}
	pace := func(ev models.EventView) time.Duration { return present.Pace(step, eventKind(ev)) }
	updates, stop := t.Subscribe(256)
	return &localBackend{table: t, sched: present.NewScheduler(pace, narrate), updates: updates, stop: stop}, nil
}

func (b *localBackend) State(context.Context) (models.TableState, error) {
	return b.table.State(), nil
}

// Do runs cmd and queues its events for narration. The table publishes every
// message of a command before Do returns, so one drain picks all of them up.
func (b *localBackend) Do(ctx context.Context, cmd models.Command) (models.TableState, error) {
	st, err := b.table.Do(ctx, cmd)
	b.drain()
	return st, err
}

func (b *localBackend) drain() {
	for {
		select {
		case msg, ok := <-b.updates:
			if !ok {
				return
			}
			if ev, ok := msg.Data.(models.EventView); ok {
				b.sched.Push(ev)
			}
		default:
			return
		}
	}
}

func (b *localBackend) Fatal(error) bool { return false }

func (b *localBackend) Settle() {
	b.drain()
	for b.sched.Pending() > 0 {
		time.Sleep(5 * time.Millisecond)
	}
}

func (b *localBackend) Close() {
	b.stop()
	b.sched.Close()
}

type remoteBackend struct {
	client *api.Client
	id     string
}

func newRemoteBackend(ctx context.Context, baseURL, tableID, variant string) (*remoteBackend, error) {
	c := api.NewClient(baseURL)
	if tableID == "" {
		st, err := c.CreateTable(ctx, variant)
		if err != nil {
			return nil, err
		}
		tableID = st.ID
	}
	if _, err := c.State(ctx, tableID); err != nil {
		return nil, err
	}
	return &remoteBackend{client: c, id: tableID}, nil
}

func (b *remoteBackend) State(ctx context.Context) (models.TableState, error) {
	return b.client.State(ctx, b.id)
}

func (b *remoteBackend) Do(ctx context.Context, cmd models.Command) (models.TableState, error) {
	return b.client.Command(ctx, b.id, cmd)
}

// Fatal is true for transport failures and a vanished table.
func (b *remoteBackend) Fatal(err error) bool {
	var e *api.Error
	if !errors.As(err, &e) {
		return true
	}
	return e.Status != http.StatusConflict && e.Status != http.StatusBadRequest
}

func (b *remoteBackend) Settle() {}

func (b *remoteBackend) Close() {}
