// Package tables hosts the live game tables of one server process. The REST
// and websocket binaries each build their own Manager, so a table exists only
// in the process that created it and is reached through that process's
// endpoints. Each table serializes its own commands; the manager only guards
// the registry.
package tables

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pefman/hubdice/internal/engine"
	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pefman/hubdice/internal/stats"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("table not found")

type Options struct {
	// Variant is used when Create is called with an empty variant.
	Variant string
	// Store receives each finished game. Nil disables recording.
	Store stats.Store
	// Dice returns the roller for a new table. Nil rolls real dice.
	Dice func() engine.Roller
}

type Manager struct {
	mu     sync.RWMutex
	tables map[string]*Table
	log    logrus.FieldLogger
	opts   Options
}

func NewManager(log logrus.FieldLogger, opts Options) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Variant == "" {
		opts.Variant = game.VariantClassic
	}
	return &Manager{tables: make(map[string]*Table), log: log, opts: opts}
}

// ScriptedDice gives every table its own copy of faces. An empty script means real dice.
func ScriptedDice(script string) (func() engine.Roller, error) {
	if strings.TrimSpace(script) == "" {
		return nil, nil
	}
	faces, err := engine.ParseScript(script)
	if err != nil {
		return nil, fmt.Errorf("dice script: %w", err)
	}
	return func() engine.Roller {
		return engine.NewScriptedRoller(faces...)
	}, nil
}

func (m *Manager) Create(variant string) (*Table, error) {
	if variant == "" {
		variant = m.opts.Variant
	}
	rules, err := game.RulesFor(variant)
	if err != nil {
		return nil, err
	}
	var dice engine.Roller
	if m.opts.Dice != nil {
		dice = m.opts.Dice()
	}
	t := newTable(uuid.NewString(), m.log, m.opts.Store, rules, dice)

	m.mu.Lock()
	m.tables[t.ID] = t
	m.mu.Unlock()
	m.log.WithFields(logrus.Fields{"table": t.ID, "variant": rules.Variant}).Info("tables: created")
	return t, nil
}

func (m *Manager) Get(id string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// List returns summaries, oldest table first.
func (m *Manager) List() []models.TableSummary {
	m.mu.RLock()
	all := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		all = append(all, t)
	}
	m.mu.RUnlock()

	out := make([]models.TableSummary, 0, len(all))
	for _, t := range all {
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	t, ok := m.tables[id]
	delete(m.tables, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t.closeSubscribers()
	m.log.WithField("table", id).Info("tables: deleted")
	return nil
}

// Reap removes tables with no command for longer than ttl and returns how many went.
func (m *Manager) Reap(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	m.mu.Lock()
	var idle []*Table
	for id, t := range m.tables {
		if t.idleSince().Before(cutoff) {
			idle = append(idle, t)
			delete(m.tables, id)
		}
	}
	m.mu.Unlock()

	for _, t := range idle {
		t.closeSubscribers()
		m.log.WithField("table", t.ID).Info("tables: reaped idle table")
	}
	return len(idle)
}

// RunJanitor reaps idle tables every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Reap(ttl); n > 0 {
				m.log.WithField("count", n).Debug("tables: janitor pass")
			}
		}
	}
}
