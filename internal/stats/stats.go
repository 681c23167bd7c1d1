// Package stats keeps the results ledger: finished games, per-player totals
// and the biggest pot won each UTC day.
package stats

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pefman/hubdice/internal/models"
)

// Store records finished games and answers leaderboard queries.
type Store interface {
	RecordResult(ctx context.Context, r models.GameResult) error
	PlayerStats(ctx context.Context, name string) (models.PlayerStats, error)
	Leaderboard(ctx context.Context, limit int) ([]models.PlayerStats, error)
	// BiggestPotToday reports false when no game has ended today (UTC).
	BiggestPotToday(ctx context.Context) (models.GameResult, bool, error)
	Close()
}

const DefaultLeaderboardLimit = 10

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// uniqueNames drops blanks and repeated names so a player sitting twice counts once.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	players  map[string]*models.PlayerStats
	dailyMax map[string]models.GameResult
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:  make(map[string]*models.PlayerStats),
		dailyMax: make(map[string]models.GameResult),
		now:      time.Now,
	}
}

func (m *MemoryStore) RecordResult(_ context.Context, r models.GameResult) error {
	if r.EndedAt == 0 {
		r.EndedAt = m.now().Unix()
	}
	r.Players = uniqueNames(r.Players)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range r.Players {
		ps := m.players[name]
		if ps == nil {
			ps = &models.PlayerStats{Name: name}
			m.players[name] = ps
		}
		ps.Games++
		if ps.LastPlayed < r.EndedAt {
			ps.LastPlayed = r.EndedAt
		}
		if name == r.Winner {
			ps.Wins++
			ps.ChipsWon += r.Chips
			if r.Pot > ps.BestPot {
				ps.BestPot = r.Pot
			}
		}
	}

	key := dateKey(time.Unix(r.EndedAt, 0))
	cur, ok := m.dailyMax[key]
	if !ok || r.Pot > cur.Pot || (r.Pot == cur.Pot && r.Chips > cur.Chips) {
		m.dailyMax[key] = r
	}
	return nil
}

// PlayerStats returns zero totals for a name that never played.
func (m *MemoryStore) PlayerStats(_ context.Context, name string) (models.PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ps, ok := m.players[name]; ok {
		return *ps, nil
	}
	return models.PlayerStats{Name: name}, nil
}

// Leaderboard orders by wins, then chips won, then name.
func (m *MemoryStore) Leaderboard(_ context.Context, limit int) ([]models.PlayerStats, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	m.mu.Lock()
	out := make([]models.PlayerStats, 0, len(m.players))
	for _, ps := range m.players {
		out = append(out, *ps)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].ChipsWon != out[j].ChipsWon {
			return out[i].ChipsWon > out[j].ChipsWon
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) BiggestPotToday(_ context.Context) (models.GameResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.dailyMax[dateKey(m.now())]
	return r, ok, nil
}

// ResetDaily clears the per-day records. Intended for tests and dev convenience.
func (m *MemoryStore) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.dailyMax {
		delete(m.dailyMax, k)
	}
}

func (m *MemoryStore) Close() {}
