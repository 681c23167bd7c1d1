package main

import (
	"net/http"
	"strconv"
	"strings"
)

// GET /api/stats/player?name=...
func (s *server) playerStats(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}
	ps, err := s.store.PlayerStats(r.Context(), name)
	if err != nil {
		s.log.WithError(err).Error("stats: player")
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, ps)
}

// GET /api/stats/leaderboard?limit=10
func (s *server) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	board, err := s.store.Leaderboard(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("stats: leaderboard")
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, board)
}

// GET /api/stats/biggest-pot/today
// Answers an empty object when no game has ended today.
func (s *server) biggestPotToday(w http.ResponseWriter, r *http.Request) {
	best, ok, err := s.store.BiggestPotToday(r.Context())
	if err != nil {
		s.log.WithError(err).Error("stats: biggest pot")
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	if !ok {
		writeJSON(w, map[string]any{})
		return
	}
	writeJSON(w, best)
}
