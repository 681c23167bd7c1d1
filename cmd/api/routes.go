package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pefman/hubdice/internal/stats"
	"github.com/pefman/hubdice/internal/tables"
	"github.com/sirupsen/logrus"
)

type server struct {
	tables *tables.Manager
	store  stats.Store
	log    logrus.FieldLogger
}

func newRouter(m *tables.Manager, store stats.Store, log logrus.FieldLogger) *mux.Router {
	s := &server{tables: m, store: store, log: log}
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api.HandleFunc("/tables", s.createTable).Methods(http.MethodPost)
	api.HandleFunc("/tables", s.listTables).Methods(http.MethodGet)
	api.HandleFunc("/tables/{id}", s.getTable).Methods(http.MethodGet)
	api.HandleFunc("/tables/{id}", s.deleteTable).Methods(http.MethodDelete)
	api.HandleFunc("/tables/{id}/commands", s.command).Methods(http.MethodPost)

	api.HandleFunc("/stats/player", s.playerStats).Methods(http.MethodGet)
	api.HandleFunc("/stats/leaderboard", s.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/stats/biggest-pot/today", s.biggestPotToday).Methods(http.MethodGet)

	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": buildVersion, "buildTime": buildTime})
	}).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "unsupported path")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	// mux consults the matched subrouter's handlers, not the root's.
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = notAllowed
	}
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSONStatus(w, code, models.ErrorResp{Error: msg, Status: code})
}

// simple CORS for GET/POST/DELETE/OPTIONS
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) table(w http.ResponseWriter, r *http.Request) (*tables.Table, bool) {
	t, err := s.tables.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return t, true
}

// POST /api/tables  body: {"variant": "classic"} (optional)
func (s *server) createTable(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTableReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	t, err := s.tables.Create(req.Variant)
	if errors.Is(err, game.ErrUnknownVariant) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONStatus(w, http.StatusCreated, t.State())
}

func (s *server) listTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tables.List())
}

func (s *server) getTable(w http.ResponseWriter, r *http.Request) {
	if t, ok := s.table(w, r); ok {
		writeJSON(w, t.State())
	}
}

func (s *server) deleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.tables.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/tables/{id}/commands  body: models.Command
// A command the game refuses answers 409 with the unchanged state.
func (s *server) command(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	var cmd models.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	state, err := t.Do(r.Context(), cmd)
	switch {
	case errors.Is(err, tables.ErrBadCommand):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeJSONStatus(w, http.StatusConflict, models.ErrorResp{Error: err.Error(), Status: http.StatusConflict, State: &state})
	default:
		writeJSON(w, state)
	}
}
