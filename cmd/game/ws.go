package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pefman/hubdice/internal/present"
	"github.com/pefman/hubdice/internal/stats"
	"github.com/pefman/hubdice/internal/tables"
	"github.com/sirupsen/logrus"
)

// Client frame types beyond the table commands.
const (
	msgSkip  = "skip" // drop pending animation and resync
	msgState = "state"
)

const subscriberBuffer = 256

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

var connSeq atomic.Uint64

type gameServer struct {
	tables *tables.Manager
	store  stats.Store
	log    logrus.FieldLogger
	step   time.Duration
}

type clientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// viewer is one websocket connection watching, and playing at, one table.
type viewer struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	log     logrus.FieldLogger
}

func (v *viewer) send(m models.WsMsg) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	if err := v.conn.WriteJSON(m); err != nil {
		v.log.WithError(err).Debug("ws: write error")
	}
}

func (g *gameServer) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", g.handleWS)
	r.HandleFunc("/tables", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, g.tables.List())
	}).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", g.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": buildVersion, "buildTime": buildTime})
	}).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (g *gameServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	board, err := g.store.Leaderboard(r.Context(), limit)
	if err != nil {
		g.log.WithError(err).Error("stats: leaderboard")
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, board)
}

// pace staggers event frames; state frames follow the event before them at once.
func (g *gameServer) pace(m models.WsMsg) time.Duration {
	if ev, ok := m.Data.(models.EventView); ok {
		return present.Pace(g.step, game.EventKind(ev.Kind))
	}
	return 0
}

// GET /ws?table=ID joins an existing table, or a new one when ID is blank or unknown.
func (g *gameServer) handleWS(w http.ResponseWriter, r *http.Request) {
	var t *tables.Table
	if id := r.URL.Query().Get("table"); id != "" {
		t, _ = g.tables.Get(id)
	}
	if t == nil {
		var err error
		t, err = g.tables.Create(r.URL.Query().Get("variant"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Warn("ws: upgrade failed")
		return
	}

	v := &viewer{id: "c_" + strconv.FormatUint(connSeq.Add(1), 10), conn: conn}
	v.log = g.log.WithFields(logrus.Fields{"conn": v.id, "table": t.ID})
	v.log.WithField("from", r.RemoteAddr).Info("ws: connect")

	updates, unsubscribe := t.Subscribe(subscriberBuffer)
	v.send(models.WsMsg{Type: "you", Data: map[string]string{"table": t.ID, "conn": v.id}})
	v.send(models.WsMsg{Type: msgState, Data: t.State()})

	sched := present.NewScheduler(g.pace, v.send)
	go func() {
		for m := range updates {
			sched.Push(m)
		}
	}()

	g.wsReader(r.Context(), v, t, sched)

	unsubscribe()
	sched.Close()
	_ = conn.Close()
	v.log.Info("ws: closed")
}

func (g *gameServer) wsReader(ctx context.Context, v *viewer, t *tables.Table, sched *present.Scheduler[models.WsMsg]) {
	for {
		var in clientIn
		if err := v.conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				v.log.WithError(err).Debug("ws: read error")
			}
			return
		}
		v.log.WithField("type", in.Type).Debug("ws: recv")

		switch in.Type {
		case msgSkip:
			sched.Cancel()
			v.send(models.WsMsg{Type: msgState, Data: t.State()})
			continue
		case msgState:
			v.send(models.WsMsg{Type: msgState, Data: t.State()})
			continue
		}

		var cmd models.Command
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, &cmd); err != nil {
				v.send(models.WsMsg{Type: "error", Data: models.ErrorResp{Error: "invalid data", Status: http.StatusBadRequest}})
				continue
			}
		}
		cmd.Type = in.Type
		if _, err := t.Do(ctx, cmd); err != nil {
			code := http.StatusConflict
			if errors.Is(err, tables.ErrBadCommand) {
				code = http.StatusBadRequest
			}
			v.send(models.WsMsg{Type: "error", Data: models.ErrorResp{Error: err.Error(), Status: code}})
		}
	}
}
