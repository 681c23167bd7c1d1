package main

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pefman/hubdice/internal/models"
	"github.com/pefman/hubdice/internal/stats"
	"github.com/pefman/hubdice/internal/tables"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startServer(t *testing.T, script string) (*httptest.Server, *tables.Manager) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	dice, err := tables.ScriptedDice(script)
	require.NoError(t, err)
	store := stats.NewMemoryStore()
	m := tables.NewManager(log, tables.Options{Store: store, Dice: dice})
	gs := &gameServer{tables: m, store: store, log: log}
	srv := httptest.NewServer(gs.routes())
	t.Cleanup(srv.Close)
	return srv, m
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil reads frames until one of type typ arrives, returning it and the event kinds seen before it.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) (frame, []string) {
	t.Helper()
	var kinds []string
	for {
		f := read(t, conn)
		if f.Type == typ {
			return f, kinds
		}
		if f.Type == "event" {
			var ev models.EventView
			require.NoError(t, json.Unmarshal(f.Data, &ev))
			kinds = append(kinds, ev.Kind)
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(frame{Type: typ, Data: raw}))
}

func TestWSCreatesTableAndPlays(t *testing.T) {
	srv, m := startServer(t, "H,D,D")
	conn := dial(t, srv, "")

	you := read(t, conn)
	require.Equal(t, "you", you.Type)
	var ids map[string]string
	require.NoError(t, json.Unmarshal(you.Data, &ids))
	_, err := m.Get(ids["table"])
	require.NoError(t, err)
	assert.Equal(t, "state", read(t, conn).Type)

	for _, name := range []string{"Ana", "Ben", "Cy", "Di"} {
		send(t, conn, "join", models.Command{Name: name})
		readUntil(t, conn, "state")
	}
	send(t, conn, "roll", nil)
	f, kinds := readUntil(t, conn, "state")
	assert.Equal(t, []string{"roll", "transfer"}, kinds)

	var st models.TableState
	require.NoError(t, json.Unmarshal(f.Data, &st))
	assert.Equal(t, 1, st.Pot)
	assert.Equal(t, 2, st.Seats[0].Chips)
	assert.Equal(t, 1, st.Current)
}

func TestWSRejectionSendsError(t *testing.T) {
	srv, _ := startServer(t, "")
	conn := dial(t, srv, "")
	read(t, conn)
	read(t, conn)

	send(t, conn, "roll", nil)
	f, _ := readUntil(t, conn, "error")
	var e models.ErrorResp
	require.NoError(t, json.Unmarshal(f.Data, &e))
	assert.Equal(t, 409, e.Status)

	send(t, conn, "juggle", nil)
	f, _ = readUntil(t, conn, "error")
	require.NoError(t, json.Unmarshal(f.Data, &e))
	assert.Equal(t, 400, e.Status)
}

func TestWSViewersShareTable(t *testing.T) {
	srv, m := startServer(t, "")
	tbl, err := m.Create("")
	require.NoError(t, err)

	a := dial(t, srv, "?table="+tbl.ID)
	b := dial(t, srv, "?table="+tbl.ID)
	for _, c := range []*websocket.Conn{a, b} {
		read(t, c)
		read(t, c)
	}

	send(t, a, "join", models.Command{Name: "Ana"})
	f, kinds := readUntil(t, b, "state")
	assert.Equal(t, []string{"join"}, kinds)
	var st models.TableState
	require.NoError(t, json.Unmarshal(f.Data, &st))
	assert.Equal(t, "Ana", st.Seats[0].Name)
}

func TestWSStateRequestAndSkip(t *testing.T) {
	srv, _ := startServer(t, "")
	conn := dial(t, srv, "?table=unknown-id")
	read(t, conn)
	read(t, conn)

	send(t, conn, "state", nil)
	assert.Equal(t, "state", read(t, conn).Type)

	send(t, conn, "skip", nil)
	f, _ := readUntil(t, conn, "state")
	var st models.TableState
	require.NoError(t, json.Unmarshal(f.Data, &st))
	assert.NotEmpty(t, st.ID)
}
