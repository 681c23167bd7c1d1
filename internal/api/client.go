// Package api is a small client for the hubdice REST server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pefman/hubdice/internal/models"
)

var httpClient = &http.Client{Timeout: 8 * time.Second}

// Leaderboard answers are cached briefly to spare the ledger on lobby refreshes.
var (
	boardCache      []models.PlayerStats
	boardCacheLimit int
	boardCacheTime  time.Time
	boardCacheTTL   = 10 * time.Second
	boardCacheMutex sync.RWMutex
)

// Error is a non-2xx answer. State is set when the game refused a command.
type Error struct {
	Status  int
	Message string
	State   *models.TableState
}

func (e *Error) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// Rejected reports whether err is a command the game refused, as opposed to a transport or request failure.
func Rejected(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusConflict
}

type Config struct {
	BaseURL string
}

type Client struct {
	config Config
}

func NewClient(baseURL string) *Client {
	return &Client{config: Config{BaseURL: baseURL}}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	base := strings.TrimRight(c.config.BaseURL, "/")
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er models.ErrorResp
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return &Error{Status: resp.StatusCode, Message: er.Error, State: er.State}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) apiGet(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) CreateTable(ctx context.Context, variant string) (models.TableState, error) {
	var st models.TableState
	err := c.do(ctx, http.MethodPost, "/api/tables", models.CreateTableReq{Variant: variant}, &st)
	return st, err
}

func (c *Client) Tables(ctx context.Context) ([]models.TableSummary, error) {
	var out []models.TableSummary
	err := c.apiGet(ctx, "/api/tables", &out)
	return out, err
}

func (c *Client) State(ctx context.Context, id string) (models.TableState, error) {
	var st models.TableState
	err := c.apiGet(ctx, "/api/tables/"+url.PathEscape(id), &st)
	return st, err
}

func (c *Client) DeleteTable(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tables/"+url.PathEscape(id), nil, nil)
}

// Command sends cmd to table id. On a refusal it returns the unchanged state with an *Error.
func (c *Client) Command(ctx context.Context, id string, cmd models.Command) (models.TableState, error) {
	var st models.TableState
	err := c.do(ctx, http.MethodPost, "/api/tables/"+url.PathEscape(id)+"/commands", cmd, &st)
	var e *Error
	if errors.As(err, &e) && e.State != nil {
		st = *e.State
	}
	return st, err
}

func (c *Client) Join(ctx context.Context, id, name string) (models.TableState, error) {
	return c.Command(ctx, id, models.Command{Type: models.CmdJoin, Name: name})
}

func (c *Client) Roll(ctx context.Context, id string) (models.TableState, error) {
	return c.Command(ctx, id, models.Command{Type: models.CmdRoll})
}

func (c *Client) Steal(ctx context.Context, id string, seat, amount int) (models.TableState, error) {
	return c.Command(ctx, id, models.Command{Type: models.CmdSteal, Seat: seat, Amount: amount})
}

func (c *Client) Cancel(ctx context.Context, id, face string) (models.TableState, error) {
	return c.Command(ctx, id, models.Command{Type: models.CmdCancel, Face: face})
}

func (c *Client) Finish(ctx context.Context, id string) (models.TableState, error) {
	return c.Command(ctx, id, models.Command{Type: models.CmdFinish})
}

func (c *Client) TakePot(ctx context.Context, id string) (models.TableState, error) {
	return c.Command(ctx, id, models.Command{Type: models.CmdTakePot})
}

func (c *Client) StealThree(ctx context.Context, id string) (models.TableState, error) {
	return c.Command(ctx, id, models.Command{Type: models.CmdStealThree})
}

func (c *Client) Reset(ctx context.Context, id string) (models.TableState, error) {
	return c.Command(ctx, id, models.Command{Type: models.CmdReset})
}

func (c *Client) PlayerStats(ctx context.Context, name string) (models.PlayerStats, error) {
	var ps models.PlayerStats
	err := c.apiGet(ctx, "/api/stats/player?name="+url.QueryEscape(name), &ps)
	return ps, err
}

// Leaderboard returns the top players, served from a short-lived cache when possible.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]models.PlayerStats, error) {
	boardCacheMutex.RLock()
	if boardCache != nil && boardCacheLimit == limit && time.Since(boardCacheTime) < boardCacheTTL {
		out := append([]models.PlayerStats(nil), boardCache...)
		boardCacheMutex.RUnlock()
		return out, nil
	}
	boardCacheMutex.RUnlock()

	var out []models.PlayerStats
	if err := c.apiGet(ctx, "/api/stats/leaderboard?limit="+strconv.Itoa(limit), &out); err != nil {
		return nil, err
	}
	boardCacheMutex.Lock()
	boardCache = append([]models.PlayerStats(nil), out...)
	boardCacheLimit = limit
	boardCacheTime = time.Now()
	boardCacheMutex.Unlock()
	return out, nil
}

// BiggestPotToday reports false when no game has ended today.
func (c *Client) BiggestPotToday(ctx context.Context) (models.GameResult, bool, error) {
	var r models.GameResult
	if err := c.apiGet(ctx, "/api/stats/biggest-pot/today", &r); err != nil {
		return r, false, err
	}
	return r, r.Winner != "", nil
}
