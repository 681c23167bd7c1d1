package models

// ========================= Wire Models =========================
// JSON shapes shared by the REST API, the websocket server and the client.

// Command types accepted by a table.
const (
	CmdJoin       = "join"
	CmdRoll       = "roll"
	CmdReset      = "reset"
	CmdSteal      = "steal"
	CmdCancel     = "cancel"
	CmdFinish     = "finish"
	CmdTakePot    = "take_pot"
	CmdStealThree = "steal_three"
)

type Command struct {
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`   // join
	Seat   int    `json:"seat,omitempty"`   // steal target
	Amount int    `json:"amount,omitempty"` // steal amount, defaults to 1
	Face   string `json:"face,omitempty"`   // cancel
}

type SeatView struct {
	Index      int    `json:"index"`
	Name       string `json:"name,omitempty"`
	Occupied   bool   `json:"occupied"`
	Chips      int    `json:"chips"`
	Eliminated bool   `json:"eliminated,omitempty"`
	Danger     bool   `json:"danger,omitempty"`
	Left       int    `json:"left"`
	Right      int    `json:"right"`
}

// WildView is the open wild dialogue; Phase is choosing, reward or stealing.
type WildView struct {
	Phase       string   `json:"phase"`
	Roller      int      `json:"roller"`
	Pending     int      `json:"pending"`
	MaxSteal    int      `json:"max_steal"`
	Targets     []int    `json:"targets,omitempty"`
	Cancellable []string `json:"cancellable,omitempty"`
}

type TurnView struct {
	Seat    int      `json:"seat"`
	Name    string   `json:"name"`
	Faces   []string `json:"faces,omitempty"`
	Skipped bool     `json:"skipped,omitempty"`
}

type TableState struct {
	ID        string     `json:"id"`
	Variant   string     `json:"variant"`
	Seats     []SeatView `json:"seats"`
	Pot       int        `json:"pot"`
	Current   int        `json:"current"`
	Started   bool       `json:"started"`
	Over      bool       `json:"over"`
	Winner    int        `json:"winner"` // -1 until the game is won
	Status    string     `json:"status,omitempty"`
	Wild      *WildView  `json:"wild,omitempty"`
	History   []TurnView `json:"history,omitempty"`
	Issued    int        `json:"issued"`
	UpdatedAt int64      `json:"updated_at"`
}

type TableSummary struct {
	ID        string `json:"id"`
	Variant   string `json:"variant"`
	Players   int    `json:"players"`
	Started   bool   `json:"started"`
	Over      bool   `json:"over"`
	CreatedAt int64  `json:"created_at"`
}

type EventView struct {
	Kind    string   `json:"kind"`
	Seat    int      `json:"seat"`
	Target  int      `json:"target"`
	Name    string   `json:"name,omitempty"`
	Faces   []string `json:"faces,omitempty"`
	Amount  int      `json:"amount,omitempty"`
	Message string   `json:"message,omitempty"`
}

type CreateTableReq struct {
	Variant string `json:"variant,omitempty"`
}

// ErrorResp carries a rejection and, for domain rejections, the unchanged table.
type ErrorResp struct {
	Error  string      `json:"error"`
	Status int         `json:"status"`
	State  *TableState `json:"state,omitempty"`
}

// ========================= Results =========================

type GameResult struct {
	TableID string   `json:"table_id"`
	Variant string   `json:"variant"`
	Winner  string   `json:"winner"`
	Pot     int      `json:"pot"`
	Chips   int      `json:"chips"` // winner's final chips
	Players []string `json:"players"`
	Rolls   int      `json:"rolls"`
	EndedAt int64    `json:"ended_at"`
}

type PlayerStats struct {
	Name       string `json:"name"`
	Games      int    `json:"games"`
	Wins       int    `json:"wins"`
	ChipsWon   int    `json:"chips_won"`
	BestPot    int    `json:"best_pot"`
	LastPlayed int64  `json:"last_played"`
}

// WebSocket message structure
type WsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
