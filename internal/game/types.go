package game

import "github.com/pefman/hubdice/internal/engine"

// NumSeats is fixed; a table always has exactly four seats.
const NumSeats = 4

// PotSeat marks the pot as the receiving side of a transfer.
const PotSeat = -1

const (
	maxDice   = 3
	maxProbes = 10
	potSteals = 3
)

// Seat is one of the four fixed player slots, ordered clockwise.
type Seat struct {
	Name       string
	Chips      int
	Eliminated bool
	Danger     bool // hit zero chips; eliminated at the next advance unless it gains chips
}

func (s Seat) Occupied() bool { return s.Name != "" }

// Active reports an occupied seat that is still in the game.
func (s Seat) Active() bool { return s.Occupied() && !s.Eliminated }

// Transfer is one chip movement caused by a Left, Right or Hub face.
type Transfer struct {
	Face      engine.Face
	From      int
	To        int // seat index or PotSeat
	Cancelled bool
}

// TurnRecord is one line of table history.
type TurnRecord struct {
	Seat    int
	Name    string
	Faces   []engine.Face
	Skipped bool
}

// TurnResult describes what a single Roll did.
type TurnResult struct {
	Seat        int
	Name        string
	Faces       []engine.Face
	Skipped     bool
	Transfers   []Transfer
	Unpaid      []engine.Face // transfer faces ignored because the roller was out of chips
	Wilds       int
	WildPending bool
	GameOver    bool
	Winner      int // -1 unless GameOver
}

// WildPhase is the step of the wild sub-dialogue.
type WildPhase int

const (
	WildNone WildPhase = iota
	WildChoosing
	WildReward
	WildStealing
)

func (p WildPhase) String() string {
	switch p {
	case WildChoosing:
		return "choosing"
	case WildReward:
		return "reward"
	case WildStealing:
		return "stealing"
	}
	return "none"
}

// WildState is a read-only view of the open wild dialogue for presentation layers.
type WildState struct {
	Phase       WildPhase
	Roller      int
	Pending     int // wilds left while choosing, steals left while stealing
	MaxSteal    int
	Targets     []int
	Cancellable []engine.Face
}
