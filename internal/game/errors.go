package game

import "errors"

// Rejections. A rejected command never changes session state.
var (
	ErrBlankName       = errors.New("name is blank")
	ErrTableFull       = errors.New("table is full")
	ErrNoPlayers       = errors.New("no players at the table")
	ErrTableNotFull    = errors.New("4 players are required to start the game")
	ErrSeatInactive    = errors.New("current seat cannot roll")
	ErrGameOver        = errors.New("game is over")
	ErrWildPending     = errors.New("wild choice pending")
	ErrNoWildPending   = errors.New("no wild choice pending")
	ErrWildPhase       = errors.New("not available in this wild phase")
	ErrInvalidTarget   = errors.New("invalid steal target")
	ErrInvalidAmount   = errors.New("invalid steal amount")
	ErrNothingToCancel = errors.New("nothing to cancel")
	ErrStealsRemaining = errors.New("steals remaining")
	ErrUnknownVariant  = errors.New("unknown variant")
)
