package tables

import (
	"time"

	"github.com/pefman/hubdice/internal/engine"
	"github.com/pefman/hubdice/internal/game"
	"github.com/pefman/hubdice/internal/models"
)

func faceNames(faces []engine.Face) []string {
	if len(faces) == 0 {
		return nil
	}
	out := make([]string, len(faces))
	for i, f := range faces {
		out[i] = string(f)
	}
	return out
}

// Snapshot renders a session as its wire state.
func Snapshot(id string, s *game.Session) models.TableState {
	st := models.TableState{
		ID:        id,
		Variant:   s.Rules().Variant,
		Pot:       s.Pot(),
		Current:   s.Current(),
		Started:   s.Started(),
		Over:      s.Over(),
		Winner:    -1,
		Status:    s.Status(),
		Issued:    s.Issued(),
		UpdatedAt: time.Now().Unix(),
	}
	if w, ok := s.Winner(); ok {
		st.Winner = w
	}
	for i, seat := range s.Seats() {
		st.Seats = append(st.Seats, models.SeatView{
			Index:      i,
			Name:       seat.Name,
			Occupied:   seat.Occupied(),
			Chips:      seat.Chips,
			Eliminated: seat.Eliminated,
			Danger:     seat.Danger,
			Left:       s.Left(i),
			Right:      s.Right(i),
		})
	}
	if w := s.Wild(); w.Phase != game.WildNone {
		st.Wild = &models.WildView{
			Phase:       w.Phase.String(),
			Roller:      w.Roller,
			Pending:     w.Pending,
			MaxSteal:    w.MaxSteal,
			Targets:     w.Targets,
			Cancellable: faceNames(w.Cancellable),
		}
	}
	for _, h := range s.History() {
		st.History = append(st.History, models.TurnView{Seat: h.Seat, Name: h.Name, Faces: faceNames(h.Faces), Skipped: h.Skipped})
	}
	return st
}

// EventView renders a game event for the wire.
func EventView(e game.Event) models.EventView {
	return models.EventView{
		Kind:    string(e.Kind),
		Seat:    e.Seat,
		Target:  e.Target,
		Name:    e.Name,
		Faces:   faceNames(e.Faces),
		Amount:  e.Amount,
		Message: e.Message,
	}
}
