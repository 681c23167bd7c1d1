package game

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// endTurn runs once the acting seat's roll, including any wild dialogue, is fully resolved.
func (s *Session) endTurn() {
	acting := s.current
	if !s.rules.GracePeriod {
		// The acting seat is swept last so a table that empties keeps it as the survivor.
		for k := 1; k <= NumSeats; k++ {
			i := (acting + k) % NumSeats
			if s.seats[i].Active() && s.seats[i].Chips == 0 && s.activeCount() > 1 {
				s.eliminate(i)
			}
		}
	}
	if s.rules.TwoPlayerShortCircuit && s.activeCount() == 2 && s.seats[acting].Chips == 0 {
		if w := s.lastActive(acting); w >= 0 {
			s.status = fmt.Sprintf("%s has 0 chips with 2 players left - %s WINS!", s.seats[acting].Name, s.seats[w].Name)
			s.declareWinner(w)
			return
		}
	}
	if s.checkWinner() {
		return
	}
	s.advance()
	s.checkWinner()
}

// advance moves the turn pointer to the next seat able to play, probing at most
// maxProbes seats. Zero-chip seats met on the way are put in Danger or, if
// already there, eliminated. The last active seat is never eliminated; it
// stays and checkWinner hands it the pot.
func (s *Session) advance() {
	next := s.current
	for probe := 0; probe < maxProbes; probe++ {
		next = (next + 1) % NumSeats
		seat := s.seats[next]
		if !seat.Active() {
			continue
		}
		if seat.Chips == 0 {
			if seat.Danger {
				if s.activeCount() == 1 {
					break
				}
				s.eliminate(next)
			} else {
				s.status = fmt.Sprintf("%s has 0 chips - one grace turn given!", seat.Name)
				s.setDanger(next)
			}
			continue
		}
		break
	}
	s.current = next
	s.log.WithFields(logrus.Fields{"seat": next, "name": s.seats[next].Name}).Debug("turn: advanced")
}

func (s *Session) eliminate(seat int) {
	s.seats[seat].Eliminated = true
	s.seats[seat].Danger = false
	name := s.seats[seat].Name
	s.status = fmt.Sprintf("%s had no chips after grace turn - ELIMINATED!", name)
	s.log.WithFields(logrus.Fields{"seat": seat, "name": name}).Info("turn: eliminated")
	s.emit(Event{Kind: EventEliminated, Seat: seat, Target: seat, Name: name, Message: s.status})
}

// checkWinner ends the game when at most one seat is still in it.
func (s *Session) checkWinner() bool {
	switch s.activeCount() {
	case 1:
		w := s.lastActive(-1)
		s.status = fmt.Sprintf("%s is the LAST MAN STANDING!", s.seats[w].Name)
		s.declareWinner(w)
		return true
	case 0:
		if s.seatedCount() == 0 {
			return false
		}
		s.over = true
		s.winner = -1
		s.status = "no players left"
		s.log.Warn("turn: every seat eliminated")
		return true
	}
	return false
}

// declareWinner pays the whole pot to seat and closes the game.
func (s *Session) declareWinner(seat int) {
	won := s.pot
	s.credit(seat, won)
	s.pot = 0
	s.over = true
	s.winner = seat
	s.current = seat
	s.wild = nil
	name := s.seats[seat].Name
	s.log.WithFields(logrus.Fields{"seat": seat, "name": name, "pot": won}).Info("turn: winner")
	s.emit(Event{Kind: EventWin, Seat: seat, Target: PotSeat, Name: name, Amount: won, Message: s.status})
}
