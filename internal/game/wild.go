package game

import (
	"fmt"

	"github.com/pefman/hubdice/internal/engine"
	"github.com/sirupsen/logrus"
)

// wildDialogue holds the choices owed to the roller after Wild faces.
//
//	choosing: one steal or cancel per pending Wild; Finish forfeits the rest
//	reward:   three Wilds; TakePot or StealThree
//	stealing: a pool of three chips to steal in any split; Finish only once spent
type wildDialogue struct {
	phase   WildPhase
	roller  int
	pending int
	paid    []Transfer
}

func (s *Session) openWild(roller, wilds int, paid []Transfer, triple bool) {
	w := &wildDialogue{phase: WildChoosing, roller: roller, pending: wilds}
	for _, t := range paid {
		if t.To != roller {
			w.paid = append(w.paid, t)
		}
	}
	if triple && s.rules.TripleWildReward {
		w.phase = WildReward
		w.pending = 0
	}
	s.wild = w
	name := s.seats[roller].Name
	if w.phase == WildReward {
		s.status = fmt.Sprintf("%s rolled TRIPLE WILDS! Take the hub pot (%d) or steal 3 chips.", name, s.pot)
	} else {
		s.status = fmt.Sprintf("%s has %d wild choice(s)", name, wilds)
	}
	s.log.WithFields(logrus.Fields{"seat": roller, "wilds": wilds, "phase": w.phase}).Info("wild: opened")
	s.emit(Event{Kind: EventWild, Seat: roller, Target: roller, Name: name, Amount: wilds, Message: s.status})
	s.settleWild()
}

// Wild returns the open dialogue, or a WildNone state.
func (s *Session) Wild() WildState {
	w := s.wild
	if w == nil {
		return WildState{Phase: WildNone, Roller: -1}
	}
	st := WildState{Phase: w.phase, Roller: w.roller, Pending: w.pending, MaxSteal: s.maxSteal()}
	if w.phase != WildReward {
		st.Targets = s.stealTargets()
	}
	if w.phase == WildChoosing {
		for _, t := range w.paid {
			if !t.Cancelled {
				st.Cancellable = append(st.Cancellable, t.Face)
			}
		}
	}
	return st
}

func (s *Session) maxSteal() int {
	if s.wild == nil {
		return 0
	}
	switch s.wild.phase {
	case WildChoosing:
		return s.rules.MaxStealPerWild
	case WildStealing:
		return min(potSteals, s.wild.pending)
	}
	return 0
}

// stealTargets lists live opponents of the roller holding at least one chip.
func (s *Session) stealTargets() []int {
	var out []int
	for i, seat := range s.seats {
		if i != s.wild.roller && seat.Active() && seat.Chips > 0 {
			out = append(out, i)
		}
	}
	return out
}

func (s *Session) cancelIndex(face engine.Face) int {
	for i, t := range s.wild.paid {
		if t.Face != face || t.Cancelled {
			continue
		}
		if t.To != PotSeat && s.seats[t.To].Chips < 1 {
			continue
		}
		if t.To == PotSeat && s.pot < 1 {
			continue
		}
		return i
	}
	return -1
}

func (s *Session) canCancelAny() bool {
	for _, f := range []engine.Face{engine.Left, engine.Right, engine.Hub} {
		if s.cancelIndex(f) >= 0 {
			return true
		}
	}
	return false
}

// ChooseSteal takes amount chips from opponent. While choosing, each call uses
// one Wild and amount may be up to Rules.MaxStealPerWild; while stealing, it
// draws amount from the pool of three. An amount below 1 means 1.
func (s *Session) ChooseSteal(opponent, amount int) error {
	w := s.wild
	if w == nil {
		return s.reject(ErrNoWildPending)
	}
	if w.phase != WildChoosing && w.phase != WildStealing {
		return s.reject(ErrWildPhase)
	}
	if opponent < 0 || opponent >= NumSeats || opponent == w.roller {
		return s.reject(ErrInvalidTarget)
	}
	target := s.seats[opponent]
	if !target.Active() || target.Chips < 1 {
		return s.reject(ErrInvalidTarget)
	}
	if amount < 1 {
		amount = 1
	}
	if amount > s.maxSteal() || amount > target.Chips {
		return s.reject(ErrInvalidAmount)
	}

	s.seats[opponent].Chips -= amount
	s.credit(w.roller, amount)
	if w.phase == WildStealing {
		w.pending -= amount
	} else {
		w.pending--
	}
	roller := s.seats[w.roller].Name
	s.status = fmt.Sprintf("%s stole %d from %s", roller, amount, target.Name)
	s.log.WithFields(logrus.Fields{"seat": w.roller, "from": opponent, "amount": amount}).Info("wild: steal")
	s.emit(Event{Kind: EventSteal, Seat: w.roller, Target: opponent, Name: roller, Amount: amount, Message: s.status})
	if s.seats[opponent].Chips == 0 {
		s.setDanger(opponent)
	}
	s.settleWild()
	return nil
}

// ChooseCancel spends one Wild to undo a Left, Right or Hub chip paid out earlier in the same roll.
func (s *Session) ChooseCancel(face engine.Face) error {
	w := s.wild
	if w == nil {
		return s.reject(ErrNoWildPending)
	}
	if w.phase != WildChoosing {
		return s.reject(ErrWildPhase)
	}
	idx := s.cancelIndex(face)
	if idx < 0 {
		return s.reject(ErrNothingToCancel)
	}
	t := &w.paid[idx]
	t.Cancelled = true
	if t.To == PotSeat {
		s.pot--
	} else {
		s.seats[t.To].Chips--
	}
	s.credit(w.roller, 1)
	w.pending--
	roller := s.seats[w.roller].Name
	s.status = fmt.Sprintf("%s cancelled %s", roller, face)
	s.log.WithFields(logrus.Fields{"seat": w.roller, "face": face}).Info("wild: cancel")
	s.emit(Event{Kind: EventCancel, Seat: w.roller, Target: t.To, Name: roller, Faces: []engine.Face{face}, Amount: 1, Message: s.status})
	if t.To != PotSeat && s.seats[t.To].Chips == 0 {
		s.setDanger(t.To)
	}
	s.settleWild()
	return nil
}

// TakePot ends a triple-Wild reward by moving the whole pot to the roller.
func (s *Session) TakePot() error {
	w := s.wild
	if w == nil {
		return s.reject(ErrNoWildPending)
	}
	if w.phase != WildReward {
		return s.reject(ErrWildPhase)
	}
	won := s.pot
	s.credit(w.roller, won)
	s.pot = 0
	name := s.seats[w.roller].Name
	s.status = fmt.Sprintf("%s takes the entire hub pot!", name)
	s.log.WithFields(logrus.Fields{"seat": w.roller, "amount": won}).Info("wild: take pot")
	s.emit(Event{Kind: EventPot, Seat: w.roller, Target: PotSeat, Name: name, Amount: won, Message: s.status})
	s.closeWild()
	return nil
}

// StealThree turns a triple-Wild reward into a pool of three steals.
func (s *Session) StealThree() error {
	w := s.wild
	if w == nil {
		return s.reject(ErrNoWildPending)
	}
	if w.phase != WildReward {
		return s.reject(ErrWildPhase)
	}
	w.phase = WildStealing
	w.pending = potSteals
	s.status = fmt.Sprintf("%s - %d steals left", s.seats[w.roller].Name, w.pending)
	s.settleWild()
	return nil
}

// Finish closes the dialogue. Remaining Wilds are forfeited while choosing;
// while stealing it is refused until the pool is spent or no one has chips.
func (s *Session) Finish() error {
	w := s.wild
	if w == nil {
		return s.reject(ErrNoWildPending)
	}
	switch w.phase {
	case WildReward:
		return s.reject(ErrWildPhase)
	case WildStealing:
		if w.pending > 0 && len(s.stealTargets()) > 0 {
			return s.reject(ErrStealsRemaining)
		}
	}
	s.log.WithFields(logrus.Fields{"seat": w.roller, "forfeit": w.pending}).Info("wild: finish")
	s.closeWild()
	return nil
}

// settleWild closes the dialogue once nothing is left to choose. Wilds that
// can no longer do anything are dropped.
func (s *Session) settleWild() {
	w := s.wild
	if w == nil {
		return
	}
	switch w.phase {
	case WildChoosing:
		if w.pending > 0 && (len(s.stealTargets()) > 0 || s.canCancelAny()) {
			return
		}
	case WildStealing:
		if w.pending > 0 && len(s.stealTargets()) > 0 {
			return
		}
	default:
		return
	}
	s.closeWild()
}

func (s *Session) closeWild() {
	s.wild = nil
	s.endTurn()
}
