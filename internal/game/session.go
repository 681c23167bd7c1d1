package game

import (
	"fmt"
	"strings"

	"github.com/pefman/hubdice/internal/engine"
	"github.com/sirupsen/logrus"
)

// Session is one table's rule engine. It is not safe for concurrent use;
// callers serialize access (see internal/tables).
type Session struct {
	log   logrus.FieldLogger
	rules Rules
	dice  engine.Roller

	seats   [NumSeats]Seat
	pot     int
	current int
	issued  int
	started bool
	over    bool
	winner  int
	rolls   int

	wild      *wildDialogue
	history   []TurnRecord
	status    string
	listeners []Listener
}

// NewSession returns an empty table. A nil roller rolls real dice.
func NewSession(log logrus.FieldLogger, rules Rules, dice engine.Roller) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if dice == nil {
		dice = engine.NewRandomRoller(nil)
	}
	return &Session{
		log:    log,
		rules:  rules.normalized(),
		dice:   dice,
		winner: -1,
	}
}

// Join seats name in the first empty seat with the variant's starting chips.
func (s *Session) Join(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, s.reject(ErrBlankName)
	}
	seat := -1
	for i := range s.seats {
		if !s.seats[i].Occupied() {
			seat = i
			break
		}
	}
	if seat < 0 {
		return -1, s.reject(ErrTableFull)
	}
	s.seats[seat] = Seat{Name: name, Chips: s.rules.StartChips}
	s.issued += s.rules.StartChips
	s.status = fmt.Sprintf("%s joined seat %d", name, seat+1)
	s.log.WithFields(logrus.Fields{"seat": seat, "name": name}).Info("join: seated")
	s.emit(Event{Kind: EventJoin, Seat: seat, Target: seat, Name: name, Amount: s.rules.StartChips, Message: s.status})
	return seat, nil
}

// Left is the next live seat clockwise from seat, or seat itself when none.
func (s *Session) Left(seat int) int { return s.neighbor(seat, 1) }

// Right is the next live seat counter-clockwise from seat, or seat itself when none.
func (s *Session) Right(seat int) int { return s.neighbor(seat, NumSeats-1) }

func (s *Session) neighbor(seat, step int) int {
	idx := seat
	for i := 0; i < NumSeats; i++ {
		idx = (idx + step) % NumSeats
		if s.seats[idx].Active() {
			return idx
		}
	}
	return seat
}

// Roll plays the current seat's turn.
func (s *Session) Roll() (TurnResult, error) {
	if err := s.canRoll(); err != nil {
		return TurnResult{}, s.reject(err)
	}
	s.started = true
	s.rolls++
	seat := s.current
	name := s.seats[seat].Name
	res := TurnResult{Seat: seat, Name: name, Winner: -1}
	logger := s.log.WithFields(logrus.Fields{"seat": seat, "name": name})

	numDice := min(s.seats[seat].Chips, maxDice)
	if numDice == 0 {
		res.Skipped = true
		s.status = name + " has no chips, skips turn."
		s.history = append(s.history, TurnRecord{Seat: seat, Name: name, Skipped: true})
		logger.Info("roll: forced skip")
		s.emit(Event{Kind: EventSkip, Seat: seat, Target: seat, Name: name, Message: s.status})
		s.setDanger(seat)
		s.endTurn()
		return s.finishResult(res), nil
	}

	faces := s.dice.Roll(numDice)
	res.Faces = faces
	s.history = append(s.history, TurnRecord{Seat: seat, Name: name, Faces: faces})
	s.status = fmt.Sprintf("%s rolled: %s", name, joinFaces(faces))
	logger.WithField("faces", faces).Info("roll: resolved")
	s.emit(Event{Kind: EventRoll, Seat: seat, Target: seat, Name: name, Faces: faces, Message: s.status})

	for _, f := range faces {
		switch {
		case f == engine.Wild:
			res.Wilds++
		case f.Transfer():
			if s.seats[seat].Chips < 1 {
				res.Unpaid = append(res.Unpaid, f)
				continue
			}
			res.Transfers = append(res.Transfers, s.payOut(seat, f))
		}
	}
	if s.seats[seat].Chips == 0 {
		s.setDanger(seat)
	}

	if res.Wilds == 0 {
		s.endTurn()
		return s.finishResult(res), nil
	}
	s.openWild(seat, res.Wilds, res.Transfers, res.Wilds == maxDice)
	return s.finishResult(res), nil
}

func (s *Session) canRoll() error {
	switch {
	case s.over:
		return ErrGameOver
	case s.wild != nil:
		return ErrWildPending
	case s.seatedCount() == 0:
		return ErrNoPlayers
	case !s.started && s.rules.RequireFullTable && s.seatedCount() < NumSeats:
		return ErrTableNotFull
	case !s.seats[s.current].Active():
		return ErrSeatInactive
	}
	return nil
}

func (s *Session) finishResult(res TurnResult) TurnResult {
	res.WildPending = s.wild != nil
	res.GameOver = s.over
	res.Winner = s.winner
	return res
}

// payOut moves one chip from seat according to a Left, Right or Hub face.
func (s *Session) payOut(seat int, f engine.Face) Transfer {
	t := Transfer{Face: f, From: seat, To: PotSeat}
	switch f {
	case engine.Left:
		t.To = s.Left(seat)
	case engine.Right:
		t.To = s.Right(seat)
	}
	s.seats[seat].Chips--
	if t.To == PotSeat {
		s.pot++
	} else {
		s.credit(t.To, 1)
	}
	s.emit(Event{Kind: EventTransfer, Seat: seat, Target: t.To, Name: s.seats[seat].Name, Faces: []engine.Face{f}, Amount: 1})
	return t
}

// credit adds chips to a seat. Gaining chips lifts Danger.
func (s *Session) credit(seat, n int) {
	s.seats[seat].Chips += n
	if n > 0 {
		s.seats[seat].Danger = false
	}
}

func (s *Session) setDanger(seat int) {
	if s.seats[seat].Danger {
		return
	}
	s.seats[seat].Danger = true
	name := s.seats[seat].Name
	s.log.WithFields(logrus.Fields{"seat": seat, "name": name}).Info("turn: danger")
	s.emit(Event{Kind: EventDanger, Seat: seat, Target: seat, Name: name})
}

// Reset restores every occupied seat to its starting chips and clears the table.
func (s *Session) Reset() {
	for i := range s.seats {
		if !s.seats[i].Occupied() {
			continue
		}
		s.seats[i].Chips = s.rules.StartChips
		s.seats[i].Eliminated = false
		s.seats[i].Danger = false
	}
	s.pot = 0
	s.started = false
	s.over = false
	s.winner = -1
	s.rolls = 0
	s.wild = nil
	s.history = nil
	s.status = ""
	s.current = s.firstOccupied()
	s.log.Info("reset: table restored")
	s.emit(Event{Kind: EventReset, Seat: s.current, Target: s.current})
}

func (s *Session) reject(err error) error {
	s.status = err.Error()
	s.log.WithError(err).Debug("command: rejected")
	return err
}

func (s *Session) seatedCount() int {
	n := 0
	for _, seat := range s.seats {
		if seat.Occupied() {
			n++
		}
	}
	return n
}

func (s *Session) activeCount() int {
	n := 0
	for _, seat := range s.seats {
		if seat.Active() {
			n++
		}
	}
	return n
}

// lastActive is the highest active seat other than exclude, or -1.
func (s *Session) lastActive(exclude int) int {
	idx := -1
	for i, seat := range s.seats {
		if seat.Active() && i != exclude {
			idx = i
		}
	}
	return idx
}

func (s *Session) firstOccupied() int {
	for i, seat := range s.seats {
		if seat.Occupied() {
			return i
		}
	}
	return 0
}

func (s *Session) Rules() Rules { return s.rules }

// Seats returns a copy of the four seats.
func (s *Session) Seats() [NumSeats]Seat { return s.seats }

func (s *Session) Seat(i int) Seat { return s.seats[i] }

func (s *Session) Pot() int { return s.pot }

func (s *Session) Current() int { return s.current }

func (s *Session) Started() bool { return s.started }

func (s *Session) Over() bool { return s.over }

func (s *Session) Rolls() int { return s.rolls }

func (s *Session) Status() string { return s.status }

// Winner returns the winning seat once the game is over.
func (s *Session) Winner() (int, bool) {
	if !s.over || s.winner < 0 {
		return -1, false
	}
	return s.winner, true
}

// Issued is the total number of chips handed out at seating.
func (s *Session) Issued() int { return s.issued }

// TotalChips is every seat's chips plus the pot; it always equals Issued.
func (s *Session) TotalChips() int {
	total := s.pot
	for _, seat := range s.seats {
		total += seat.Chips
	}
	return total
}

func (s *Session) History() []TurnRecord {
	out := make([]TurnRecord, len(s.history))
	copy(out, s.history)
	return out
}

func joinFaces(faces []engine.Face) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}
