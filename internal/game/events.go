package game

import (
	"github.com/pefman/hubdice/internal/engine"
	"github.com/sirupsen/logrus"
)

// EventKind names a state transition. Narration and audio layers key sounds on it.
type EventKind string

const (
	EventJoin       EventKind = "join"
	EventRoll       EventKind = "roll"
	EventSkip       EventKind = "skip"
	EventTransfer   EventKind = "transfer"
	EventWild       EventKind = "wild"
	EventSteal      EventKind = "steal"
	EventCancel     EventKind = "cancel"
	EventPot        EventKind = "pot"
	EventDanger     EventKind = "danger"
	EventEliminated EventKind = "eliminated"
	EventWin        EventKind = "win"
	EventReset      EventKind = "reset"
)

// Event is emitted after the state change it describes has been applied.
type Event struct {
	Kind    EventKind
	Seat    int
	Target  int
	Name    string
	Faces   []engine.Face
	Amount  int
	Message string
}

type Listener interface {
	OnEvent(Event)
}

type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }

// Subscribe registers l for every future event.
func (s *Session) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Session) emit(e Event) {
	for _, l := range s.listeners {
		s.deliver(l, e)
	}
}

// deliver isolates game logic from listener failures.
func (s *Session) deliver(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"event": e.Kind, "panic": r}).Warn("listener: recovered")
		}
	}()
	l.OnEvent(e)
}
