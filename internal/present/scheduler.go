// Package present staggers game output for viewers. Game state is already
// committed when anything arrives here; delays only pace what a viewer sees.
package present

import (
	"sync"
	"time"

	"atomicgo.dev/schedule"
	"github.com/pefman/hubdice/internal/game"
)

// Pace is how long a viewer should see the previous item before an event of this kind.
func Pace(step time.Duration, kind game.EventKind) time.Duration {
	switch kind {
	case game.EventRoll, game.EventDanger, game.EventEliminated:
		return step
	case game.EventWin:
		return 2 * step
	case game.EventTransfer, game.EventSteal, game.EventCancel, game.EventPot:
		return step / 2
	}
	return 0
}

// EventPace adapts Pace for a Scheduler of raw game events.
func EventPace(step time.Duration) func(game.Event) time.Duration {
	return func(e game.Event) time.Duration { return Pace(step, e.Kind) }
}

type cue[T any] struct {
	id    uint64
	item  T
	ready bool
}

// Scheduler delivers items to a sink in push order, each one its pace after the previous.
type Scheduler[T any] struct {
	mu        sync.Mutex
	deliverMu sync.Mutex
	pace      func(T) time.Duration
	sink      func(T)
	next      time.Time
	queue     []*cue[T]
	inflight  int
	seq       uint64
	closed    bool
}

func NewScheduler[T any](pace func(T) time.Duration, sink func(T)) *Scheduler[T] {
	return &Scheduler[T]{pace: pace, sink: sink}
}

// Push schedules item. It is a no-op after Close.
func (s *Scheduler[T]) Push(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	now := time.Now()
	if s.next.Before(now) {
		s.next = now
	}
	s.next = s.next.Add(s.pace(item))
	s.seq++
	c := &cue[T]{id: s.seq, item: item}
	s.queue = append(s.queue, c)
	id := c.id
	schedule.After(time.Until(s.next), func() { s.fire(id) })
}

func (s *Scheduler[T]) fire(id uint64) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	for _, c := range s.queue {
		if c.id == id {
			c.ready = true
			break
		}
	}
	var due []T
	for len(s.queue) > 0 && s.queue[0].ready {
		due = append(due, s.queue[0].item)
		s.queue = s.queue[1:]
	}
	s.inflight += len(due)
	s.mu.Unlock()

	for _, item := range due {
		s.sink(item)
	}

	s.mu.Lock()
	s.inflight -= len(due)
	s.mu.Unlock()
}

// Pending is the number of items whose delivery has not returned yet.
func (s *Scheduler[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) + s.inflight
}

// Cancel drops every pending item. Tasks already scheduled for them fire into
// nothing; the scheduler stays usable.
func (s *Scheduler[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	s.next = time.Time{}
}

// Close cancels pending items and ignores later pushes.
func (s *Scheduler[T]) Close() {
	s.Cancel()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
