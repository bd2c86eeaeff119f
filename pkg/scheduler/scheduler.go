// Package scheduler runs cancellable callbacks at their deadlines, one at a time.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Action is the work done when an entry becomes due.
type Action func(ctx context.Context)

// Entry is a pending scheduled action.
type Entry struct {
	Deadline time.Time
	seq      uint64
	action   Action
}

// Scheduler keeps pending entries ordered by deadline and runs them on the
// caller's goroutine. Entries with equal deadlines run in insertion order.
type Scheduler struct {
	mu      sync.Mutex
	entries []*Entry
	seq     uint64
	now     func() time.Time
	wake    chan struct{}
}

// New creates an empty scheduler. A nil clock defaults to time.Now.
func New(now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		now:  now,
		wake: make(chan struct{}, 1),
	}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Enter schedules action to run after delay.
func (s *Scheduler) Enter(delay time.Duration, action Action) *Entry {
	return s.EnterAt(s.now().Add(delay), action)
}

// EnterAt schedules action to run at deadline.
func (s *Scheduler) EnterAt(deadline time.Time, action Action) *Entry {
	s.mu.Lock()
	s.seq++
	e := &Entry{Deadline: deadline, seq: s.seq, action: action}
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Deadline.After(deadline)
	})
	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
	s.mu.Unlock()

	s.notify()
	return e
}

// Cancel removes a pending entry. It reports whether the entry was pending.
func (s *Scheduler) Cancel(e *Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, pending := range s.entries {
		if pending == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.notify()
			return true
		}
	}
	return false
}

// CancelAll removes every pending entry and returns how many were removed.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = nil
	s.mu.Unlock()

	s.notify()
	return n
}

// Len returns the number of pending entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Empty reports whether no entries are pending.
func (s *Scheduler) Empty() bool {
	return s.Len() == 0
}

// Queue returns the pending deadlines in execution order.
func (s *Scheduler) Queue() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]time.Time, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Deadline
	}
	return out
}

// Run executes due entries until none are pending.
//
// In blocking mode Run sleeps until the next deadline and returns when the
// queue is empty or ctx is done. In non-blocking mode Run executes the entries
// that are already due and returns the delay until the next one (zero when the
// queue is empty).
func (s *Scheduler) Run(ctx context.Context, blocking bool) (time.Duration, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		s.mu.Lock()
		if len(s.entries) == 0 {
			s.mu.Unlock()
			return 0, nil
		}
		next := s.entries[0]
		now := s.now()
		if next.Deadline.After(now) {
			s.mu.Unlock()
			delay := next.Deadline.Sub(now)
			if !blocking {
				return delay, nil
			}
			if err := s.sleep(ctx, delay); err != nil {
				return 0, err
			}
			continue
		}
		s.entries = s.entries[1:]
		s.mu.Unlock()

		next.action(ctx)
	}
}

// sleep waits for delay, an update of the queue, or ctx cancellation.
func (s *Scheduler) sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	case <-s.wake:
	}
	return nil
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
