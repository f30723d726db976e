package clock

import (
	"context"
	"sync"
	"time"
)

// CancelFunc retires a pending timer. It reports whether the timer was
// stopped before its function ran. Safe to call more than once.
type CancelFunc func() bool

// Scheduler owns one-shot deadline timers so callers can retire them
// explicitly when the work they guard is superseded. It carries no business
// logic.
type Scheduler struct {
	mu     sync.Mutex
	timers map[uint64]*time.Timer
	next   uint64
	closed bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[uint64]*time.Timer)}
}

// After runs fn once after d has elapsed.
func (s *Scheduler) After(d time.Duration, fn func()) CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() bool { return false }
	}
	id := s.next
	s.next++
	t := time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
	s.timers[id] = t
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		t, ok := s.timers[id]
		if !ok {
			return false
		}
		delete(s.timers, id)
		return t.Stop()
	}
}

// Stop cancels every pending timer. The scheduler accepts no new work
// afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of timers that have neither fired nor been
// canceled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Tick calls fn with the current wall-clock time every interval until ctx is
// done. Consumers are expected to re-derive their state from deadlines, so a
// delayed or missed tick is harmless.
func Tick(ctx context.Context, interval time.Duration, fn func(time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fn(now)
		}
	}
}
