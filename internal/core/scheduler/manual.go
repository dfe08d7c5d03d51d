package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// ManualScheduler runs tasks against a virtual clock moved by Advance.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	queue taskQueue
	seq   uint64
}

// NewManualScheduler creates a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualHandle struct {
	s *ManualScheduler
	t *task
}

func (h *manualHandle) Cancel() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.t.cancelled || h.t.index < 0 {
		return false
	}
	h.t.cancelled = true
	heap.Remove(&h.s.queue, h.t.index)
	return true
}

// Schedule queues fn to run once the virtual clock passes now+delay.
func (s *ManualScheduler) Schedule(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &task{due: time.Unix(0, 0).Add(s.now + delay), seq: s.seq, fn: fn, index: -1}
	s.seq++
	heap.Push(&s.queue, t)
	return &manualHandle{s: s, t: t}
}

// Advance moves the clock forward by d and runs every task that falls due, in
// order, on the calling goroutine. Tasks scheduled by running tasks are
// picked up when they fall inside the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].due.Sub(time.Unix(0, 0)) > target {
			s.now = target
			s.mu.Unlock()
			return
		}
		t := heap.Pop(&s.queue).(*task)
		s.now = t.due.Sub(time.Unix(0, 0))
		s.mu.Unlock()

		t.fn()
	}
}

// Now returns the virtual time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of queued tasks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
