// Package scheduler runs deferred, individually cancellable tasks.
package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// Handle identifies a scheduled task.
type Handle interface {
	// Cancel prevents the task from running. It reports whether the task was
	// still pending.
	Cancel() bool
}

// Scheduler defers fn by delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
}

type task struct {
	due       time.Time
	seq       uint64
	fn        func()
	index     int
	cancelled bool
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// TimerScheduler runs tasks on a single worker goroutine in due order. Tasks
// with equal due times run in the order they were scheduled.
type TimerScheduler struct {
	mu     sync.Mutex
	queue  taskQueue
	seq    uint64
	wake   chan struct{}
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewTimerScheduler starts a scheduler backed by the wall clock.
func NewTimerScheduler() *TimerScheduler {
	s := &TimerScheduler{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

type timerHandle struct {
	s *TimerScheduler
	t *task
}

func (h *timerHandle) Cancel() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.t.cancelled || h.t.index < 0 {
		return false
	}
	h.t.cancelled = true
	heap.Remove(&h.s.queue, h.t.index)
	return true
}

// Schedule queues fn to run after delay. After Close the task never runs.
func (s *TimerScheduler) Schedule(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	t := &task{due: time.Now().Add(delay), seq: s.seq, fn: fn, index: -1}
	s.seq++
	if s.closed {
		t.cancelled = true
		s.mu.Unlock()
		return &timerHandle{s: s, t: t}
	}
	heap.Push(&s.queue, t)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return &timerHandle{s: s, t: t}
}

// Pending returns the number of queued tasks.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close drops pending tasks and stops the worker, waiting for a running task.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, t := range s.queue {
		t.cancelled = true
		t.index = -1
	}
	s.queue = nil
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
}

func (s *TimerScheduler) run() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		var wait time.Duration = -1
		var ready *task
		if len(s.queue) > 0 {
			next := s.queue[0]
			if d := time.Until(next.due); d > 0 {
				wait = d
			} else {
				ready = heap.Pop(&s.queue).(*task)
			}
		}
		s.mu.Unlock()

		if ready != nil {
			ready.fn()
			continue
		}

		if wait >= 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-s.wake:
			case <-s.done:
				timer.Stop()
				return
			}
			timer.Stop()
			continue
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}
