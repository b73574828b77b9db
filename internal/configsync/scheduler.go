package configsync

import (
	"context"
	"sync"
	"time"
)

const delayedRunTimeout = 30 * time.Second

// Scheduler runs tasks after a fixed delay without holding the caller.
// A later task never cancels an earlier one; Stop drops whatever has not fired yet.
type Scheduler struct {
	delay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	next    uint64
	pending map[uint64]*time.Timer
	stopped bool
	running sync.WaitGroup
}

func NewScheduler(delay time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		delay:   delay,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]*time.Timer),
	}
}

// Schedule queues task to run after the delay. It returns false once stopped.
func (s *Scheduler) Schedule(task func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}

	id := s.next
	s.next++
	s.pending[id] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if _, ok := s.pending[id]; !ok {
			s.mu.Unlock()
			return
		}
		delete(s.pending, id)
		s.running.Add(1)
		s.mu.Unlock()

		defer s.running.Done()
		ctx, cancel := context.WithTimeout(s.ctx, delayedRunTimeout)
		defer cancel()
		task(ctx)
	})
	return true
}

// Pending reports how many tasks are waiting for their delay to elapse.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop discards pending tasks and waits for running ones to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, timer := range s.pending {
		timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.running.Wait()
	s.cancel()
}
