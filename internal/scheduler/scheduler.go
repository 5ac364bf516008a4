// Package scheduler provides a cancellable repeating task.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs a function at a fixed interval until stopped.
type Scheduler struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	done    chan struct{}
	stopped sync.WaitGroup
}

// New creates a scheduler that will invoke fn every interval once started.
func New(interval time.Duration, fn func()) *Scheduler {
	return &Scheduler{
		interval: interval,
		fn:       fn,
	}
}

// Start begins periodic execution. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	s.stopped.Add(1)

	go func(done chan struct{}) {
		defer s.stopped.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.fn()
			}
		}
	}(s.done)
}

// Stop halts periodic execution and waits for the worker to exit.
// Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.done == nil {
		s.mu.Unlock()
		return
	}
	close(s.done)
	s.done = nil
	s.mu.Unlock()
	s.stopped.Wait()
}
