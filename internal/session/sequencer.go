// ABOUTME: Per-key FIFO job runner that serializes work for one user
// ABOUTME: Different keys run concurrently; one key never runs two jobs at once

package session

import (
	"fmt"
	"log/slog"
	"sync"
)

// Sequencer runs submitted jobs strictly in submission order per key.
// Each key with pending work gets one worker goroutine that exits when its
// queue drains, so idle users cost nothing.
type Sequencer struct {
	mu      sync.Mutex
	queues  map[string][]func()
	stopped bool
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewSequencer creates a Sequencer. A nil logger uses slog.Default().
func NewSequencer(logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		queues: make(map[string][]func()),
		logger: logger.With("component", "sequencer"),
	}
}

// Submit enqueues job behind any pending jobs for key and returns immediately.
// It returns false, dropping the job, once Stop has been called.
func (s *Sequencer) Submit(key string, job func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	q, running := s.queues[key]
	s.queues[key] = append(q, job)
	if !running {
		s.wg.Add(1)
		go s.drain(key)
	}
	return true
}

// Wait blocks until every submitted job has finished. Callers must not
// Submit concurrently with Wait; use Stop for shutdown.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}

// Stop refuses further submissions and blocks until queued jobs finish.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
}

// Pending returns the number of keys that currently have queued or running work.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

func (s *Sequencer) drain(key string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		q := s.queues[key]
		if len(q) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		job := q[0]
		q[0] = nil
		s.queues[key] = q[1:]
		s.mu.Unlock()

		s.run(key, job)
	}
}

// run executes one job; a panic is logged and the queue keeps going.
func (s *Sequencer) run(key string, job func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "key", key, "panic", fmt.Sprint(r))
		}
	}()
	job()
}
