// Package schedule owns the recurring timer behind periodic backups.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler fires a callback at a fixed interval. At most one timer is ever
// active per instance: Start while running is a no-op, Stop is idempotent,
// and stopping never interrupts a cycle already in progress.
type Scheduler struct {
	Interval time.Duration
	Run      func(ctx context.Context)
	Log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start registers the timer. Returns false if one is already active.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	s.Log.Info().Dur("interval", s.Interval).Msg("periodic backups scheduled")
	return true
}

// Stop cancels future runs and waits for an in-flight tick handler to
// return. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.Log.Info().Msg("periodic backups stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// Cancellation gates scheduling only; a cycle that has already
			// started runs to completion.
			s.Run(context.WithoutCancel(ctx))
		case <-ctx.Done():
			return
		}
	}
}
