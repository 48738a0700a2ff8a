package store

import (
	"context"
	"time"

	"github.com/serroba/contact-relay/internal/ratelimit"
	"go.uber.org/zap"
)

// Sweepable is a store whose stale entries can be evicted in bulk.
type Sweepable interface {
	Sweep(now time.Time) int
	Len() int
}

// SweepObserver is notified after every sweep.
type SweepObserver interface {
	ObserveSweep(evicted, remaining int)
}

// Sweeper periodically evicts stale rate limit windows so memory stays bounded
// by the number of recently active clients.
type Sweeper struct {
	store    Sweepable
	clock    ratelimit.Clock
	interval time.Duration
	observer SweepObserver
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper creates a new background sweeper. A nil observer is allowed.
func NewSweeper(
	store Sweepable,
	clock ratelimit.Clock,
	interval time.Duration,
	observer SweepObserver,
	logger *zap.Logger,
) *Sweeper {
	if clock == nil {
		clock = ratelimit.SystemClock
	}

	return &Sweeper{
		store:    store,
		clock:    clock,
		interval: interval,
		observer: observer,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.interval <= 0 {
		close(s.done)
		s.logger.Warn("rate limit sweeper disabled", zap.Duration("interval", s.interval))

		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce performs a single sweep and returns the number of evicted keys.
func (s *Sweeper) RunOnce() int {
	evicted := s.store.Sweep(s.clock.Now())
	remaining := s.store.Len()

	if s.observer != nil {
		s.observer.ObserveSweep(evicted, remaining)
	}

	if evicted > 0 {
		s.logger.Debug("evicted stale rate limit windows",
			zap.Int("evicted", evicted),
			zap.Int("remaining", remaining),
		)
	}

	return evicted
}

// Shutdown stops the sweep loop and waits for it to exit.
func (s *Sweeper) Shutdown() error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done

	return nil
}
