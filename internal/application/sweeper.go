package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/rs/zerolog"
)

type SweepReport struct {
	Retained domain.ObjectIDSet
	Evicted  []domain.ObjectID
	Stats    TrackerStats
}

// Sweeper combines the tracker's retained set with the heap's pinned objects
// and asks the heap to evict everything else.
type Sweeper struct {
	tracker  *ReferenceTracker
	heap     ports.HeapManager
	interval time.Duration
	logger   zerolog.Logger
	mu       sync.Mutex
}

func NewSweeper(tracker *ReferenceTracker, heap ports.HeapManager, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		tracker:  tracker,
		heap:     heap,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	retained, err := s.tracker.CollectRetainedReferences(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("collect retained references: %w", err)
	}

	pinned, err := s.heap.RetainedIDs(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list pinned objects: %w", err)
	}
	keep := make(domain.ObjectIDSet, len(retained)+len(pinned))
	for id := range retained {
		keep.Add(id)
	}
	for _, id := range pinned {
		keep.Add(id)
	}

	evicted, err := s.heap.EvictExcept(ctx, keep)
	if err != nil {
		return SweepReport{}, fmt.Errorf("evict unretained objects: %w", err)
	}

	report := SweepReport{Retained: retained, Evicted: evicted, Stats: s.tracker.Stats()}
	s.logger.Info().
		Int("retained", len(retained)).
		Int("pinned", len(pinned)).
		Int("evicted", len(evicted)).
		Int("sessions", report.Stats.Sessions).
		Int("quarantined", report.Stats.Quarantined).
		Msg("sweep finished")

	return report, nil
}

// Run sweeps every interval until ctx is done. Failed sweeps are logged and
// retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("sweep failed")
			}
		}
	}
}
