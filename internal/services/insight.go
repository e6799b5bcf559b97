package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotisk95/Thalionyx/internal/events"
	"github.com/rotisk95/Thalionyx/internal/insight"
	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/store"
)

// DefaultAnalysisThreshold is the fragment count at which analysis starts
// running automatically after each save.
const DefaultAnalysisThreshold = 3

// InsightService runs the pattern engine over the stored collection,
// persists each run, and keeps the latest run as the caller-visible pattern
// list. Each run supersedes the last set; persisted history accumulates.
type InsightService struct {
	store     store.Store
	engine    *insight.Engine
	threshold int
	log       zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	latest []*model.PatternInsight
}

func NewInsightService(s store.Store, threshold int, log zerolog.Logger) *InsightService {
	if threshold <= 0 {
		threshold = DefaultAnalysisThreshold
	}
	return &InsightService{
		store:     s,
		engine:    insight.New(),
		threshold: threshold,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Analyze runs the engine over the full current collection, persists the
// run, and replaces the in-memory latest set.
func (s *InsightService) Analyze(ctx context.Context) ([]*model.PatternInsight, error) {
	frags, err := s.store.Fragments().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	insights := s.engine.Analyze(s.now(), frags)
	if err := s.store.Insights().SaveAll(ctx, insights); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.latest = insights
	s.mu.Unlock()
	s.log.Info().Int("fragments", len(frags)).Int("insights", len(insights)).Msg("analysis run complete")
	return insights, nil
}

// Latest returns the most recent run's insights, or nil before any run.
func (s *InsightService) Latest() []*model.PatternInsight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// History returns every persisted insight ordered by generation time.
func (s *InsightService) History(ctx context.Context) ([]*model.PatternInsight, error) {
	return s.store.Insights().List(ctx)
}

// MaybeAnalyze runs analysis when the stored fragment count has reached the
// threshold.
func (s *InsightService) MaybeAnalyze(ctx context.Context) error {
	n, err := s.store.Fragments().Count(ctx)
	if err != nil {
		return err
	}
	if n < s.threshold {
		return nil
	}
	_, err = s.Analyze(ctx)
	return err
}

// Watch consumes fragment lifecycle events and re-analyzes after each save
// once the threshold is met. Blocks until ctx is done; run in a goroutine.
func (s *InsightService) Watch(ctx context.Context, bus *events.Bus) {
	ch := bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind != events.EventFragmentSaved {
				continue
			}
			if err := s.MaybeAnalyze(ctx); err != nil {
				s.log.Error().Stack().Err(err).Str("fragment", ev.FragmentID).Msg("auto-analysis failed")
			}
		}
	}
}
