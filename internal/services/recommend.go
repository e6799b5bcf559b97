package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/recommend"
	"github.com/rotisk95/Thalionyx/internal/store"
)

// RecommendService produces ranked matches for a stated current mood from
// the fragment collection and the latest pattern insights.
type RecommendService struct {
	store    store.Store
	insights *InsightService
	engine   *recommend.Engine
	now      func() time.Time
}

func NewRecommendService(s store.Store, insights *InsightService) *RecommendService {
	return &RecommendService{
		store:    s,
		insights: insights,
		engine:   recommend.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Recommend returns up to ten matches for the mood, best first.
func (s *RecommendService) Recommend(ctx context.Context, mood string) ([]model.RecommendationMatch, error) {
	if mood == "" {
		return nil, fmt.Errorf("%w: mood is required", model.ErrValidation)
	}
	frags, err := s.store.Fragments().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	latest := s.insights.Latest()
	if latest == nil {
		// No run yet in this process; analyze lazily when the collection is
		// big enough.
		if err := s.insights.MaybeAnalyze(ctx); err != nil {
			return nil, err
		}
		latest = s.insights.Latest()
	}

	return s.engine.Recommend(s.now(), mood, frags, latest), nil
}
