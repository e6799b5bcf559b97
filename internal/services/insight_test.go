package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rotisk95/Thalionyx/internal/model"
)

func TestMaybeAnalyze_BelowThreshold(t *testing.T) {
	st := newTestStore(t)
	frags := NewFragmentService(st, nil, zerolog.Nop())
	insights := NewInsightService(st, 3, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := frags.CreateFromCapture(ctx, []byte("clip"), 1000)
		require.NoError(t, err)
	}

	require.NoError(t, insights.MaybeAnalyze(ctx))
	require.Nil(t, insights.Latest(), "no run should happen below the threshold")

	history, err := insights.History(ctx)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestMaybeAnalyze_AtThreshold(t *testing.T) {
	st := newTestStore(t)
	frags := NewFragmentService(st, nil, zerolog.Nop())
	insights := NewInsightService(st, 3, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := frags.CreateFromCapture(ctx, []byte("clip"), 1000)
		require.NoError(t, err)
	}

	require.NoError(t, insights.MaybeAnalyze(ctx))
	require.NotNil(t, insights.Latest(), "a run replaces the nil latest set even when empty")
}

func TestMaybeAnalyze_PopulatesLatestOverExistingData(t *testing.T) {
	st := newTestStore(t)
	frags := NewFragmentService(st, nil, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := frags.CreateFromCapture(ctx, []byte("clip"), 1000)
		require.NoError(t, err)
	}

	// A fresh service over the same store, as after a process restart. The
	// startup MaybeAnalyze call must fill the in-memory latest set without
	// waiting for the next save event.
	insights := NewInsightService(st, 3, zerolog.Nop())
	require.Nil(t, insights.Latest())

	require.NoError(t, insights.MaybeAnalyze(ctx))
	require.NotNil(t, insights.Latest())
}

func TestAnalyze_PersistsEachRun(t *testing.T) {
	st := newTestStore(t)
	frags := NewFragmentService(st, nil, zerolog.Nop())
	insights := NewInsightService(st, 3, zerolog.Nop())
	ctx := context.Background()

	// A clear upward clarity trend across five fragments.
	for i, clarity := range []int{3, 4, 5, 7, 9} {
		frag, err := frags.CreateFromCapture(ctx, []byte("clip"), 1000)
		require.NoError(t, err)
		_, err = frags.UpdateMetadata(ctx, frag.FragmentID, model.FragmentMetadata{
			Mood: "reflective", Energy: 5, Clarity: clarity,
		})
		require.NoError(t, err)
		_ = i
	}

	run1, err := insights.Analyze(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, run1)
	require.Equal(t, run1, insights.Latest())

	run2, err := insights.Analyze(ctx)
	require.NoError(t, err)
	require.Equal(t, run2, insights.Latest(), "each run supersedes the last")

	history, err := insights.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, len(run1)+len(run2), "persisted runs accumulate")
}

func TestRecommendService_RequiresMood(t *testing.T) {
	st := newTestStore(t)
	insights := NewInsightService(st, 3, zerolog.Nop())
	rec := NewRecommendService(st, insights)

	_, err := rec.Recommend(context.Background(), "")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestRecommendService_LazyAnalysis(t *testing.T) {
	st := newTestStore(t)
	frags := NewFragmentService(st, nil, zerolog.Nop())
	insights := NewInsightService(st, 3, zerolog.Nop())
	rec := NewRecommendService(st, insights)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		frag, err := frags.CreateFromCapture(ctx, []byte("clip"), 1000)
		require.NoError(t, err)
		_, err = frags.AddRating(ctx, frag.FragmentID, true, 5, nil)
		require.NoError(t, err)
		_, err = frags.UpdateMetadata(ctx, frag.FragmentID, model.FragmentMetadata{
			Mood: "anxious", Energy: 5, Clarity: 5,
		})
		require.NoError(t, err)
	}

	require.Nil(t, insights.Latest())

	matches, err := rec.Recommend(ctx, "anxious")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	require.NotNil(t, insights.Latest(), "a recommendation query triggers the first analysis run")

	for i := 1; i < len(matches); i++ {
		require.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}
