package recommend

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rotisk95/Thalionyx/internal/model"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func helpfulFragment(id, mood string, created time.Time) *model.Fragment {
	return &model.Fragment{
		FragmentID:   id,
		CreationTime: created,
		DurationMs:   30000,
		Payload:      []byte("clip"),
		Ratings: []model.FragmentRating{{
			RatingID:   id + "-r1",
			FragmentID: id,
			Helpful:    true,
			Resonance:  5,
			Timestamp:  created,
		}},
		Metadata: model.FragmentMetadata{Mood: mood, Energy: 5, Clarity: 5, Keywords: []string{}},
	}
}

func TestRecommend_MoodMatchScoring(t *testing.T) {
	e := New()
	frag := helpfulFragment("f1", "anxious", now)

	matches := e.Recommend(now, "anxious", []*model.Fragment{frag}, nil)

	require.Len(t, matches, 1)
	m := matches[0]
	require.Equal(t, model.MatchMood, m.Type)
	require.Equal(t, "f1", m.FragmentID)
	// Fresh fragment with a perfect helpful rating scores the full blend.
	require.InDelta(t, 1.0, m.Score, 1e-9)
	require.Contains(t, m.Reason, "anxious")
}

func TestRecommend_MoodMatchSkipsUnhelpful(t *testing.T) {
	e := New()
	frag := helpfulFragment("f1", "anxious", now)
	frag.Ratings[0].Helpful = false

	matches := e.Recommend(now, "anxious", []*model.Fragment{frag}, nil)
	require.Empty(t, matches)
}

func TestRecommend_RecencyDecay(t *testing.T) {
	e := New()
	fresh := helpfulFragment("fresh", "sad", now)
	stale := helpfulFragment("stale", "sad", now.Add(-60*24*time.Hour))

	matches := e.Recommend(now, "sad", []*model.Fragment{stale, fresh}, nil)

	require.Len(t, matches, 2)
	require.Equal(t, "fresh", matches[0].FragmentID)
	require.Equal(t, "stale", matches[1].FragmentID)
	// Past the horizon the recency component contributes nothing.
	require.InDelta(t, 0.8, matches[1].Score, 1e-9)
}

func TestRecommend_ContrastForKnownMood(t *testing.T) {
	e := New()
	frag := helpfulFragment("f1", "reflective", now)
	frag.Tags = []model.EmotionTag{{
		Emotion:    model.EmotionCalm,
		Intensity:  8,
		Confidence: 0.9,
		Timestamp:  now,
	}}

	matches := e.Recommend(now, "anxious", []*model.Fragment{frag}, nil)

	require.Len(t, matches, 1)
	require.Equal(t, model.MatchContrastLearning, matches[0].Type)
	require.InDelta(t, 0.7, matches[0].Score, 1e-9)
}

func TestRecommend_NoContrastForUnmappedMood(t *testing.T) {
	e := New()
	frag := helpfulFragment("f1", "reflective", now)
	frag.Tags = []model.EmotionTag{{
		Emotion:    model.EmotionCalm,
		Intensity:  8,
		Confidence: 0.9,
		Timestamp:  now,
	}}

	// "motivated" is a legitimate query mood but has no opposite set.
	matches := e.Recommend(now, "motivated", []*model.Fragment{frag}, nil)
	require.Empty(t, matches)
}

func TestRecommend_ContrastRequiresIntensityAndResonance(t *testing.T) {
	e := New()

	weak := helpfulFragment("weak", "reflective", now)
	weak.Tags = []model.EmotionTag{{Emotion: model.EmotionCalm, Intensity: 5, Confidence: 0.9, Timestamp: now}}

	flat := helpfulFragment("flat", "reflective", now)
	flat.Tags = []model.EmotionTag{{Emotion: model.EmotionCalm, Intensity: 8, Confidence: 0.9, Timestamp: now}}
	flat.Ratings[0].Resonance = 3

	matches := e.Recommend(now, "anxious", []*model.Fragment{weak, flat}, nil)
	require.Empty(t, matches)
}

func TestRecommend_PatternCompletion(t *testing.T) {
	e := New()
	frag := helpfulFragment("f1", "reflective", now)
	insight := &model.PatternInsight{
		InsightID:        "i1",
		Type:             model.InsightEmotionalCycle,
		Confidence:       0.7,
		RelatedFragments: []string{"f1", "missing"},
		CreationTime:     now,
	}

	matches := e.Recommend(now, "reflective", []*model.Fragment{frag}, []*model.PatternInsight{insight})

	var completion *model.RecommendationMatch
	for i := range matches {
		if matches[i].Type == model.MatchPatternCompletion {
			require.Nil(t, completion)
			completion = &matches[i]
		}
	}
	require.NotNil(t, completion)
	require.Equal(t, "f1", completion.FragmentID)
	require.InDelta(t, 0.7*0.8, completion.Score, 1e-9)
}

func TestRecommend_PatternCompletionIgnoresLowConfidence(t *testing.T) {
	e := New()
	frag := helpfulFragment("f1", "reflective", now)
	insight := &model.PatternInsight{
		InsightID:        "i1",
		Type:             model.InsightEmotionalCycle,
		Confidence:       0.5,
		RelatedFragments: []string{"f1"},
		CreationTime:     now,
	}

	matches := e.Recommend(now, "peaceful", []*model.Fragment{frag}, []*model.PatternInsight{insight})
	for _, m := range matches {
		require.NotEqual(t, model.MatchPatternCompletion, m.Type)
	}
}

func TestRecommend_GrowthOpportunityTopThree(t *testing.T) {
	e := New()
	var frags []*model.Fragment
	for i := 0; i < 5; i++ {
		f := helpfulFragment(fmt.Sprintf("f%d", i), "calm-mood", now)
		f.Metadata.Clarity = 8
		f.Metadata.Energy = 4 + i
		frags = append(frags, f)
	}

	matches := e.Recommend(now, "unmapped", frags, nil)

	require.Len(t, matches, 3)
	for _, m := range matches {
		require.Equal(t, model.MatchGrowthOpportunity, m.Type)
		require.InDelta(t, 0.6, m.Score, 1e-9)
	}
	// Highest clarity+energy first.
	require.Equal(t, "f4", matches[0].FragmentID)
}

func TestRecommend_CapAndOrdering(t *testing.T) {
	e := New()
	var frags []*model.Fragment
	for i := 0; i < 15; i++ {
		f := helpfulFragment(fmt.Sprintf("f%02d", i), "anxious", now.Add(-time.Duration(i)*24*time.Hour))
		frags = append(frags, f)
	}

	matches := e.Recommend(now, "anxious", frags, nil)

	require.Len(t, matches, 10)
	for i := 1; i < len(matches); i++ {
		require.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestRecommend_EmptyCollection(t *testing.T) {
	e := New()
	matches := e.Recommend(now, "anxious", nil, nil)
	require.Empty(t, matches)
	require.NotNil(t, matches)
}
