// Package recommend ranks stored fragments against a stated current mood.
// Four independent strategies propose candidates; the pooled list is sorted
// once by score and truncated. Matches are transient and never persisted.
package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/rotisk95/Thalionyx/internal/model"
)

// maxMatches bounds every recommendation response.
const maxMatches = 10

// recencyHorizon is the window over which the mood-match recency component
// decays linearly to zero.
const recencyHorizon = 30 * 24 * time.Hour

const (
	contrastScore    = 0.7
	growthScore      = 0.6
	growthCandidates = 3
)

// moodOpposites maps a mood to the emotions worth revisiting when in it.
// Moods absent from the table yield no contrast candidates.
var moodOpposites = map[string][]model.EmotionType{
	"anxious":     {model.EmotionCalm, model.EmotionPeaceful},
	"sad":         {model.EmotionHappy, model.EmotionHopeful},
	"angry":       {model.EmotionCalm, model.EmotionPeaceful},
	"confused":    {model.EmotionConfident, model.EmotionClear},
	"overwhelmed": {model.EmotionCalm, model.EmotionFocused},
	"frustrated":  {model.EmotionPatient, model.EmotionUnderstanding},
	"lonely":      {model.EmotionConnected, model.EmotionGrateful},
}

// Engine pools the four strategies. Pure: it never mutates its inputs.
type Engine struct{}

func New() *Engine { return &Engine{} }

// Recommend returns up to ten matches for the stated mood, sorted by score
// descending. The same fragment may appear more than once when several
// strategies propose it.
func (e *Engine) Recommend(now time.Time, mood string, frags []*model.Fragment, insights []*model.PatternInsight) []model.RecommendationMatch {
	matches := []model.RecommendationMatch{}
	matches = append(matches, e.moodMatches(now, mood, frags)...)
	matches = append(matches, e.patternCompletions(frags, insights)...)
	matches = append(matches, e.contrastMatches(mood, frags)...)
	matches = append(matches, e.growthOpportunities(frags)...)

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

// moodMatches proposes fragments recorded in the requested mood that the
// viewer found helpful. Score blends resonance, helpfulness and recency.
func (e *Engine) moodMatches(now time.Time, mood string, frags []*model.Fragment) []model.RecommendationMatch {
	var out []model.RecommendationMatch
	for _, f := range frags {
		if f.Metadata.Mood != mood || !hasHelpfulRating(f) {
			continue
		}
		score := 0.4*(meanResonance(f)/5) +
			0.4*helpfulFraction(f) +
			0.2*recency(now, f.CreationTime)
		out = append(out, model.RecommendationMatch{
			FragmentID: f.FragmentID,
			Score:      score,
			Reason:     fmt.Sprintf("You found this helpful when feeling %s before", mood),
			Type:       model.MatchMood,
		})
	}
	return out
}

// patternCompletions proposes helpful fragments tied to confident emotional
// cycles.
func (e *Engine) patternCompletions(frags []*model.Fragment, insights []*model.PatternInsight) []model.RecommendationMatch {
	byID := make(map[string]*model.Fragment, len(frags))
	for _, f := range frags {
		byID[f.FragmentID] = f
	}
	var out []model.RecommendationMatch
	for _, ins := range insights {
		if ins.Type != model.InsightEmotionalCycle || ins.Confidence <= 0.6 {
			continue
		}
		for _, id := range ins.RelatedFragments {
			f, ok := byID[id]
			if !ok || !hasHelpfulRating(f) {
				continue
			}
			out = append(out, model.RecommendationMatch{
				FragmentID: id,
				Score:      ins.Confidence * 0.8,
				Reason:     "Part of an emotional cycle you revisit often",
				Type:       model.MatchPatternCompletion,
			})
		}
	}
	return out
}

// contrastMatches proposes strongly felt opposite-emotion fragments the
// viewer rated as both helpful and resonant.
func (e *Engine) contrastMatches(mood string, frags []*model.Fragment) []model.RecommendationMatch {
	opposites, ok := moodOpposites[mood]
	if !ok {
		return nil
	}
	oppSet := make(map[model.EmotionType]bool, len(opposites))
	for _, em := range opposites {
		oppSet[em] = true
	}

	var out []model.RecommendationMatch
	for _, f := range frags {
		carries := false
		for _, t := range f.Tags {
			if oppSet[t.Emotion] && t.Intensity >= 6 {
				carries = true
				break
			}
		}
		if !carries {
			continue
		}
		resonant := false
		for _, r := range f.Ratings {
			if r.Helpful && r.Resonance >= 4 {
				resonant = true
				break
			}
		}
		if !resonant {
			continue
		}
		out = append(out, model.RecommendationMatch{
			FragmentID: f.FragmentID,
			Score:      contrastScore,
			Reason:     fmt.Sprintf("A contrasting state to %s that resonated with you", mood),
			Type:       model.MatchContrastLearning,
		})
	}
	return out
}

// growthOpportunities proposes the strongest high-clarity / high-energy
// helpful fragments.
func (e *Engine) growthOpportunities(frags []*model.Fragment) []model.RecommendationMatch {
	var candidates []*model.Fragment
	for _, f := range frags {
		if (f.Metadata.Clarity >= 8 || f.Metadata.Energy >= 8) && hasHelpfulRating(f) {
			candidates = append(candidates, f)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Metadata.Clarity+candidates[i].Metadata.Energy >
			candidates[j].Metadata.Clarity+candidates[j].Metadata.Energy
	})
	if len(candidates) > growthCandidates {
		candidates = candidates[:growthCandidates]
	}

	var out []model.RecommendationMatch
	for _, f := range candidates {
		out = append(out, model.RecommendationMatch{
			FragmentID: f.FragmentID,
			Score:      growthScore,
			Reason:     "Recorded at a moment of high clarity and energy",
			Type:       model.MatchGrowthOpportunity,
		})
	}
	return out
}

func hasHelpfulRating(f *model.Fragment) bool {
	for _, r := range f.Ratings {
		if r.Helpful {
			return true
		}
	}
	return false
}

func meanResonance(f *model.Fragment) float64 {
	if len(f.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range f.Ratings {
		sum += r.Resonance
	}
	return float64(sum) / float64(len(f.Ratings))
}

func helpfulFraction(f *model.Fragment) float64 {
	if len(f.Ratings) == 0 {
		return 0
	}
	helpful := 0
	for _, r := range f.Ratings {
		if r.Helpful {
			helpful++
		}
	}
	return float64(helpful) / float64(len(f.Ratings))
}

// recency decays linearly from 1 at creation to 0 at the horizon.
func recency(now, created time.Time) float64 {
	age := now.Sub(created)
	if age <= 0 {
		return 1
	}
	if age >= recencyHorizon {
		return 0
	}
	return 1 - float64(age)/float64(recencyHorizon)
}
