// Package insight derives pattern insights from a fragment collection.
// Analysis is a pure function of its input: given identical fragments it
// produces the same insights, and it never mutates what it reads.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rotisk95/Thalionyx/internal/model"
)

// cycleWindow is the fixed length of the emotion substrings compared by
// cycle detection.
const cycleWindow = 3

// minGrowthFragments is the minimum collection size before trend analysis
// runs at all.
const minGrowthFragments = 5

// Engine runs the four sub-analyses and concatenates their results.
type Engine struct{}

func New() *Engine { return &Engine{} }

// Analyze produces the full insight set for one run. now becomes each
// insight's generation timestamp; it is the engine's only external input.
func (e *Engine) Analyze(now time.Time, frags []*model.Fragment) []*model.PatternInsight {
	sorted := sortByCreation(frags)

	out := []*model.PatternInsight{}
	out = append(out, e.detectEmotionalCycles(now, sorted)...)
	out = append(out, e.detectTriggerPatterns(now, sorted)...)
	out = append(out, e.detectGrowthTrends(now, sorted)...)
	out = append(out, e.detectResonanceClusters(now, sorted)...)
	return out
}

func sortByCreation(frags []*model.Fragment) []*model.Fragment {
	sorted := append([]*model.Fragment(nil), frags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreationTime.Before(sorted[j].CreationTime)
	})
	return sorted
}

// dominantSequence is the time-ordered sequence of dominant emotions across
// tagged fragments. Untagged fragments contribute nothing here but still
// count toward confidence denominators.
type dominantEntry struct {
	fragmentID string
	emotion    model.EmotionType
}

func dominantSequence(sorted []*model.Fragment) []dominantEntry {
	var seq []dominantEntry
	for _, f := range sorted {
		if tag, ok := f.DominantTag(); ok {
			seq = append(seq, dominantEntry{fragmentID: f.FragmentID, emotion: tag.Emotion})
		}
	}
	return seq
}

// detectEmotionalCycles counts every contiguous emotion triple in the
// dominant sequence; triples seen at least twice become insights.
func (e *Engine) detectEmotionalCycles(now time.Time, sorted []*model.Fragment) []*model.PatternInsight {
	seq := dominantSequence(sorted)
	total := len(sorted)

	type triple [cycleWindow]model.EmotionType
	counts := make(map[triple]int)
	var order []triple
	for i := 0; i+cycleWindow <= len(seq); i++ {
		var t triple
		for j := 0; j < cycleWindow; j++ {
			t[j] = seq[i+j].emotion
		}
		if _, seen := counts[t]; !seen {
			order = append(order, t)
		}
		counts[t]++
	}

	var out []*model.PatternInsight
	for _, t := range order {
		count := counts[t]
		if count < 2 {
			continue
		}
		inTriple := map[model.EmotionType]bool{t[0]: true, t[1]: true, t[2]: true}
		var related []string
		relatedSeen := make(map[string]bool)
		for _, entry := range seq {
			if inTriple[entry.emotion] && !relatedSeen[entry.fragmentID] {
				relatedSeen[entry.fragmentID] = true
				related = append(related, entry.fragmentID)
			}
		}
		confidence := float64(count) / float64(total)
		if confidence > 0.9 {
			confidence = 0.9
		}
		out = append(out, &model.PatternInsight{
			InsightID: uuid.New().String(),
			Type:      model.InsightEmotionalCycle,
			Description: fmt.Sprintf("Recurring emotional cycle: %s -> %s -> %s (seen %d times)",
				t[0], t[1], t[2], count),
			Confidence:       model.ClampConfidence(confidence),
			RelatedFragments: related,
			CreationTime:     now,
		})
	}
	return out
}

// detectTriggerPatterns groups dominant-emotion transitions between adjacent
// fragments; pairs seen at least twice become insights.
func (e *Engine) detectTriggerPatterns(now time.Time, sorted []*model.Fragment) []*model.PatternInsight {
	type transition struct {
		fromID, toID string
		elapsed      time.Duration
	}
	type pair [2]model.EmotionType

	groups := make(map[pair][]transition)
	var order []pair
	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i], sorted[i+1]
		fromTag, okA := a.DominantTag()
		toTag, okB := b.DominantTag()
		if !okA || !okB || fromTag.Emotion == toTag.Emotion {
			continue
		}
		p := pair{fromTag.Emotion, toTag.Emotion}
		if _, seen := groups[p]; !seen {
			order = append(order, p)
		}
		groups[p] = append(groups[p], transition{
			fromID:  a.FragmentID,
			toID:    b.FragmentID,
			elapsed: b.CreationTime.Sub(a.CreationTime),
		})
	}

	var out []*model.PatternInsight
	for _, p := range order {
		trans := groups[p]
		if len(trans) < 2 {
			continue
		}
		var sum time.Duration
		var related []string
		relatedSeen := make(map[string]bool)
		for _, tr := range trans {
			sum += tr.elapsed
			for _, id := range []string{tr.fromID, tr.toID} {
				if !relatedSeen[id] {
					relatedSeen[id] = true
					related = append(related, id)
				}
			}
		}
		mean := sum / time.Duration(len(trans))
		confidence := float64(len(trans)) / 5
		if confidence > 0.8 {
			confidence = 0.8
		}
		out = append(out, &model.PatternInsight{
			InsightID: uuid.New().String(),
			Type:      model.InsightTriggerPattern,
			Description: fmt.Sprintf("Trigger pattern: %s shifts to %s (%d times, average gap %s)",
				p[0], p[1], len(trans), mean.Round(time.Second)),
			Confidence:       model.ClampConfidence(confidence),
			RelatedFragments: related,
			CreationTime:     now,
		})
	}
	return out
}

// detectGrowthTrends fits clarity and energy over fragment index; a slope
// above 0.1 becomes an insight whose confidence is the correlation
// magnitude.
func (e *Engine) detectGrowthTrends(now time.Time, sorted []*model.Fragment) []*model.PatternInsight {
	if len(sorted) < minGrowthFragments {
		return nil
	}
	allIDs := make([]string, len(sorted))
	for i, f := range sorted {
		allIDs[i] = f.FragmentID
	}

	metrics := []struct {
		name   string
		values func(*model.Fragment) float64
	}{
		{"clarity", func(f *model.Fragment) float64 { return float64(f.Metadata.Clarity) }},
		{"energy", func(f *model.Fragment) float64 { return float64(f.Metadata.Energy) }},
	}

	var out []*model.PatternInsight
	for _, m := range metrics {
		ys := make([]float64, len(sorted))
		for i, f := range sorted {
			ys[i] = m.values(f)
		}
		slope, corr := leastSquares(ys)
		if slope <= 0.1 {
			continue
		}
		out = append(out, &model.PatternInsight{
			InsightID: uuid.New().String(),
			Type:      model.InsightGrowthTrend,
			Description: fmt.Sprintf("Your %s is trending upward across recent fragments (slope %.2f per fragment)",
				m.name, slope),
			Confidence:       model.ClampConfidence(corr),
			RelatedFragments: allIDs,
			CreationTime:     now,
		})
	}
	return out
}

// leastSquares returns the OLS slope of ys over index 0..n-1 and the
// absolute Pearson correlation. Correlation is 0 when the variance
// denominator is zero.
func leastSquares(ys []float64) (slope, corr float64) {
	n := float64(len(ys))
	if n < 2 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}
	denX := n*sumXX - sumX*sumX
	if denX == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denX

	denY := n*sumYY - sumY*sumY
	if denY <= 0 {
		return slope, 0
	}
	r := (n*sumXY - sumX*sumY) / math.Sqrt(denX*denY)
	return slope, math.Abs(r)
}

// detectResonanceClusters looks for shared emotions and moods among the
// fragments the viewer rated as highly resonant.
func (e *Engine) detectResonanceClusters(now time.Time, sorted []*model.Fragment) []*model.PatternInsight {
	var high []*model.Fragment
	for _, f := range sorted {
		if len(f.Ratings) == 0 {
			continue
		}
		sum := 0
		for _, r := range f.Ratings {
			sum += r.Resonance
		}
		if float64(sum)/float64(len(f.Ratings)) >= 4 {
			high = append(high, f)
		}
	}
	if len(high) < 3 {
		return nil
	}

	related := make([]string, len(high))
	for i, f := range high {
		related[i] = f.FragmentID
	}
	n := float64(len(high))

	// Emotions appearing (as any tag) in at least 60% of the subset.
	emotionCounts := make(map[model.EmotionType]int)
	var emotionOrder []model.EmotionType
	for _, f := range high {
		seen := make(map[model.EmotionType]bool)
		for _, t := range f.Tags {
			if seen[t.Emotion] {
				continue
			}
			seen[t.Emotion] = true
			if _, known := emotionCounts[t.Emotion]; !known {
				emotionOrder = append(emotionOrder, t.Emotion)
			}
			emotionCounts[t.Emotion]++
		}
	}
	var commonEmotions []string
	for _, em := range emotionOrder {
		if float64(emotionCounts[em])/n >= 0.6 {
			commonEmotions = append(commonEmotions, string(em))
		}
	}

	// Moods appearing in at least 50% of the subset.
	moodCounts := make(map[string]int)
	var moodOrder []string
	for _, f := range high {
		mood := f.Metadata.Mood
		if _, known := moodCounts[mood]; !known {
			moodOrder = append(moodOrder, mood)
		}
		moodCounts[mood]++
	}
	var commonMoods []string
	for _, mood := range moodOrder {
		if float64(moodCounts[mood])/n >= 0.5 {
			commonMoods = append(commonMoods, mood)
		}
	}

	var out []*model.PatternInsight
	if len(commonEmotions) > 0 {
		out = append(out, &model.PatternInsight{
			InsightID: uuid.New().String(),
			Type:      model.InsightResonanceCluster,
			Description: fmt.Sprintf("Fragments that resonate with you share emotions: %s",
				strings.Join(commonEmotions, ", ")),
			Confidence:       0.8,
			RelatedFragments: related,
			CreationTime:     now,
		})
	}
	if len(commonMoods) > 0 {
		out = append(out, &model.PatternInsight{
			InsightID: uuid.New().String(),
			Type:      model.InsightResonanceCluster,
			Description: fmt.Sprintf("Fragments that resonate with you share moods: %s",
				strings.Join(commonMoods, ", ")),
			Confidence:       0.7,
			RelatedFragments: related,
			CreationTime:     now,
		})
	}
	return out
}
