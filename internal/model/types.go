package model

import "time"

// EmotionType is the closed set of emotions a tag may carry.
type EmotionType string

const (
	EmotionCalm          EmotionType = "calm"
	EmotionAnxious       EmotionType = "anxious"
	EmotionPeaceful      EmotionType = "peaceful"
	EmotionHappy         EmotionType = "happy"
	EmotionSad           EmotionType = "sad"
	EmotionAngry         EmotionType = "angry"
	EmotionHopeful       EmotionType = "hopeful"
	EmotionConfident     EmotionType = "confident"
	EmotionClear         EmotionType = "clear"
	EmotionConfused      EmotionType = "confused"
	EmotionOverwhelmed   EmotionType = "overwhelmed"
	EmotionFocused       EmotionType = "focused"
	EmotionFrustrated    EmotionType = "frustrated"
	EmotionPatient       EmotionType = "patient"
	EmotionUnderstanding EmotionType = "understanding"
	EmotionLonely        EmotionType = "lonely"
	EmotionConnected     EmotionType = "connected"
	EmotionGrateful      EmotionType = "grateful"
	EmotionReflective    EmotionType = "reflective"
	EmotionCurious       EmotionType = "curious"
	EmotionEnergized     EmotionType = "energized"
	EmotionContent       EmotionType = "content"
)

var knownEmotions = map[EmotionType]struct{}{
	EmotionCalm: {}, EmotionAnxious: {}, EmotionPeaceful: {}, EmotionHappy: {},
	EmotionSad: {}, EmotionAngry: {}, EmotionHopeful: {}, EmotionConfident: {},
	EmotionClear: {}, EmotionConfused: {}, EmotionOverwhelmed: {}, EmotionFocused: {},
	EmotionFrustrated: {}, EmotionPatient: {}, EmotionUnderstanding: {}, EmotionLonely: {},
	EmotionConnected: {}, EmotionGrateful: {}, EmotionReflective: {}, EmotionCurious: {},
	EmotionEnergized: {}, EmotionContent: {},
}

// Valid reports whether e is a member of the closed emotion set.
func (e EmotionType) Valid() bool {
	_, ok := knownEmotions[e]
	return ok
}

// EmotionTag annotates a fragment with an emotion, its intensity (1-10) and
// the tagger's confidence (0-1). A fragment may carry several tags for the
// same emotion; insertion order is addition order.
type EmotionTag struct {
	Emotion    EmotionType `json:"emotion"`
	Intensity  int         `json:"intensity"`
	Confidence float64     `json:"confidence"`
	Timestamp  time.Time   `json:"timestamp"`
}

// FragmentRating is a viewer's self-report on how a fragment landed.
// Resonance is on a 1-5 scale.
type FragmentRating struct {
	RatingID   string    `json:"ratingId"`
	FragmentID string    `json:"fragmentId"`
	Helpful    bool      `json:"helpful"`
	Resonance  int       `json:"resonance"`
	Timestamp  time.Time `json:"timestamp"`
	Context    *string   `json:"context,omitempty"`
}

// FragmentVariation wraps a payload derived from the fragment's own payload
// by a named rendering effect.
type FragmentVariation struct {
	VariationID  string    `json:"variationId"`
	Effect       string    `json:"effect"`
	Payload      []byte    `json:"payload,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// ResponseKind classifies a recorded response to an earlier fragment.
type ResponseKind string

const (
	ResponseAnswer       ResponseKind = "answer"
	ResponseContinuation ResponseKind = "continuation"
	ResponseChallenge    ResponseKind = "challenge"
)

// Valid reports whether k is a known response kind.
func (k ResponseKind) Valid() bool {
	switch k {
	case ResponseAnswer, ResponseContinuation, ResponseChallenge:
		return true
	}
	return false
}

// ResponseFragment wraps a payload recorded in response to the fragment.
type ResponseFragment struct {
	ResponseID   string       `json:"responseId"`
	Kind         ResponseKind `json:"kind"`
	Notes        *string      `json:"notes,omitempty"`
	Payload      []byte       `json:"payload,omitempty"`
	CreationTime time.Time    `json:"creationTime"`
}

// FragmentMetadata is the coarse whole-fragment classification. Energy and
// clarity are on a 1-10 scale; mood is an open string (default "reflective").
type FragmentMetadata struct {
	Mood     string   `json:"mood"`
	Energy   int      `json:"energy"`
	Clarity  int      `json:"clarity"`
	Keywords []string `json:"keywords"`
}

// DefaultMood is assigned to fragments created from a capture handoff.
const DefaultMood = "reflective"

// DefaultMetadata returns the metadata assigned at capture handoff.
func DefaultMetadata() FragmentMetadata {
	return FragmentMetadata{Mood: DefaultMood, Energy: 5, Clarity: 5, Keywords: []string{}}
}

// Fragment is one recorded reflection unit. Its id is immutable and payloads
// are never mutated in place; every edit replaces and resaves the whole
// record.
type Fragment struct {
	FragmentID   string              `json:"fragmentId"`
	CreationTime time.Time           `json:"creationTime"`
	DurationMs   int64               `json:"durationMs"`
	Payload      []byte              `json:"payload,omitempty"`
	Tags         []EmotionTag        `json:"tags"`
	Ratings      []FragmentRating    `json:"ratings"`
	Variations   []FragmentVariation `json:"variations"`
	Responses    []ResponseFragment  `json:"responses"`
	Metadata     FragmentMetadata    `json:"metadata"`
}

// Clone returns a deep copy so mutation flows can copy-with-append without
// touching the loaded record.
func (f *Fragment) Clone() *Fragment {
	out := *f
	out.Payload = append([]byte(nil), f.Payload...)
	out.Tags = append([]EmotionTag(nil), f.Tags...)
	out.Ratings = make([]FragmentRating, len(f.Ratings))
	for i, r := range f.Ratings {
		out.Ratings[i] = r
		if r.Context != nil {
			c := *r.Context
			out.Ratings[i].Context = &c
		}
	}
	out.Variations = make([]FragmentVariation, len(f.Variations))
	for i, v := range f.Variations {
		out.Variations[i] = v
		out.Variations[i].Payload = append([]byte(nil), v.Payload...)
	}
	out.Responses = make([]ResponseFragment, len(f.Responses))
	for i, r := range f.Responses {
		out.Responses[i] = r
		out.Responses[i].Payload = append([]byte(nil), r.Payload...)
		if r.Notes != nil {
			n := *r.Notes
			out.Responses[i].Notes = &n
		}
	}
	out.Metadata.Keywords = append([]string(nil), f.Metadata.Keywords...)
	return &out
}

// DominantTag returns the tag with the highest intensity; ties are broken by
// insertion order (first added wins). ok is false when the fragment has no
// tags.
func (f *Fragment) DominantTag() (EmotionTag, bool) {
	if len(f.Tags) == 0 {
		return EmotionTag{}, false
	}
	best := f.Tags[0]
	for _, t := range f.Tags[1:] {
		if t.Intensity > best.Intensity {
			best = t
		}
	}
	return best, true
}

// InsightType identifies which analysis produced a PatternInsight.
type InsightType string

const (
	InsightEmotionalCycle   InsightType = "emotional_cycle"
	InsightTriggerPattern   InsightType = "trigger_pattern"
	InsightGrowthTrend      InsightType = "growth_trend"
	InsightResonanceCluster InsightType = "resonance_cluster"
)

// PatternInsight is an engine-derived statement about recurring structure
// across fragments. Insights are recomputed wholesale on each analysis run;
// persisted runs accumulate as history.
type PatternInsight struct {
	InsightID        string      `json:"insightId"`
	Type             InsightType `json:"type"`
	Description      string      `json:"description"`
	Confidence       float64     `json:"confidence"`
	RelatedFragments []string    `json:"relatedFragments"`
	CreationTime     time.Time   `json:"creationTime"`
}

// MatchType identifies the strategy that proposed a RecommendationMatch.
type MatchType string

const (
	MatchMood              MatchType = "mood_match"
	MatchPatternCompletion MatchType = "pattern_completion"
	MatchContrastLearning  MatchType = "contrast_learning"
	MatchGrowthOpportunity MatchType = "growth_opportunity"
)

// RecommendationMatch is a scored suggestion of a fragment relevant to a
// stated current mood. Transient: recomputed per request, never persisted.
type RecommendationMatch struct {
	FragmentID string    `json:"fragmentId"`
	Score      float64   `json:"score"`
	Reason     string    `json:"reason"`
	Type       MatchType `json:"type"`
}

// ReflectionSession groups the fragments recorded in one sitting.
type ReflectionSession struct {
	SessionID    string     `json:"sessionId"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	FragmentIDs  []string   `json:"fragmentIds"`
	Notes        *string    `json:"notes,omitempty"`
	CreationTime time.Time  `json:"creationTime"`
}
