package client

import "time"

// Wire types mirror the service's JSON surface. Payload fields are raw bytes
// in Go and base64 strings on the wire.

type EmotionTag struct {
	Emotion    string    `json:"emotion"`
	Intensity  int       `json:"intensity"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

type FragmentRating struct {
	RatingID   string    `json:"ratingId"`
	FragmentID string    `json:"fragmentId"`
	Helpful    bool      `json:"helpful"`
	Resonance  int       `json:"resonance"`
	Timestamp  time.Time `json:"timestamp"`
	Context    *string   `json:"context,omitempty"`
}

type FragmentVariation struct {
	VariationID  string    `json:"variationId"`
	Effect       string    `json:"effect"`
	Payload      []byte    `json:"payload,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

type ResponseFragment struct {
	ResponseID   string    `json:"responseId"`
	Kind         string    `json:"kind"`
	Notes        *string   `json:"notes,omitempty"`
	Payload      []byte    `json:"payload,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

type FragmentMetadata struct {
	Mood     string   `json:"mood"`
	Energy   int      `json:"energy"`
	Clarity  int      `json:"clarity"`
	Keywords []string `json:"keywords"`
}

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

type PatternInsight struct {
	InsightID        string    `json:"insightId"`
	Type             string    `json:"type"`
	Description      string    `json:"description"`
	Confidence       float64   `json:"confidence"`
	RelatedFragments []string  `json:"relatedFragments"`
	CreationTime     time.Time `json:"creationTime"`
}

type RecommendationMatch struct {
	FragmentID string  `json:"fragmentId"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
	Type       string  `json:"type"`
}

type ReflectionSession struct {
	SessionID    string     `json:"sessionId"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	FragmentIDs  []string   `json:"fragmentIds"`
	Notes        *string    `json:"notes,omitempty"`
	CreationTime time.Time  `json:"creationTime"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
