package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDominantTag(t *testing.T) {
	f := &Fragment{}
	_, ok := f.DominantTag()
	require.False(t, ok)

	ts := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	f.Tags = []EmotionTag{
		{Emotion: EmotionCalm, Intensity: 6, Confidence: 0.8, Timestamp: ts},
		{Emotion: EmotionAnxious, Intensity: 8, Confidence: 0.8, Timestamp: ts},
		{Emotion: EmotionHopeful, Intensity: 8, Confidence: 0.8, Timestamp: ts},
	}
	tag, ok := f.DominantTag()
	require.True(t, ok)
	require.Equal(t, EmotionAnxious, tag.Emotion, "ties break toward the earlier tag")
}

func TestClone_IsDeep(t *testing.T) {
	notes := "revisit"
	ratingCtx := "late night"
	orig := &Fragment{
		FragmentID: "f1",
		Payload:    []byte("abc"),
		Tags:       []EmotionTag{{Emotion: EmotionCalm, Intensity: 5, Confidence: 0.5}},
		Ratings:    []FragmentRating{{RatingID: "r1", Resonance: 4, Context: &ratingCtx}},
		Variations: []FragmentVariation{{VariationID: "v1", Payload: []byte("var")}},
		Responses:  []ResponseFragment{{ResponseID: "resp1", Notes: &notes, Payload: []byte("resp")}},
		Metadata:   FragmentMetadata{Mood: "reflective", Energy: 5, Clarity: 5, Keywords: []string{"walk"}},
	}

	cp := orig.Clone()

	cp.Payload[0] = 'z'
	cp.Tags[0].Intensity = 9
	*cp.Ratings[0].Context = "changed"
	cp.Variations[0].Payload[0] = 'z'
	*cp.Responses[0].Notes = "changed"
	cp.Metadata.Keywords[0] = "changed"

	require.Equal(t, []byte("abc"), orig.Payload)
	require.Equal(t, 5, orig.Tags[0].Intensity)
	require.Equal(t, "late night", *orig.Ratings[0].Context)
	require.Equal(t, []byte("var"), orig.Variations[0].Payload)
	require.Equal(t, "revisit", *orig.Responses[0].Notes)
	require.Equal(t, []string{"walk"}, orig.Metadata.Keywords)
}

func TestEmotionTypeValid(t *testing.T) {
	require.True(t, EmotionType("calm").Valid())
	require.True(t, EmotionType("understanding").Valid())
	require.False(t, EmotionType("motivated").Valid(), "moods are open, emotions are not")
	require.False(t, EmotionType("").Valid())
}

func TestClampConfidence(t *testing.T) {
	require.Equal(t, 0.0, ClampConfidence(-0.5))
	require.Equal(t, 1.0, ClampConfidence(1.5))
	require.Equal(t, 0.42, ClampConfidence(0.42))
}
