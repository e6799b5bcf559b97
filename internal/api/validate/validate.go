package validate

import (
	"fmt"

	"github.com/rotisk95/Thalionyx/internal/model"
)

// Capture validates the capture collaborator's handoff.
func Capture(payload []byte, durationMs int64) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	if durationMs <= 0 {
		return fmt.Errorf("durationMs must be positive")
	}
	return nil
}

// Tag validates an emotion tag request against the closed emotion set and
// its declared ranges.
func Tag(emotion string, intensity int, confidence float64) error {
	t := model.EmotionTag{Emotion: model.EmotionType(emotion), Intensity: intensity, Confidence: confidence}
	return model.ValidateTag(t)
}

// Rating validates a rating request.
func Rating(resonance int) error {
	if resonance < 1 || resonance > 5 {
		return fmt.Errorf("resonance must be between 1 and 5")
	}
	return nil
}

// Variation validates an effect-rendering handoff.
func Variation(effect string, payload []byte) error {
	if effect == "" {
		return fmt.Errorf("effect is required")
	}
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	return nil
}

// Response validates a response-recording handoff.
func Response(kind string, payload []byte) error {
	if !model.ResponseKind(kind).Valid() {
		return fmt.Errorf("kind must be one of answer, continuation, challenge")
	}
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	return nil
}

// Metadata validates a whole-fragment metadata replacement.
func Metadata(mood string, energy, clarity int) error {
	return model.ValidateMetadata(model.FragmentMetadata{Mood: mood, Energy: energy, Clarity: clarity})
}

// Mood validates a recommendation request's mood string.
func Mood(v string) error {
	if v == "" {
		return fmt.Errorf("mood is required")
	}
	if len(v) > 50 {
		return fmt.Errorf("mood exceeds 50 characters")
	}
	return nil
}
