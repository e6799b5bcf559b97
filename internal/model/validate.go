package model

import "fmt"

// ValidateTag checks an emotion tag's ranges and enum membership.
func ValidateTag(t EmotionTag) error {
	if !t.Emotion.Valid() {
		return fmt.Errorf("%w: unknown emotion %q", ErrValidation, t.Emotion)
	}
	if t.Intensity < 1 || t.Intensity > 10 {
		return fmt.Errorf("%w: intensity %d outside 1-10", ErrValidation, t.Intensity)
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.2f outside 0-1", ErrValidation, t.Confidence)
	}
	return nil
}

// ValidateRating checks a rating's resonance range.
func ValidateRating(r FragmentRating) error {
	if r.Resonance < 1 || r.Resonance > 5 {
		return fmt.Errorf("%w: resonance %d outside 1-5", ErrValidation, r.Resonance)
	}
	return nil
}

// ValidateMetadata checks whole-fragment metadata ranges.
func ValidateMetadata(m FragmentMetadata) error {
	if m.Mood == "" {
		return fmt.Errorf("%w: mood is required", ErrValidation)
	}
	if m.Energy < 1 || m.Energy > 10 {
		return fmt.Errorf("%w: energy %d outside 1-10", ErrValidation, m.Energy)
	}
	if m.Clarity < 1 || m.Clarity > 10 {
		return fmt.Errorf("%w: clarity %d outside 1-10", ErrValidation, m.Clarity)
	}
	return nil
}

// ValidateResponseKind checks response kind enum membership.
func ValidateResponseKind(k ResponseKind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: unknown response kind %q", ErrValidation, k)
	}
	return nil
}

// ClampConfidence bounds an engine-computed confidence to [0, 1]. Engine
// output only; caller-supplied confidences are rejected, not clamped.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
