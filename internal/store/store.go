package store

import (
	"context"

	"github.com/rotisk95/Thalionyx/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., sqlite,
// postgres). Every method fails with model.ErrNotInitialized until
// Initialize has completed once.
type Store interface {
	// Initialize performs the one-time schema setup. Idempotent.
	Initialize(ctx context.Context) error

	Fragments() Fragments
	Sessions() Sessions
	Insights() Insights
}

// Fragments is durable keyed storage of whole fragment records. Drivers
// split binary payloads from structured metadata internally: metadata rows
// hold references only, and payloads (the fragment's own, each variation's,
// each response's) live in a dedicated blob collection keyed by the owning
// unit's id.
type Fragments interface {
	// Save upserts by fragment id. All payloads and the metadata record are
	// written in one transaction; a failed save leaves prior state unchanged.
	Save(ctx context.Context, f *model.Fragment) (*model.Fragment, error)

	// Get loads the metadata record and rehydrates every payload reference.
	// Returns model.ErrNotFound when no record exists and
	// model.ErrPayloadMissing when a referenced blob is absent.
	Get(ctx context.Context, fragmentID string) (*model.Fragment, error)

	// GetAll loads and rehydrates every fragment. Order is unspecified;
	// callers sort by creation time when order matters.
	GetAll(ctx context.Context) ([]*model.Fragment, error)

	// Delete removes the metadata record and every payload it references.
	// No-op when the id does not exist.
	Delete(ctx context.Context, fragmentID string) error

	// Count returns the number of stored fragments without touching blobs.
	Count(ctx context.Context) (int, error)
}

// Sessions is upsert/read-all storage for reflection sessions. No payload
// splitting: sessions hold no binary data.
type Sessions interface {
	Save(ctx context.Context, s *model.ReflectionSession) (*model.ReflectionSession, error)
	List(ctx context.Context) ([]*model.ReflectionSession, error)
}

// Insights appends each analysis run's output and reads back the full
// history. Old and new runs are kept side by side; there is no expiry or
// dedup rule.
type Insights interface {
	SaveAll(ctx context.Context, insights []*model.PatternInsight) error
	List(ctx context.Context) ([]*model.PatternInsight, error)
}
