package sqlite

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/store"
)

// sqliteStore implements store.Store on SQLite (modernc driver). Binary
// payloads live in the payloads table keyed by the owning unit's id;
// fragment metadata rows carry references only.
type sqliteStore struct {
	db    *sql.DB
	ready atomic.Bool
}

// New opens (or creates) a SQLite database file and returns an
// uninitialized store. Callers must run Initialize before first use.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB allows wiring with an existing connection (used by factory and
// tests).
func NewWithDB(db *sql.DB) store.Store {
	return &sqliteStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS fragments (
    fragment_id   TEXT PRIMARY KEY,
    creation_time TIMESTAMP NOT NULL,
    duration_ms   INTEGER NOT NULL,
    mood          TEXT NOT NULL,
    energy        INTEGER NOT NULL,
    clarity       INTEGER NOT NULL,
    keywords      TEXT NOT NULL,
    tags          TEXT NOT NULL,
    ratings       TEXT NOT NULL,
    variations    TEXT NOT NULL,
    responses     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS payloads (
    payload_id  TEXT PRIMARY KEY,
    fragment_id TEXT NOT NULL,
    data        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payloads_fragment ON payloads(fragment_id);
CREATE TABLE IF NOT EXISTS sessions (
    session_id    TEXT PRIMARY KEY,
    start_time    TIMESTAMP NOT NULL,
    end_time      TIMESTAMP,
    fragment_ids  TEXT NOT NULL,
    notes         TEXT,
    creation_time TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS insights (
    insight_id    TEXT PRIMARY KEY,
    insight_type  TEXT NOT NULL,
    description   TEXT NOT NULL,
    confidence    REAL NOT NULL,
    related       TEXT NOT NULL,
    creation_time TIMESTAMP NOT NULL
);
`

// Initialize creates the schema. Idempotent; unlocks the adapter on success.
func (s *sqliteStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	s.ready.Store(true)
	return nil
}

// readyErr gates every operation until Initialize has run.
func (s *sqliteStore) readyErr() error {
	if !s.ready.Load() {
		return model.ErrNotInitialized
	}
	return nil
}

func (s *sqliteStore) Fragments() store.Fragments { return &fragments{s} }
func (s *sqliteStore) Sessions() store.Sessions   { return &sessions{s} }
func (s *sqliteStore) Insights() store.Insights   { return &insights{s} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying *sql.DB connection (tests only).
func (s *sqliteStore) DB() *sql.DB { return s.db }
