package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a connection and returns an uninitialized store. Callers must
// run Initialize before first use.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct {
	db    *sql.DB
	ready atomic.Bool
}

const schema = `
CREATE TABLE IF NOT EXISTS fragments (
    fragment_id   TEXT PRIMARY KEY,
    creation_time TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL,
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
    data        BYTEA NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payloads_fragment ON payloads(fragment_id);
CREATE TABLE IF NOT EXISTS sessions (
    session_id    TEXT PRIMARY KEY,
    start_time    TIMESTAMPTZ NOT NULL,
    end_time      TIMESTAMPTZ,
    fragment_ids  TEXT NOT NULL,
    notes         TEXT,
    creation_time TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS insights (
    insight_id    TEXT PRIMARY KEY,
    insight_type  TEXT NOT NULL,
    description   TEXT NOT NULL,
    confidence    DOUBLE PRECISION NOT NULL,
    related       TEXT NOT NULL,
    creation_time TIMESTAMPTZ NOT NULL
);
`

func (s *pgStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	s.ready.Store(true)
	return nil
}

func (s *pgStore) readyErr() error {
	if !s.ready.Load() {
		return model.ErrNotInitialized
	}
	return nil
}

func (s *pgStore) Fragments() store.Fragments { return &fragments{s} }
func (s *pgStore) Sessions() store.Sessions   { return &sessions{s} }
func (s *pgStore) Insights() store.Insights   { return &insights{s} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Fragments ---

type fragments struct{ s *pgStore }

type variationRef struct {
	VariationID  string    `json:"variationId"`
	Effect       string    `json:"effect"`
	CreationTime time.Time `json:"creationTime"`
}

type responseRef struct {
	ResponseID   string             `json:"responseId"`
	Kind         model.ResponseKind `json:"kind"`
	Notes        *string            `json:"notes,omitempty"`
	CreationTime time.Time          `json:"creationTime"`
}

func (f *fragments) Save(ctx context.Context, frag *model.Fragment) (*model.Fragment, error) {
	if err := f.s.readyErr(); err != nil {
		return nil, err
	}

	varRefs := make([]variationRef, len(frag.Variations))
	for i, v := range frag.Variations {
		varRefs[i] = variationRef{VariationID: v.VariationID, Effect: v.Effect, CreationTime: v.CreationTime}
	}
	respRefs := make([]responseRef, len(frag.Responses))
	for i, r := range frag.Responses {
		respRefs[i] = responseRef{ResponseID: r.ResponseID, Kind: r.Kind, Notes: r.Notes, CreationTime: r.CreationTime}
	}

	keywordsJSON, err := json.Marshal(frag.Metadata.Keywords)
	if err != nil {
		return nil, err
	}
	tagsJSON, err := json.Marshal(frag.Tags)
	if err != nil {
		return nil, err
	}
	ratingsJSON, err := json.Marshal(frag.Ratings)
	if err != nil {
		return nil, err
	}
	varsJSON, err := json.Marshal(varRefs)
	if err != nil {
		return nil, err
	}
	respsJSON, err := json.Marshal(respRefs)
	if err != nil {
		return nil, err
	}

	tx, err := f.s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO fragments (fragment_id, creation_time, duration_ms, mood, energy, clarity, keywords, tags, ratings, variations, responses)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (fragment_id) DO UPDATE SET
            creation_time=EXCLUDED.creation_time,
            duration_ms=EXCLUDED.duration_ms,
            mood=EXCLUDED.mood,
            energy=EXCLUDED.energy,
            clarity=EXCLUDED.clarity,
            keywords=EXCLUDED.keywords,
            tags=EXCLUDED.tags,
            ratings=EXCLUDED.ratings,
            variations=EXCLUDED.variations,
            responses=EXCLUDED.responses`,
		frag.FragmentID, frag.CreationTime.UTC(), frag.DurationMs,
		frag.Metadata.Mood, frag.Metadata.Energy, frag.Metadata.Clarity,
		string(keywordsJSON), string(tagsJSON), string(ratingsJSON), string(varsJSON), string(respsJSON))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM payloads WHERE fragment_id = $1`, frag.FragmentID); err != nil {
		return nil, err
	}
	putPayload := func(payloadID string, data []byte) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO payloads (payload_id, fragment_id, data) VALUES ($1,$2,$3)`,
			payloadID, frag.FragmentID, data)
		return err
	}
	if err := putPayload(frag.FragmentID, frag.Payload); err != nil {
		return nil, err
	}
	for _, v := range frag.Variations {
		if err := putPayload(v.VariationID, v.Payload); err != nil {
			return nil, err
		}
	}
	for _, r := range frag.Responses {
		if err := putPayload(r.ResponseID, r.Payload); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return frag, nil
}

func (f *fragments) Get(ctx context.Context, fragmentID string) (*model.Fragment, error) {
	if err := f.s.readyErr(); err != nil {
		return nil, err
	}
	row := f.s.db.QueryRowContext(ctx, `
        SELECT fragment_id, creation_time, duration_ms, mood, energy, clarity, keywords, tags, ratings, variations, responses
        FROM fragments WHERE fragment_id = $1`, fragmentID)
	frag, err := scanFragment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fragment %s: %w", fragmentID, model.ErrNotFound)
		}
		return nil, err
	}
	if err := f.rehydrate(ctx, frag); err != nil {
		return nil, err
	}
	return frag, nil
}

func (f *fragments) GetAll(ctx context.Context) ([]*model.Fragment, error) {
	if err := f.s.readyErr(); err != nil {
		return nil, err
	}
	rows, err := f.s.db.QueryContext(ctx, `
        SELECT fragment_id, creation_time, duration_ms, mood, energy, clarity, keywords, tags, ratings, variations, responses
        FROM fragments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Fragment
	for rows.Next() {
		frag, err := scanFragment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, frag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, frag := range out {
		if err := f.rehydrate(ctx, frag); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (f *fragments) Delete(ctx context.Context, fragmentID string) error {
	if err := f.s.readyErr(); err != nil {
		return err
	}
	tx, err := f.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payloads WHERE fragment_id = $1`, fragmentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fragments WHERE fragment_id = $1`, fragmentID); err != nil {
		return err
	}
	return tx.Commit()
}

func (f *fragments) Count(ctx context.Context) (int, error) {
	if err := f.s.readyErr(); err != nil {
		return 0, err
	}
	var n int
	if err := f.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fragments`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (f *fragments) rehydrate(ctx context.Context, frag *model.Fragment) error {
	rows, err := f.s.db.QueryContext(ctx, `SELECT payload_id, data FROM payloads WHERE fragment_id = $1`, frag.FragmentID)
	if err != nil {
		return err
	}
	defer rows.Close()

	blobs := make(map[string][]byte)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return err
		}
		blobs[id] = data
	}
	if err := rows.Err(); err != nil {
		return err
	}

	own, ok := blobs[frag.FragmentID]
	if !ok {
		return fmt.Errorf("fragment %s own payload: %w", frag.FragmentID, model.ErrPayloadMissing)
	}
	frag.Payload = own
	for i := range frag.Variations {
		data, ok := blobs[frag.Variations[i].VariationID]
		if !ok {
			return fmt.Errorf("variation %s: %w", frag.Variations[i].VariationID, model.ErrPayloadMissing)
		}
		frag.Variations[i].Payload = data
	}
	for i := range frag.Responses {
		data, ok := blobs[frag.Responses[i].ResponseID]
		if !ok {
			return fmt.Errorf("response %s: %w", frag.Responses[i].ResponseID, model.ErrPayloadMissing)
		}
		frag.Responses[i].Payload = data
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFragment(row rowScanner) (*model.Fragment, error) {
	var (
		frag         model.Fragment
		keywordsJSON string
		tagsJSON     string
		ratingsJSON  string
		varsJSON     string
		respsJSON    string
	)
	if err := row.Scan(&frag.FragmentID, &frag.CreationTime, &frag.DurationMs,
		&frag.Metadata.Mood, &frag.Metadata.Energy, &frag.Metadata.Clarity,
		&keywordsJSON, &tagsJSON, &ratingsJSON, &varsJSON, &respsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &frag.Metadata.Keywords); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &frag.Tags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ratingsJSON), &frag.Ratings); err != nil {
		return nil, err
	}
	var varRefs []variationRef
	if err := json.Unmarshal([]byte(varsJSON), &varRefs); err != nil {
		return nil, err
	}
	var respRefs []responseRef
	if err := json.Unmarshal([]byte(respsJSON), &respRefs); err != nil {
		return nil, err
	}
	frag.Variations = make([]model.FragmentVariation, len(varRefs))
	for i, v := range varRefs {
		frag.Variations[i] = model.FragmentVariation{VariationID: v.VariationID, Effect: v.Effect, CreationTime: v.CreationTime}
	}
	frag.Responses = make([]model.ResponseFragment, len(respRefs))
	for i, r := range respRefs {
		frag.Responses[i] = model.ResponseFragment{ResponseID: r.ResponseID, Kind: r.Kind, Notes: r.Notes, CreationTime: r.CreationTime}
	}
	return &frag, nil
}

// --- Sessions ---

type sessions struct{ s *pgStore }

func (se *sessions) Save(ctx context.Context, sess *model.ReflectionSession) (*model.ReflectionSession, error) {
	if err := se.s.readyErr(); err != nil {
		return nil, err
	}
	idsJSON, err := json.Marshal(sess.FragmentIDs)
	if err != nil {
		return nil, err
	}
	_, err = se.s.db.ExecContext(ctx, `
        INSERT INTO sessions (session_id, start_time, end_time, fragment_ids, notes, creation_time)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (session_id) DO UPDATE SET
            start_time=EXCLUDED.start_time,
            end_time=EXCLUDED.end_time,
            fragment_ids=EXCLUDED.fragment_ids,
            notes=EXCLUDED.notes`,
		sess.SessionID, sess.StartTime.UTC(), sess.EndTime, string(idsJSON), sess.Notes, sess.CreationTime.UTC())
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (se *sessions) List(ctx context.Context) ([]*model.ReflectionSession, error) {
	if err := se.s.readyErr(); err != nil {
		return nil, err
	}
	rows, err := se.s.db.QueryContext(ctx, `
        SELECT session_id, start_time, end_time, fragment_ids, notes, creation_time
        FROM sessions ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ReflectionSession
	for rows.Next() {
		var (
			sess    model.ReflectionSession
			idsJSON string
		)
		if err := rows.Scan(&sess.SessionID, &sess.StartTime, &sess.EndTime, &idsJSON, &sess.Notes, &sess.CreationTime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(idsJSON), &sess.FragmentIDs); err != nil {
			return nil, err
		}
		out = append(out, &sess)
	}
	return out, rows.Err()
}

// --- Insights ---

type insights struct{ s *pgStore }

func (in *insights) SaveAll(ctx context.Context, list []*model.PatternInsight) error {
	if err := in.s.readyErr(); err != nil {
		return err
	}
	tx, err := in.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, ins := range list {
		relatedJSON, err := json.Marshal(ins.RelatedFragments)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO insights (insight_id, insight_type, description, confidence, related, creation_time)
            VALUES ($1,$2,$3,$4,$5,$6)
            ON CONFLICT (insight_id) DO UPDATE SET
                description=EXCLUDED.description,
                confidence=EXCLUDED.confidence,
                related=EXCLUDED.related`,
			ins.InsightID, string(ins.Type), ins.Description, ins.Confidence, string(relatedJSON), ins.CreationTime.UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (in *insights) List(ctx context.Context) ([]*model.PatternInsight, error) {
	if err := in.s.readyErr(); err != nil {
		return nil, err
	}
	rows, err := in.s.db.QueryContext(ctx, `
        SELECT insight_id, insight_type, description, confidence, related, creation_time
        FROM insights ORDER BY creation_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PatternInsight
	for rows.Next() {
		var (
			ins         model.PatternInsight
			typ         string
			relatedJSON string
		)
		if err := rows.Scan(&ins.InsightID, &typ, &ins.Description, &ins.Confidence, &relatedJSON, &ins.CreationTime); err != nil {
			return nil, err
		}
		ins.Type = model.InsightType(typ)
		if err := json.Unmarshal([]byte(relatedJSON), &ins.RelatedFragments); err != nil {
			return nil, err
		}
		out = append(out, &ins)
	}
	return out, rows.Err()
}
