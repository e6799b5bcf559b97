package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rotisk95/Thalionyx/internal/model"
)

type fragments struct{ s *sqliteStore }

// variationRef is the metadata-side record of a variation; the payload is
// stored in the payloads table under VariationID.
type variationRef struct {
	VariationID  string    `json:"variationId"`
	Effect       string    `json:"effect"`
	CreationTime time.Time `json:"creationTime"`
}

// responseRef is the metadata-side record of a response; the payload is
// stored in the payloads table under ResponseID.
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
        VALUES (?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(fragment_id) DO UPDATE SET
            creation_time=excluded.creation_time,
            duration_ms=excluded.duration_ms,
            mood=excluded.mood,
            energy=excluded.energy,
            clarity=excluded.clarity,
            keywords=excluded.keywords,
            tags=excluded.tags,
            ratings=excluded.ratings,
            variations=excluded.variations,
            responses=excluded.responses`,
		frag.FragmentID, frag.CreationTime.UTC(), frag.DurationMs,
		frag.Metadata.Mood, frag.Metadata.Energy, frag.Metadata.Clarity,
		string(keywordsJSON), string(tagsJSON), string(ratingsJSON), string(varsJSON), string(respsJSON))
	if err != nil {
		return nil, err
	}

	// Re-save replaces the whole payload set for this fragment.
	if _, err := tx.ExecContext(ctx, `DELETE FROM payloads WHERE fragment_id = ?`, frag.FragmentID); err != nil {
		return nil, err
	}
	putPayload := func(payloadID string, data []byte) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO payloads (payload_id, fragment_id, data) VALUES (?,?,?)`,
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
        FROM fragments WHERE fragment_id = ?`, fragmentID)
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

	if _, err := tx.ExecContext(ctx, `DELETE FROM payloads WHERE fragment_id = ?`, fragmentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fragments WHERE fragment_id = ?`, fragmentID); err != nil {
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

// rehydrate loads every payload referenced by the metadata record. A missing
// reference fails the whole operation; nested items are never silently
// dropped.
func (f *fragments) rehydrate(ctx context.Context, frag *model.Fragment) error {
	rows, err := f.s.db.QueryContext(ctx, `SELECT payload_id, data FROM payloads WHERE fragment_id = ?`, frag.FragmentID)
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

// scanFragment builds a fragment from a metadata row. Payloads are attached
// separately by rehydrate.
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
