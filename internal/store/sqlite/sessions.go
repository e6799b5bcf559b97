package sqlite

import (
	"context"
	"encoding/json"

	"github.com/rotisk95/Thalionyx/internal/model"
)

type sessions struct{ s *sqliteStore }

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
        VALUES (?,?,?,?,?,?)
        ON CONFLICT(session_id) DO UPDATE SET
            start_time=excluded.start_time,
            end_time=excluded.end_time,
            fragment_ids=excluded.fragment_ids,
            notes=excluded.notes`,
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
