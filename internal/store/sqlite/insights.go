package sqlite

import (
	"context"
	"encoding/json"

	"github.com/rotisk95/Thalionyx/internal/model"
)

type insights struct{ s *sqliteStore }

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
            VALUES (?,?,?,?,?,?)
            ON CONFLICT(insight_id) DO UPDATE SET
                description=excluded.description,
                confidence=excluded.confidence,
                related=excluded.related`,
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
