package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

var _ repository.SessionReportRepository = (*PostgresSessionReportRepo)(nil)

type PostgresSessionReportRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSessionReportRepo(pool *pgxpool.Pool) *PostgresSessionReportRepo {
	return &PostgresSessionReportRepo{pool: pool}
}

// Save keeps the first copy of a report; resubmissions of a session id are ignored.
func (r *PostgresSessionReportRepo) Save(ctx context.Context, tx repository.Tx, rep *model.SessionReport) error {
	const q = `
INSERT INTO session_reports (
  session_id, user_id, session_start, session_end, session_end_type, session_duration, payload
) VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (session_id) DO NOTHING;
`
	if rep == nil || rep.SessionID == "" {
		return domain.ErrInvalidArgument
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, rep.SessionID, rep.UserID, rep.SessionStart, rep.SessionEnd,
		rep.SessionEndType, rep.SessionDuration, payload); err != nil {
		return fmt.Errorf("save session report: %w", err)
	}
	return nil
}

func (r *PostgresSessionReportRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.SessionReport, error) {
	const q = `
SELECT payload FROM session_reports
 WHERE user_id=$1
 ORDER BY session_end DESC, received_at DESC
 LIMIT $2;
`
	if limit <= 0 {
		limit = 1000
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SessionReport
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rep := new(model.SessionReport)
		if err := json.Unmarshal(raw, rep); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
