package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*PostgresProfileRepo)(nil)

// PostgresProfileRepo stores each profile as one JSONB document.
type PostgresProfileRepo struct {
	pool *pgxpool.Pool
	tm   *TxManager
	now  func() time.Time
}

func NewPostgresProfileRepo(pool *pgxpool.Pool) *PostgresProfileRepo {
	return &PostgresProfileRepo{pool: pool, tm: NewTxManager(pool), now: time.Now}
}

// Mutate seeds a row when the user has none, then edits it under a row lock
// so concurrent mutations of one user serialize inside Postgres.
func (r *PostgresProfileRepo) Mutate(ctx context.Context, userID string, fn repository.MutateFunc) (*model.UserProfile, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.UserProfile
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ptx := tx.(pgx.Tx)
		seed, err := json.Marshal(model.NewUserProfile(userID, r.now()))
		if err != nil {
			return err
		}
		const ins = `INSERT INTO user_profiles (user_id, data) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING;`
		if _, err := ptx.Exec(ctx, ins, userID, seed); err != nil {
			return fmt.Errorf("seed profile: %w", err)
		}

		const sel = `SELECT data FROM user_profiles WHERE user_id=$1 FOR UPDATE;`
		var raw []byte
		if err := ptx.QueryRow(ctx, sel, userID).Scan(&raw); err != nil {
			return fmt.Errorf("lock profile: %w", err)
		}
		p := new(model.UserProfile)
		if err := json.Unmarshal(raw, p); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := r.upsert(ctx, ptx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	const q = `SELECT data FROM user_profiles WHERE user_id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := ex.QueryRow(ctx, q, userID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p := new(model.UserProfile)
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return p, nil
}

func (r *PostgresProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.UserProfile) error {
	if p == nil || p.UserID == "" {
		return domain.ErrInvalidArgument
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	return r.upsert(ctx, ex, p)
}

func (r *PostgresProfileRepo) upsert(ctx context.Context, ex executor, p *model.UserProfile) error {
	const q = `
INSERT INTO user_profiles (user_id, data, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET data=$2, updated_at=$4;
`
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = r.now()
	}
	if _, err := ex.Exec(ctx, q, p.UserID, raw, created, updated); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *PostgresProfileRepo) Delete(ctx context.Context, tx repository.Tx, userID string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM user_profiles WHERE user_id=$1;`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresProfileRepo) List(ctx context.Context, tx repository.Tx) ([]*model.UserProfile, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT data FROM user_profiles ORDER BY user_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.UserProfile
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		p := new(model.UserProfile)
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
