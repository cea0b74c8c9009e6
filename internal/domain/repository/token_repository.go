package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classhub/internal/common"
	"classhub/internal/domain/model"
)

type TokenRepository interface {
	Revoke(ctx context.Context, token *model.RevokedToken) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	FindByJTI(ctx context.Context, jti string) (*model.RevokedToken, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type pgTokenRepository struct {
	db *sql.DB
}

func NewPgTokenRepository(db *sql.DB) TokenRepository {
	return &pgTokenRepository{db: db}
}

// Revoke is idempotent: revoking an already revoked jti keeps the first entry.
func (r *pgTokenRepository) Revoke(ctx context.Context, t *model.RevokedToken) error {
	query := `INSERT INTO revoked_tokens (jti, user_id, reason, expires_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (jti) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, t.JTI, t.UserID, t.Reason, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("pgTokenRepository.Revoke: %w", err)
	}
	return nil
}

func (r *pgTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgTokenRepository.IsRevoked: %w", err)
	}
	return exists, nil
}

func (r *pgTokenRepository) FindByJTI(ctx context.Context, jti string) (*model.RevokedToken, error) {
	query := `SELECT jti, user_id, reason, expires_at, revoked_at FROM revoked_tokens WHERE jti = $1`
	t := &model.RevokedToken{}
	err := r.db.QueryRowContext(ctx, query, jti).Scan(&t.JTI, &t.UserID, &t.Reason, &t.ExpiresAt, &t.RevokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTokenRepository.FindByJTI: %w", err)
	}
	return t, nil
}

// PurgeExpired removes entries for tokens that can no longer be presented.
func (r *pgTokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("pgTokenRepository.PurgeExpired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pgTokenRepository.PurgeExpired rows affected: %w", err)
	}
	return affected, nil
}
