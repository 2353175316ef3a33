package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/prospectiva/internal/database"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRevocationRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRevocationRepository(db *database.DB) *TokenRevocationRepository {
	return &TokenRevocationRepository{pool: db.Pool}
}

// RevokeToken adds a token id to the revocation list until it would have
// expired anyway. Revoking twice is a no-op.
func (r *TokenRevocationRepository) RevokeToken(ctx context.Context, token *models.RevokedToken) error {
	query := `
		INSERT INTO revoked_tokens (token_id, user_id, reason, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token_id) DO NOTHING
	`

	if token.RevokedAt.IsZero() {
		token.RevokedAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, query, token.TokenID, token.UserID, token.Reason, token.ExpiresAt, token.RevokedAt)
	return database.MapPostgresError(err)
}

// IsTokenRevoked checks if a token is in the revocation list
func (r *TokenRevocationRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, tokenID).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}

// CleanupExpiredTokens removes revocations whose tokens have expired (call periodically)
func (r *TokenRevocationRepository) CleanupExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
