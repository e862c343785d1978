package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
)

// PostgresSessionRepository is the append-only session log.
type PostgresSessionRepository struct {
	// DB is the database handle for executing transactions.
	DB *sql.DB
}

// NewPostgresSessionRepository creates a PostgresSessionRepository over db.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

// RecordSession claims the session's proof digest and appends the session.
// Concurrent logins never update shared rows; a digest that was already
// claimed yields common.ErrProofReplayed and nothing is written.
func (r *PostgresSessionRepository) RecordSession(ctx context.Context, s models.Session) error {
	return withTx(ctx, r.DB, func(tx DBTX) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO used_proofs (digest, session_id, used_at) VALUES ($1, $2, $3)`,
			s.ProofDigest, s.ID.String(), s.IssuedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return common.ErrProofReplayed
			}
			return fmt.Errorf("%w: claim proof: %w", common.ErrStoreUnavailable, err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO sessions (session_id, user_id, client_id, issued_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
			s.ID.String(), int64(s.UserID), int64(s.ClientID), s.IssuedAt, s.ExpiresAt,
		); err != nil {
			return fmt.Errorf("%w: insert session: %w", common.ErrStoreUnavailable, err)
		}
		return nil
	})
}
