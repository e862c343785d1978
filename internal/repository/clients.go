// Package repository provides the PostgreSQL implementations of the client
// directory, the key registry and the session log.
package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
)

// HashAPIKey returns the hex SHA-256 digest under which an API key is
// stored. Raw keys never reach the database.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// PostgresClientRepository resolves API keys to clients.
type PostgresClientRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresClientRepository creates a PostgresClientRepository over db.
func NewPostgresClientRepository(db *sql.DB) *PostgresClientRepository {
	return &PostgresClientRepository{DB: db}
}

// FindClientByAPIKey returns the client owning key, or common.ErrNotFound.
// The lookup is a single exact match on the key digest.
func (r *PostgresClientRepository) FindClientByAPIKey(ctx context.Context, key string) (models.ClientID, error) {
	var id int64
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT client_id FROM clients WHERE api_key_hash = $1`,
		HashAPIKey(key),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("%w: find client: %w", common.ErrStoreUnavailable, err)
	}
	return models.ClientID(id), nil
}
