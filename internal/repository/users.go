package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
)

const (
	selectKeyByUsername = `SELECT user_id, client_id, username, email, public_key FROM users WHERE client_id = $1 AND username = $2`
	selectKeyByEmail    = `SELECT user_id, client_id, username, email, public_key FROM users WHERE client_id = $1 AND email = $2`
)

// PostgresUserRepository stores users and their public keys.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository over db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// FindPublicKey returns the key record of the user named by ident inside
// client. Username takes precedence over email; the query is always scoped
// to client. Returns common.ErrNotFound when no row matches.
func (r *PostgresUserRepository) FindPublicKey(ctx context.Context, client models.ClientID, ident models.Identifier) (*models.PublicKeyRecord, error) {
	query, value := selectKeyByUsername, ident.Username
	if value == "" {
		query, value = selectKeyByEmail, ident.Email
	}
	if value == "" {
		return nil, common.ErrMissingIdentifier
	}

	var (
		rec             models.PublicKeyRecord
		userID, cid     int64
		username, email sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, int64(client), value).
		Scan(&userID, &cid, &username, &email, &rec.PublicKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find public key: %w", common.ErrStoreUnavailable, err)
	}

	rec.UserID = models.UserID(userID)
	rec.ClientID = models.ClientID(cid)
	rec.Username = username.String
	rec.Email = email.String
	return &rec, nil
}

// CreateUser inserts user and links its roles in one transaction.
// Returns common.ErrAlreadyExists when the username or email is taken in
// the client and common.ErrUnknownRole when a role is not defined for it.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user models.User) (models.UserID, error) {
	var id int64
	err := withTx(ctx, r.DB, func(tx DBTX) error {
		err := tx.QueryRowContext(
			ctx,
			`INSERT INTO users (client_id, username, email, public_key) VALUES ($1, $2, $3, $4) RETURNING user_id`,
			int64(user.ClientID), nullString(user.Username), nullString(user.Email), user.PublicKey,
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return common.ErrAlreadyExists
			}
			return fmt.Errorf("%w: insert user: %w", common.ErrStoreUnavailable, err)
		}

		for _, role := range user.Roles {
			var roleID int64
			err := tx.QueryRowContext(
				ctx,
				`SELECT role_id FROM roles WHERE client_id = $1 AND role_name = $2`,
				int64(user.ClientID), role,
			).Scan(&roleID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %q", common.ErrUnknownRole, role)
				}
				return fmt.Errorf("%w: find role: %w", common.ErrStoreUnavailable, err)
			}

			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO user_roles_rel (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				id, roleID,
			); err != nil {
				return fmt.Errorf("%w: link role: %w", common.ErrStoreUnavailable, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return models.UserID(id), nil
}
