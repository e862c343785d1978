// Package models defines the core data structures for clients, users and
// login sessions.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientID identifies an API-key holding integrator (tenant).
type ClientID int64

// UserID identifies an end user inside a client.
type UserID int64

// Identifier names a user inside a client. Username wins when both are set.
type Identifier struct {
	// Username is the client-scoped login name.
	Username string `json:"username,omitempty"`
	// Email is the client-scoped email address.
	Email string `json:"email,omitempty"`
}

// IsZero reports whether neither field is set.
func (i Identifier) IsZero() bool {
	return i.Username == "" && i.Email == ""
}

// User is an end user registered under a client.
type User struct {
	// ID is the unique identifier for the user.
	ID UserID
	// ClientID is the owning tenant.
	ClientID ClientID
	// Username is optional when Email is set.
	Username string
	// Email is optional when Username is set.
	Email string
	// PublicKey is the compressed secp256k1 public key.
	PublicKey []byte
	// Roles are client-defined role names.
	Roles []string
}

// PublicKeyRecord is the stored key of a user as read for login.
type PublicKeyRecord struct {
	UserID    UserID
	ClientID  ClientID
	Username  string
	Email     string
	PublicKey []byte
}

// Session is one entry of the append-only session log.
type Session struct {
	// ID is the session id, also the token's jti claim.
	ID       uuid.UUID
	UserID   UserID
	ClientID ClientID
	// ProofDigest is SHA-256 of the proof commitment; each may be used once.
	ProofDigest []byte
	IssuedAt    time.Time
	ExpiresAt   time.Time
}
