// Package session issues and verifies the session credential handed out
// after a successful login. The credential is an HS256 JWT; verifying it
// does not involve the login proof.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the token issuer name written to and required in the iss claim.
const Issuer = "zkauth"

// Claims are the JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	ClientID models.ClientID `json:"cid"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (models.UserID, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", common.ErrInvalidSession)
	}
	return models.UserID(id), nil
}

// Credential is an issued session token with its metadata.
type Credential struct {
	ID        uuid.UUID
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	newID  func() uuid.UUID
}

// NewManager returns a Manager signing with secret and issuing tokens
// valid for ttl.
func NewManager(secret []byte, ttl time.Duration) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty signing secret")
	}
	if ttl <= 0 {
		return nil, errors.New("session: ttl must be positive")
	}
	return &Manager{secret: secret, ttl: ttl, newID: uuid.New}, nil
}

// WithIDSource returns a copy of m drawing session ids from fn.
func (m *Manager) WithIDSource(fn func() uuid.UUID) *Manager {
	c := *m
	c.newID = fn
	return &c
}

// Issue mints a credential for user at now. The token carries only the
// user, its client, the session id and the validity window.
func (m *Manager) Issue(user models.User, now time.Time) (Credential, error) {
	id := m.newID()
	iat := now.Truncate(time.Second)
	exp := iat.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatInt(int64(user.ID), 10),
			ID:        id.String(),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		ClientID: user.ClientID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Credential{}, fmt.Errorf("sign session token: %w", err)
	}

	return Credential{ID: id, Token: signed, IssuedAt: iat, ExpiresAt: exp}, nil
}

// Verify checks signature, algorithm, issuer and expiry of token at now.
// Every failure is reported as common.ErrInvalidSession.
func (m *Manager) Verify(token string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSession, err)
	}
	if !parsed.Valid {
		return nil, common.ErrInvalidSession
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, fmt.Errorf("%w: bad session id", common.ErrInvalidSession)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
