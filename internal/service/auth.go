// Package service provides the login and registration business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
	"github.com/atinyakov/zkauth/internal/session"
	"github.com/atinyakov/zkauth/internal/zkp"
	"go.uber.org/zap"
)

// KeyRegistry resolves a user's stored public key inside a client.
type KeyRegistry interface {
	// FindPublicKey returns common.ErrNotFound when no user matches.
	FindPublicKey(ctx context.Context, client models.ClientID, ident models.Identifier) (*models.PublicKeyRecord, error)
}

// SessionStore appends issued sessions to the session log.
type SessionStore interface {
	// RecordSession returns common.ErrProofReplayed when the proof digest
	// was already claimed.
	RecordSession(ctx context.Context, s models.Session) error
}

// SessionIssuer mints session credentials.
type SessionIssuer interface {
	Issue(user models.User, now time.Time) (session.Credential, error)
}

// LoginRequest carries one login attempt in wire form.
type LoginRequest struct {
	Identifier models.Identifier
	// Commitment is the compressed point R.
	Commitment []byte
	// Response is the 32-byte scalar s.
	Response []byte
	// Payload is the string the proof is bound to.
	Payload string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	User       models.User
	Credential session.Credential
}

// AuthService verifies login proofs and issues sessions.
type AuthService struct {
	keys     KeyRegistry
	sessions SessionStore
	issuer   SessionIssuer
	log      *zap.Logger
	now      func() time.Time

	// Decoy material is kept encoded so that it goes through the same
	// decoding as stored keys and submitted proofs.
	decoyKey        []byte
	decoyCommitment []byte
	decoyResponse   []byte

	parsePoint func([]byte) (*zkp.Point, error)
	parseProof func(commitment, response []byte) (*zkp.Proof, error)
	verify     func(pub *zkp.Point, proof *zkp.Proof, payload []byte) bool
}

// NewAuthService constructs an AuthService. All collaborators are required.
func NewAuthService(keys KeyRegistry, sessions SessionStore, issuer SessionIssuer, log *zap.Logger) *AuthService {
	decoyKey, decoyProof := zkp.Decoy()
	return &AuthService{
		keys:            keys,
		sessions:        sessions,
		issuer:          issuer,
		log:             log,
		now:             time.Now,
		decoyKey:        decoyKey.Bytes(),
		decoyCommitment: decoyProof.CommitmentBytes(),
		decoyResponse:   decoyProof.ResponseBytes(),
		parsePoint:      zkp.ParsePoint,
		parseProof:      zkp.ParseProof,
		verify:          zkp.Verify,
	}
}

// Login authenticates the user named by req inside client.
//
// Unknown accounts, undecodable proofs, wrong proofs and replayed proofs all
// return an error wrapping common.ErrUnauthenticated, and all of them run
// exactly one full proof verification. Request-shape problems return
// common.ErrMissingIdentifier or common.ErrInvalidRequest; storage faults
// and corrupt key records are returned wrapped for a 500.
func (s *AuthService) Login(ctx context.Context, client models.ClientID, req LoginRequest) (*LoginResult, error) {
	if req.Identifier.IsZero() {
		return nil, common.ErrMissingIdentifier
	}
	if req.Payload == "" || len(req.Commitment) == 0 || len(req.Response) == 0 {
		return nil, common.ErrInvalidRequest
	}

	rec, err := s.keys.FindPublicKey(ctx, client, req.Identifier)
	found := err == nil
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("lookup public key: %w", err)
	}

	keyBytes := s.decoyKey
	if found {
		keyBytes = rec.PublicKey
	}
	key, err := s.parsePoint(keyBytes)
	if err != nil {
		if !found {
			return nil, fmt.Errorf("decode decoy key: %w", err)
		}
		s.log.Error("stored public key does not decode",
			zap.Int64("client_id", int64(rec.ClientID)),
			zap.Int64("user_id", int64(rec.UserID)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: user %d: %w", common.ErrCorruptKeyRecord, rec.UserID, err)
	}

	proof, proofErr := s.parseProof(req.Commitment, req.Response)
	candidate := proof
	if proofErr != nil {
		candidate, err = s.parseProof(s.decoyCommitment, s.decoyResponse)
		if err != nil {
			return nil, fmt.Errorf("decode decoy proof: %w", err)
		}
	}

	valid := s.verify(key, candidate, []byte(req.Payload))

	var reason error
	switch {
	case !found:
		reason = common.ErrAccountNotFound
	case proofErr != nil:
		reason = fmt.Errorf("%w: %w", common.ErrMalformedProof, proofErr)
	case !valid:
		reason = common.ErrInvalidProof
	}
	if reason != nil {
		s.log.Debug("login rejected", zap.Int64("client_id", int64(client)), zap.Error(reason))
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, reason)
	}

	user := models.User{
		ID:        rec.UserID,
		ClientID:  rec.ClientID,
		Username:  rec.Username,
		Email:     rec.Email,
		PublicKey: rec.PublicKey,
	}

	cred, err := s.issuer.Issue(user, s.now())
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	digest := sha256.Sum256(proof.CommitmentBytes())
	err = s.sessions.RecordSession(ctx, models.Session{
		ID:          cred.ID,
		UserID:      user.ID,
		ClientID:    user.ClientID,
		ProofDigest: digest[:],
		IssuedAt:    cred.IssuedAt,
		ExpiresAt:   cred.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, common.ErrProofReplayed) {
			s.log.Warn("login proof replayed",
				zap.Int64("client_id", int64(client)),
				zap.Int64("user_id", int64(user.ID)),
			)
			return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("record session: %w", err)
	}

	s.log.Info("user logged in",
		zap.Int64("client_id", int64(client)),
		zap.Int64("user_id", int64(user.ID)),
		zap.String("session_id", cred.ID.String()),
	)
	return &LoginResult{User: user, Credential: cred}, nil
}
