package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
	"github.com/atinyakov/zkauth/internal/zkp"
)

// UserStore persists new users.
type UserStore interface {
	// CreateUser inserts the user with its roles and returns its id.
	CreateUser(ctx context.Context, user models.User) (models.UserID, error)
}

// RegisterRequest describes a user to register under a client.
type RegisterRequest struct {
	Identifier models.Identifier
	// PublicKey is the hex compressed secp256k1 key.
	PublicKey string
	Roles     []string
}

// UserService registers users.
type UserService struct {
	store UserStore
}

// NewUserService constructs a UserService over store.
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Register validates req and stores the user under client. The public key
// must decode to a point on the curve so that every stored key is usable
// for login.
func (s *UserService) Register(ctx context.Context, client models.ClientID, req RegisterRequest) (models.UserID, error) {
	if req.Identifier.IsZero() {
		return 0, common.ErrMissingIdentifier
	}

	key, err := zkp.ParsePointHex(req.PublicKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrInvalidPublicKey, err)
	}

	return s.store.CreateUser(ctx, models.User{
		ClientID:  client,
		Username:  req.Identifier.Username,
		Email:     req.Identifier.Email,
		PublicKey: key.Bytes(),
		Roles:     req.Roles,
	})
}
