package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/middleware"
	"github.com/atinyakov/zkauth/internal/models"
	"github.com/atinyakov/zkauth/internal/service"
	"go.uber.org/zap"
)

// RegisterService defines the registration operation required by
// UserHandler.
type RegisterService interface {
	Register(ctx context.Context, client models.ClientID, req service.RegisterRequest) (models.UserID, error)
}

// UserHandler handles user registration.
type UserHandler struct {
	UserService RegisterService
	Log         *zap.Logger
}

// RegisterRequest is the JSON body of POST /api/v1/users.
type RegisterRequest struct {
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	PublicKey string   `json:"public_key"`
	Roles     []string `json:"roles,omitempty"`
}

// Register handles POST /api/v1/users. The new user belongs to the client
// resolved by middleware.ClientAuth.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	client, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "unknown client")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	id, err := h.UserService.Register(r.Context(), client, service.RegisterRequest{
		Identifier: models.Identifier{Username: req.Username, Email: req.Email},
		PublicKey:  req.PublicKey,
		Roles:      req.Roles,
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrMissingIdentifier):
		middleware.WriteError(w, http.StatusBadRequest, "username or email required")
		return
	case errors.Is(err, common.ErrInvalidPublicKey):
		middleware.WriteError(w, http.StatusBadRequest, "invalid public key")
		return
	case errors.Is(err, common.ErrUnknownRole):
		middleware.WriteError(w, http.StatusBadRequest, "unknown role")
		return
	case errors.Is(err, common.ErrAlreadyExists):
		middleware.WriteError(w, http.StatusConflict, "user already exists")
		return
	default:
		h.Log.Error("register user failed", zap.Int64("client_id", int64(client)), zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]int64{"user_id": int64(id)})
}
