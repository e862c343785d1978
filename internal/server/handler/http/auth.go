// Package http provides the HTTP handlers and routing of the
// authentication API.
package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/middleware"
	"github.com/atinyakov/zkauth/internal/models"
	"github.com/atinyakov/zkauth/internal/service"
	"go.uber.org/zap"
)

// LoginService defines the login operation required by AuthHandler.
type LoginService interface {
	Login(ctx context.Context, client models.ClientID, req service.LoginRequest) (*service.LoginResult, error)
}

// AuthHandler handles login requests.
type AuthHandler struct {
	// AuthService verifies proofs and issues sessions.
	AuthService LoginService
	Log         *zap.Logger
}

// LoginRequest is the JSON body of POST /api/v1/login. Points and scalars
// are hex encoded. "proof" is accepted as an alias of "response".
type LoginRequest struct {
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	Commitment string `json:"commitment"`
	Response   string `json:"response,omitempty"`
	Proof      string `json:"proof,omitempty"`
	Payload    string `json:"payload"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
}

// undecodable stands in for proof fields that are not valid hex, so that
// they take the same verification path as any other malformed proof.
var undecodable = []byte{0}

func decodeProofField(s string) []byte {
	if s == "" {
		return nil
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) == 0 {
		return undecodable
	}
	return b
}

// Login handles POST /api/v1/login for the client resolved by
// middleware.ClientAuth.
//
// Every authentication failure is answered with the same 401 body. Requests
// without an identifier, payload or proof fields are answered with 400.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	client, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "unknown client")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	response := req.Response
	if response == "" {
		response = req.Proof
	}

	res, err := h.AuthService.Login(r.Context(), client, service.LoginRequest{
		Identifier: models.Identifier{Username: req.Username, Email: req.Email},
		Commitment: decodeProofField(req.Commitment),
		Response:   decodeProofField(response),
		Payload:    req.Payload,
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrUnauthenticated):
		middleware.WriteError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
		return
	case errors.Is(err, common.ErrMissingIdentifier), errors.Is(err, common.ErrInvalidRequest):
		middleware.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	default:
		h.Log.Error("login failed", zap.Int64("client_id", int64(client)), zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:     res.Credential.Token,
		SessionID: res.Credential.ID.String(),
		ExpiresAt: res.Credential.ExpiresAt.UTC(),
		UserID:    int64(res.User.ID),
		Username:  res.User.Username,
		Email:     res.User.Email,
	})
}
