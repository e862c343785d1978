package http

import (
	"net/http"
	"time"

	"github.com/atinyakov/zkauth/internal/middleware"
)

// SessionResponse describes the session presented in X-Session-Token.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ClientID  int64     `json:"client_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session handles GET /api/v1/session behind middleware.SessionAuth.
func Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	resp := SessionResponse{
		SessionID: claims.ID,
		UserID:    claims.Subject,
		ClientID:  int64(claims.ClientID),
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC()
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
