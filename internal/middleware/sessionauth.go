package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/zkauth/internal/session"
	"go.uber.org/zap"
)

// SessionHeader carries the session token. Authorization is taken by the
// client API key.
const SessionHeader = "X-Session-Token"

// SessionVerifier checks session tokens.
type SessionVerifier interface {
	Verify(token string, now time.Time) (*session.Claims, error)
}

// SessionAuth requires a valid session token issued to the client that
// ClientAuth resolved. It must run after ClientAuth.
func SessionAuth(v SessionVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := ClientIDFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unknown client")
				return
			}

			token := r.Header.Get(SessionHeader)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "missing session token")
				return
			}

			claims, err := v.Verify(token, time.Now())
			if err != nil {
				log.Debug("session rejected", zap.Error(err))
				WriteError(w, http.StatusUnauthorized, "invalid session")
				return
			}
			if claims.ClientID != client {
				log.Warn("session presented by another client",
					zap.Int64("client_id", int64(client)),
					zap.Int64("token_client_id", int64(claims.ClientID)),
				)
				WriteError(w, http.StatusUnauthorized, "invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the claims attached by SessionAuth.
func SessionFromContext(ctx context.Context) (*session.Claims, bool) {
	c, ok := ctx.Value(sessionKey).(*session.Claims)
	return c, ok
}
