// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
	"go.uber.org/zap"
)

type ctxKey string

const (
	clientKey  ctxKey = "client"
	sessionKey ctxKey = "session"
)

const bearerPrefix = "Bearer "

// ClientDirectory resolves API keys to clients.
type ClientDirectory interface {
	// FindClientByAPIKey returns common.ErrNotFound for unknown keys.
	FindClientByAPIKey(ctx context.Context, key string) (models.ClientID, error)
}

// ClientAuth is a middleware that authenticates the calling client by its
// bearer API key.
//
// A missing Authorization header yields 401. A header that is not a Bearer
// credential, or carries an empty token, yields 400. An unknown key yields
// 401 and a directory fault yields 500. On success the ClientID is stored in
// the request context and can be read with ClientIDFromContext.
func ClientAuth(dir ClientDirectory, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				WriteError(w, http.StatusUnauthorized, "missing authorization")
				return
			}
			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || strings.TrimSpace(token) == "" {
				WriteError(w, http.StatusBadRequest, "malformed authorization header")
				return
			}

			client, err := dir.FindClientByAPIKey(r.Context(), token)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					WriteError(w, http.StatusUnauthorized, "unknown client")
					return
				}
				log.Error("client lookup failed", zap.Error(err))
				WriteError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), client)))
		})
	}
}

// WithClientID returns a copy of ctx carrying client.
func WithClientID(ctx context.Context, client models.ClientID) context.Context {
	return context.WithValue(ctx, clientKey, client)
}

// ClientIDFromContext returns the client attached by ClientAuth.
func ClientIDFromContext(ctx context.Context) (models.ClientID, bool) {
	id, ok := ctx.Value(clientKey).(models.ClientID)
	return id, ok
}
