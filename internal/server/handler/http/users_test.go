package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
	"github.com/atinyakov/zkauth/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRegisterService struct {
	id  models.UserID
	err error
	got service.RegisterRequest
}

func (f *fakeRegisterService) Register(_ context.Context, _ models.ClientID, req service.RegisterRequest) (models.UserID, error) {
	f.got = req
	return f.id, f.err
}

func TestUserHandler_Register(t *testing.T) {
	body := `{"username":"alice","public_key":"02aa","roles":["admin"]}`
	tests := []struct {
		name         string
		body         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"invalid JSON", `{`, nil, http.StatusBadRequest, "invalid request"},
		{"missing identifier", body, common.ErrMissingIdentifier, http.StatusBadRequest, "username or email required"},
		{"bad key", body, common.ErrInvalidPublicKey, http.StatusBadRequest, "invalid public key"},
		{"unknown role", body, common.ErrUnknownRole, http.StatusBadRequest, "unknown role"},
		{"duplicate", body, common.ErrAlreadyExists, http.StatusConflict, "user already exists"},
		{"store fault", body, errors.New("db down"), http.StatusInternalServerError, "internal error"},
		{"created", body, nil, http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRegisterService{id: 3, err: tt.err}
			h := &UserHandler{UserService: svc, Log: zap.NewNop()}

			rec := httptest.NewRecorder()
			req := withClient(httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString(tt.body)), 1)
			h.Register(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedErr != "" {
				assert.Equal(t, tt.expectedErr, errorBody(t, rec))
				return
			}
			var resp map[string]int64
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, int64(3), resp["user_id"])
			assert.Equal(t, "alice", svc.got.Identifier.Username)
			assert.Equal(t, "02aa", svc.got.PublicKey)
			assert.Equal(t, []string{"admin"}, svc.got.Roles)
		})
	}
}
