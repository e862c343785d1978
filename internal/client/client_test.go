package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	api "github.com/atinyakov/zkauth/internal/server/handler/http"
	"github.com/atinyakov/zkauth/internal/zkp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Login(t *testing.T) {
	key, err := zkp.GenerateKey()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/login", r.URL.Path)
		assert.Equal(t, "Bearer k1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		commitment, _ := hex.DecodeString(req.Commitment)
		response, _ := hex.DecodeString(req.Response)
		ok, err := zkp.VerifyEncoded(key.Public().Bytes(), commitment, response, []byte(req.Payload))
		if err != nil || !ok || req.Username != "alice" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication failed"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(api.LoginResponse{Token: "tok", UserID: 1, Username: "alice"})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "k1", nil)
	resp, err := c.Login(context.Background(), Identity{Username: "alice"}, key, "alice")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)

	other, _ := zkp.GenerateKey()
	_, err = c.Login(context.Background(), Identity{Username: "alice"}, other, "alice")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "authentication failed", apiErr.Message)
}

func TestClient_RegisterAndSession(t *testing.T) {
	key, _ := zkp.GenerateKey()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users":
			var req api.RegisterRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, key.Public().String(), req.PublicKey)
			assert.Equal(t, "bob@example.com", req.Email)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"user_id":12}`))
		case "/api/v1/session":
			assert.Equal(t, "tok", r.Header.Get("X-Session-Token"))
			assert.Empty(t, r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"session_id":"s","user_id":"12","client_id":3}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "k1", srv.Client())
	id, err := c.Register(context.Background(), Identity{Email: "bob@example.com"}, key.Public(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	s, err := c.Session(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "12", s.UserID)
	assert.Equal(t, int64(3), s.ClientID)
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway sad", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", nil).Session(context.Background(), "t")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "gateway sad", apiErr.Message)
}

func TestNewHTTPClient(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"session_id":"s"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	caFile := filepath.Join(dir, "ca.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o600))

	hc, err := NewHTTPClient(caFile)
	require.NoError(t, err)
	s, err := New(srv.URL, "k", hc).Session(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "s", s.SessionID)

	_, err = NewHTTPClient(filepath.Join(dir, "missing.pem"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0o600))
	_, err = NewHTTPClient(bad)
	assert.Error(t, err)
}

func TestKeyFile_RoundTrip(t *testing.T) {
	key, _ := zkp.GenerateKey()
	path := filepath.Join(t.TempDir(), "id.json")

	kf := &KeyFile{Username: "alice", PrivateKey: hex.EncodeToString(key.Bytes())}
	require.NoError(t, kf.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, Identity{Username: "alice"}, loaded.Identity())
	got, err := loaded.Key()
	require.NoError(t, err)
	assert.True(t, key.Public().Equal(got.Public()))

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"username":"x"}`), 0o600))
	_, err = LoadKeyFile(empty)
	assert.Error(t, err)
}
