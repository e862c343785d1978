// Package client is an HTTP client for the authentication API. Proofs are
// built locally; the private key never leaves the process.
package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/atinyakov/zkauth/internal/zkp"
)

const (
	apiUsers   = "/api/v1/users"
	apiLogin   = "/api/v1/login"
	apiSession = "/api/v1/session"

	sessionHeader = "X-Session-Token"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client calls the API on behalf of one client application.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Client for baseURL authenticating with apiKey. A nil hc
// means http.DefaultClient.
func New(baseURL, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: hc}
}

// Identity names a user by username or email.
type Identity struct {
	Username string
	Email    string
}

// Register creates a user holding pub and returns its id.
func (c *Client) Register(ctx context.Context, id Identity, pub *zkp.Point, roles []string) (int64, error) {
	var out map[string]int64
	err := c.do(ctx, http.MethodPost, apiUsers, registerRequest{
		Username:  id.Username,
		Email:     id.Email,
		PublicKey: pub.String(),
		Roles:     roles,
	}, nil, &out)
	if err != nil {
		return 0, err
	}
	return out["user_id"], nil
}

// Login proves possession of key bound to payload and returns the session.
func (c *Client) Login(ctx context.Context, id Identity, key *zkp.PrivateKey, payload string) (*LoginResponse, error) {
	proof, err := zkp.Prove(key, []byte(payload), nil)
	if err != nil {
		return nil, fmt.Errorf("build proof: %w", err)
	}

	var out LoginResponse
	err = c.do(ctx, http.MethodPost, apiLogin, loginRequest{
		Username:   id.Username,
		Email:      id.Email,
		Commitment: hex.EncodeToString(proof.CommitmentBytes()),
		Response:   hex.EncodeToString(proof.ResponseBytes()),
		Payload:    payload,
	}, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Session describes the session behind token.
func (c *Client) Session(ctx context.Context, token string) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodGet, apiSession, nil, map[string]string{sessionHeader: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, headers map[string]string, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e map[string]string
		data, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e["error"] != "" {
			msg = e["error"]
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
