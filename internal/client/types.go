package client

import "time"

type registerRequest struct {
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	PublicKey string   `json:"public_key"`
	Roles     []string `json:"roles,omitempty"`
}

type loginRequest struct {
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	Commitment string `json:"commitment"`
	Response   string `json:"response"`
	Payload    string `json:"payload"`
}

// LoginResponse is the session returned by a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
}

// SessionResponse describes a live session.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ClientID  int64     `json:"client_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
