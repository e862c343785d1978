// Package common holds the sentinel errors shared by the repositories,
// services and HTTP handlers.
package common

import "errors"

var (
	// storage errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnknownRole   = errors.New("unknown role")

	// request shape errors
	ErrInvalidRequest    = errors.New("invalid request")
	ErrMissingIdentifier = errors.New("username or email is required")
	ErrInvalidPublicKey  = errors.New("invalid public key")

	// client bearer errors
	ErrMalformedCredential = errors.New("malformed credential")

	// login errors; every one of these is reported to the caller as ErrUnauthenticated
	ErrUnauthenticated = errors.New("authentication failed")
	ErrAccountNotFound = errors.New("account not found")
	ErrMalformedProof  = errors.New("malformed proof")
	ErrInvalidProof    = errors.New("invalid proof")
	ErrProofReplayed   = errors.New("proof already used")

	// session errors
	ErrInvalidSession = errors.New("invalid session")

	// server-side faults, never detailed to the caller
	ErrCorruptKeyRecord = errors.New("corrupt key record")
	ErrStoreUnavailable = errors.New("store unavailable")
)
