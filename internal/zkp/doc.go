// Package zkp implements the passwordless login proof: a non-interactive
// Schnorr proof of knowledge of the discrete logarithm of a secp256k1 public
// key, made non-interactive with the Fiat–Shamir transform.
//
// A prover holding d with P = d·G picks a fresh nonce k and publishes
//
//	R = k·G
//	e = SHA-256(transcript(R, P, payload)) mod n
//	s = k + e·d mod n
//
// The verifier accepts (R, s) for P and payload iff s·G == R + e·P.
//
// Points travel as 33-byte SEC1 compressed encodings, scalars as 32-byte
// big-endian values strictly inside (0, n).
package zkp
