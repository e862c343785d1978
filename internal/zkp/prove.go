package zkp

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// maxNonceAttempts bounds rejection sampling; a uniform 32-byte string is
// outside [1, n) with probability about 2^-128.
const maxNonceAttempts = 16

// PrivateKey is a secp256k1 private scalar with its public point.
type PrivateKey struct {
	d   btcec.ModNScalar
	pub *Point
}

// GenerateKey creates a private key from crypto/rand.
func GenerateKey() (*PrivateKey, error) {
	return GenerateKeyFrom(rand.Reader)
}

// GenerateKeyFrom creates a private key from the given randomness source.
func GenerateKeyFrom(r io.Reader) (*PrivateKey, error) {
	d, err := randomScalar(r)
	if err != nil {
		return nil, err
	}
	return newPrivateKey(d)
}

// ParsePrivateKey decodes a 32-byte private scalar.
func ParsePrivateKey(b []byte) (*PrivateKey, error) {
	d, err := parseScalar(b)
	if err != nil {
		return nil, err
	}
	return newPrivateKey(d)
}

// ParsePrivateKeyHex decodes a hex-encoded private scalar.
func ParsePrivateKeyHex(s string) (*PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	return ParsePrivateKey(b)
}

func newPrivateKey(d btcec.ModNScalar) (*PrivateKey, error) {
	var j btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&d, &j)
	pub, err := pointFromJacobian(&j)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{d: d, pub: pub}, nil
}

// Public returns the public point d·G.
func (k *PrivateKey) Public() *Point {
	return k.pub
}

// Bytes returns the 32-byte private scalar.
func (k *PrivateKey) Bytes() []byte {
	b := k.d.Bytes()
	return b[:]
}

// Prove builds a proof of knowledge of k bound to payload, drawing the nonce
// from rnd (crypto/rand when nil). A nonce must never be reused.
func Prove(k *PrivateKey, payload []byte, rnd io.Reader) (*Proof, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	for i := 0; i < maxNonceAttempts; i++ {
		nonce, err := randomScalar(rnd)
		if err != nil {
			return nil, err
		}

		var rj btcec.JacobianPoint
		btcec.ScalarBaseMultNonConst(&nonce, &rj)
		commitment, err := pointFromJacobian(&rj)
		if err != nil {
			continue
		}

		e, err := Challenge(commitment, k.pub, payload)
		if err != nil {
			return nil, err
		}

		var s btcec.ModNScalar
		s.Mul2(&e, &k.d).Add(&nonce)
		nonce.Zero()
		if s.IsZero() {
			continue
		}
		return &Proof{Commitment: commitment, Response: s}, nil
	}
	return nil, errors.New("zkp: could not derive a proof nonce")
}

func randomScalar(r io.Reader) (btcec.ModNScalar, error) {
	var buf [ScalarSize]byte
	for i := 0; i < maxNonceAttempts; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return btcec.ModNScalar{}, fmt.Errorf("zkp: read randomness: %w", err)
		}
		s, err := parseScalar(buf[:])
		if err == nil {
			return s, nil
		}
	}
	return btcec.ModNScalar{}, errors.New("zkp: randomness source keeps producing invalid scalars")
}
