package zkp

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Proof is a single login proof: commitment R and response s.
type Proof struct {
	Commitment *Point
	Response   btcec.ModNScalar
}

// ParseProof decodes the wire form of a proof.
func ParseProof(commitment, response []byte) (*Proof, error) {
	r, err := ParsePoint(commitment)
	if err != nil {
		return nil, fmt.Errorf("commitment: %w", err)
	}
	s, err := parseScalar(response)
	if err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}
	return &Proof{Commitment: r, Response: s}, nil
}

// ParseProofHex decodes hex-encoded commitment and response.
func ParseProofHex(commitment, response string) (*Proof, error) {
	c, err := hex.DecodeString(commitment)
	if err != nil {
		return nil, fmt.Errorf("commitment: %w: %v", ErrInvalidPoint, err)
	}
	r, err := hex.DecodeString(response)
	if err != nil {
		return nil, fmt.Errorf("response: %w: %v", ErrInvalidScalar, err)
	}
	return ParseProof(c, r)
}

// CommitmentBytes returns the encoded commitment.
func (p *Proof) CommitmentBytes() []byte {
	return p.Commitment.Bytes()
}

// ResponseBytes returns the 32-byte encoded response.
func (p *Proof) ResponseBytes() []byte {
	b := p.Response.Bytes()
	return b[:]
}

// Verify reports whether proof demonstrates knowledge of the discrete log
// of pub, bound to payload. It never says why a proof was rejected.
//
// Both sides of s·G == R + e·P are always computed and compared in full.
func Verify(pub *Point, proof *Proof, payload []byte) bool {
	if pub == nil || proof == nil || proof.Commitment == nil {
		return false
	}

	e, err := Challenge(proof.Commitment, pub, payload)
	if err != nil {
		return false
	}

	var lhs, ep, rhs btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&proof.Response, &lhs)

	p := pub.jac
	btcec.ScalarMultNonConst(&e, &p, &ep)
	r := proof.Commitment.jac
	btcec.AddNonConst(&r, &ep, &rhs)

	l := affineBytes(&lhs)
	rb := affineBytes(&rhs)
	eq := subtle.ConstantTimeCompare(l[:], rb[:])
	nonZero := subtle.ConstantTimeByteEq(boolByte(proof.Response.IsZero()), 0)
	return eq&nonZero == 1
}

// VerifyEncoded decodes pub and the proof and verifies them. Decoding
// failures are returned as errors so callers can log them; callers must
// treat them exactly like a false result.
func VerifyEncoded(pub, commitment, response, payload []byte) (bool, error) {
	p, err := ParsePoint(pub)
	if err != nil {
		return false, fmt.Errorf("public key: %w", err)
	}
	proof, err := ParseProof(commitment, response)
	if err != nil {
		return false, err
	}
	return Verify(p, proof, payload), nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
