package zkp

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

const (
	// PointSize is the length of a compressed point encoding.
	PointSize = btcec.PubKeyBytesLenCompressed
	// ScalarSize is the length of an encoded scalar.
	ScalarSize = 32
)

var (
	ErrInvalidPoint  = errors.New("zkp: invalid curve point")
	ErrInvalidScalar = errors.New("zkp: invalid scalar")
)

// Point is a validated, non-identity point on secp256k1.
type Point struct {
	jac btcec.JacobianPoint
	enc [PointSize]byte
}

// ParsePoint decodes a 33-byte compressed point. The identity and points
// off the curve are rejected.
func ParsePoint(b []byte) (*Point, error) {
	if len(b) != PointSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPoint, PointSize, len(b))
	}
	if b[0] != 0x02 && b[0] != 0x03 {
		return nil, fmt.Errorf("%w: bad prefix 0x%02x", ErrInvalidPoint, b[0])
	}
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return newPoint(pub), nil
}

// ParsePointHex decodes a hex-encoded compressed point.
func ParsePointHex(s string) (*Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return ParsePoint(b)
}

func newPoint(pub *btcec.PublicKey) *Point {
	p := &Point{}
	pub.AsJacobian(&p.jac)
	copy(p.enc[:], pub.SerializeCompressed())
	return p
}

// pointFromJacobian converts an arithmetic result into a Point, failing for
// the identity.
func pointFromJacobian(j *btcec.JacobianPoint) (*Point, error) {
	if isInfinity(j) {
		return nil, ErrInvalidPoint
	}
	j.ToAffine()
	return newPoint(btcec.NewPublicKey(&j.X, &j.Y)), nil
}

// Bytes returns the compressed encoding.
func (p *Point) Bytes() []byte {
	out := make([]byte, PointSize)
	copy(out, p.enc[:])
	return out
}

// String returns the hex compressed encoding.
func (p *Point) String() string {
	return hex.EncodeToString(p.enc[:])
}

// Equal reports whether both points have the same encoding.
func (p *Point) Equal(o *Point) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.enc == o.enc
}

// parseScalar decodes a 32-byte scalar in [1, n).
func parseScalar(b []byte) (btcec.ModNScalar, error) {
	var s btcec.ModNScalar
	if len(b) != ScalarSize {
		return s, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidScalar, ScalarSize, len(b))
	}
	if overflow := s.SetByteSlice(b); overflow {
		return s, fmt.Errorf("%w: not below the group order", ErrInvalidScalar)
	}
	if s.IsZero() {
		return s, fmt.Errorf("%w: zero", ErrInvalidScalar)
	}
	return s, nil
}

func isInfinity(j *btcec.JacobianPoint) bool {
	j.X.Normalize()
	j.Y.Normalize()
	j.Z.Normalize()
	return (j.X.IsZero() && j.Y.IsZero()) || j.Z.IsZero()
}

// affineBytes encodes j as 0x04||X||Y, or all zeroes for the identity, so
// two points can be compared with a single constant-time comparison.
func affineBytes(j *btcec.JacobianPoint) [1 + 2*32]byte {
	var out [1 + 2*32]byte
	if isInfinity(j) {
		return out
	}
	j.ToAffine()
	out[0] = 0x04
	j.X.PutBytesUnchecked(out[1:33])
	j.Y.PutBytesUnchecked(out[33:65])
	return out
}
