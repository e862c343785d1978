package zkp

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/cryptobyte"
)

// challengeDomain separates login challenges from any other use of the
// same hash over curve points.
const challengeDomain = "zkauth/v1/login"

// Transcript returns the exact bytes hashed into the challenge:
//
//	u8 len || domain || R (33) || P (33) || u32 len || payload
func Transcript(commitment, pub *Point, payload []byte) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes([]byte(challengeDomain))
	})
	b.AddBytes(commitment.enc[:])
	b.AddBytes(pub.enc[:])
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(payload)
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("build transcript: %w", err)
	}
	return out, nil
}

// Challenge derives e = SHA-256(Transcript(R, P, payload)) mod n.
func Challenge(commitment, pub *Point, payload []byte) (btcec.ModNScalar, error) {
	var e btcec.ModNScalar
	t, err := Transcript(commitment, pub, payload)
	if err != nil {
		return e, err
	}
	h := sha256.Sum256(t)
	// SetByteSlice reduces modulo n; the overflow flag is irrelevant here.
	e.SetByteSlice(h[:])
	return e, nil
}
