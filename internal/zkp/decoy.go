package zkp

import (
	"crypto/sha256"
)

// Decoy returns a fixed public key and a fixed well-formed proof that does
// not verify against it. Running Verify on them costs the same as a real
// verification, which lets a caller that has no account or no decodable
// proof still spend one full verification before rejecting.
func Decoy() (*Point, *Proof) {
	d := sha256.Sum256([]byte("zkauth/v1/decoy-key"))
	key, err := ParsePrivateKey(d[:])
	if err != nil {
		// The digest above is a fixed value inside [1, n).
		panic("zkp: decoy key: " + err.Error())
	}
	r := sha256.Sum256([]byte("zkauth/v1/decoy-response"))
	s, err := parseScalar(r[:])
	if err != nil {
		panic("zkp: decoy response: " + err.Error())
	}
	return key.Public(), &Proof{Commitment: key.Public(), Response: s}
}
