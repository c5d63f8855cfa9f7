// Package crypto provides the cryptographic primitives of the Wi-Fi Simple
// Configuration registration protocol.
//
// Every function in this package is a pure function of its arguments; the
// package holds no mutable state and is safe for concurrent use.
package crypto

import (
	"crypto/sha256"
	"hash"
)

// SHA-256 sizes.
const (
	// SHA256LenBits is the SHA-256 output length in bits.
	SHA256LenBits = 256

	// SHA256LenBytes is the SHA-256 output length in bytes.
	SHA256LenBytes = 32

	// PubKeyHashLen is the length of the truncated public key hash used as a
	// short key identifier (160 bits).
	PubKeyHashLen = 20
)

// ComputeHash returns the SHA-256 digest of b.
//
// Hashing cannot fail in Go, so there is no error path here; callers that
// build on it still propagate every other crypto failure.
func ComputeHash(b []byte) [SHA256LenBytes]byte {
	return sha256.Sum256(b)
}

// NewSHA256 returns a new hash.Hash for incremental SHA-256.
func NewSHA256() hash.Hash {
	return sha256.New()
}

// PublicKeyHash returns the first 160 bits of SHA-256(pub).
func PublicKeyHash(pub []byte) [PubKeyHashLen]byte {
	sum := sha256.Sum256(pub)
	var out [PubKeyHashLen]byte
	copy(out[:], sum[:PubKeyHashLen])
	return out
}
