package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// KDFMaxIterations bounds the number of PRF iterations DeriveKey runs, so the
// largest derivable key is SHA256LenBits*KDFMaxIterations bits.
const KDFMaxIterations = 8

// KDFMaxBits is the largest request DeriveKey can satisfy.
const KDFMaxBits = SHA256LenBits * KDFMaxIterations

// DeriveKey implements the WSC key derivation function:
//
//	for i = 1..ceil(bits/256):
//	    out ||= HMAC-SHA-256(secret, i || context || bits)
//
// with i and bits encoded as 32-bit big-endian integers. The concatenation is
// truncated to exactly ceil(bits/8) bytes. Requests the PRF cannot cover fail
// with ErrInsufficientMaterial; the output is never padded.
func DeriveKey(secret []byte, context string, bits int) ([]byte, error) {
	if bits <= 0 {
		return nil, fmt.Errorf("%w: key length %d bits", ErrInvalidParameters, bits)
	}

	iterations := (bits + SHA256LenBits - 1) / SHA256LenBits
	if iterations > KDFMaxIterations {
		return nil, fmt.Errorf("%w: %d bits requested, at most %d", ErrInsufficientMaterial, bits, KDFMaxBits)
	}

	var (
		counter [4]byte
		length  [4]byte
	)
	binary.BigEndian.PutUint32(length[:], uint32(bits))

	out := make([]byte, 0, iterations*SHA256LenBytes)
	for i := 1; i <= iterations; i++ {
		binary.BigEndian.PutUint32(counter[:], uint32(i))
		h := hmac.New(sha256.New, secret)
		h.Write(counter[:])
		h.Write([]byte(context))
		h.Write(length[:])
		out = h.Sum(out)
	}

	n := (bits + 7) / 8
	if len(out) < n {
		return nil, ErrInsufficientMaterial
	}
	return out[:n], nil
}
