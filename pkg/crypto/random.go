package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// NonceLen is the length of WSC nonces and secret nonces (128 bits).
	NonceLen = 16

	// MaxPSKLen is the largest pre-shared key GeneratePSK produces.
	MaxPSKLen = 1024
)

// GeneratePSK returns length random bytes. length must be in [1, MaxPSKLen].
func GeneratePSK(length int) ([]byte, error) {
	if length <= 0 || length > MaxPSKLen {
		return nil, fmt.Errorf("%w: PSK length %d", ErrInvalidParameters, length)
	}
	psk := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, psk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	return psk, nil
}

// RandomNonce returns a 128-bit nonce read from r.
func RandomNonce(r io.Reader) ([NonceLen]byte, error) {
	var n [NonceLen]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return n, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	return n, nil
}
