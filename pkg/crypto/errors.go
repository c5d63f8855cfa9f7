package crypto

import "errors"

// Crypto package errors.
var (
	// ErrCrypto is returned when key generation, hashing or cipher setup
	// fails. It is fatal to the current registration attempt only.
	ErrCrypto = errors.New("crypto: operation failed")

	// ErrEncodingTooLarge is returned when a big integer does not fit the
	// fixed key width.
	ErrEncodingTooLarge = errors.New("crypto: value too large for key encoding")

	// ErrInsufficientMaterial is returned when the key derivation function
	// cannot produce the requested number of bits.
	ErrInsufficientMaterial = errors.New("crypto: insufficient key material")

	// ErrMalformedCiphertext is returned when a ciphertext is not a whole
	// number of blocks or its padding is invalid.
	ErrMalformedCiphertext = errors.New("crypto: malformed ciphertext")

	// ErrInvalidParameters is returned on a caller contract violation.
	ErrInvalidParameters = errors.New("crypto: invalid parameters")

	// ErrInvalidPublicKey is returned when a peer public value is outside (1, P-1).
	ErrInvalidPublicKey = errors.New("crypto: invalid public key")

	// ErrInvalidPrivateKey is returned when a supplied private exponent is degenerate.
	ErrInvalidPrivateKey = errors.New("crypto: invalid private key")
)
