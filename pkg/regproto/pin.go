package regproto

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/backkem/wps/pkg/crypto"
)

// PSKLen is the length of PSK1 and PSK2 (first 128 bits of the HMAC).
const PSKLen = 16

// PBCPassword is the device password used for push-button configuration.
const PBCPassword = "00000000"

// ComputePINChecksum returns the checksum digit for the first seven digits
// of an eight digit PIN.
func ComputePINChecksum(pin uint32) uint32 {
	var accum uint32
	for i, weight := 0, uint32(3); i < 7; i++ {
		accum += weight * (pin % 10)
		pin /= 10
		if weight == 3 {
			weight = 1
		} else {
			weight = 3
		}
	}
	return (10 - accum%10) % 10
}

// ValidatePIN accepts a four digit PIN or an eight digit PIN whose last
// digit is the checksum of the first seven.
func ValidatePIN(pin string) error {
	if len(pin) != 4 && len(pin) != 8 {
		return fmt.Errorf("%w: length %d", ErrInvalidPIN, len(pin))
	}
	var v uint32
	for _, c := range pin {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: non-digit %q", ErrInvalidPIN, c)
		}
		v = v*10 + uint32(c-'0')
	}
	if len(pin) == 8 && ComputePINChecksum(v/10) != v%10 {
		return fmt.Errorf("%w: checksum", ErrInvalidPIN)
	}
	return nil
}

// GeneratePIN returns a random eight digit PIN with a valid checksum.
func GeneratePIN(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return "", fmt.Errorf("%w: %w", crypto.ErrCrypto, err)
	}
	v := binary.BigEndian.Uint32(b[:]) % 10000000
	return fmt.Sprintf("%07d%d", v, ComputePINChecksum(v)), nil
}

// PSKHalves splits the device password and returns
//
//	PSK1 = first 128 bits of HMAC(AuthKey, first half)
//	PSK2 = first 128 bits of HMAC(AuthKey, second half)
//
// For odd lengths the first half takes the extra byte.
func PSKHalves(authKey, password []byte) (psk1, psk2 [PSKLen]byte) {
	half := (len(password) + 1) / 2
	h1 := crypto.HMACSHA256(authKey, password[:half])
	h2 := crypto.HMACSHA256(authKey, password[half:])
	copy(psk1[:], h1[:PSKLen])
	copy(psk2[:], h2[:PSKLen])
	return psk1, psk2
}

// ComputePINHash returns the E-Hash/R-Hash commitment
//
//	HMAC(AuthKey, S || PSK || PKE || PKR)
//
// for a secret nonce S and one PSK half.
func ComputePINHash(authKey []byte, secretNonce Nonce, psk [PSKLen]byte, pke, pkr []byte) [crypto.SHA256LenBytes]byte {
	h := crypto.NewHMACSHA256(authKey)
	h.Write(secretNonce[:])
	h.Write(psk[:])
	h.Write(pke)
	h.Write(pkr)
	var out [crypto.SHA256LenBytes]byte
	copy(out[:], h.Sum(nil))
	return out
}

// VerifyPINHash recomputes a commitment from a revealed secret nonce and
// compares it with the committed hash.
func VerifyPINHash(authKey []byte, secretNonce Nonce, psk [PSKLen]byte, pke, pkr, committed []byte) error {
	got := ComputePINHash(authKey, secretNonce, psk, pke, pkr)
	if len(committed) != len(got) || !crypto.HMACEqual(got[:], committed) {
		return ErrHashMismatch
	}
	return nil
}
