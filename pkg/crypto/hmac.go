package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"hash"
)

// MACTagLen is the number of HMAC-SHA-256 bytes carried on the wire for
// authenticators (64 bits).
const MACTagLen = 8

// HMACSHA256 computes the full HMAC-SHA-256 of message under key.
func HMACSHA256(key, message []byte) [SHA256LenBytes]byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	var result [SHA256LenBytes]byte
	copy(result[:], h.Sum(nil))
	return result
}

// NewHMACSHA256 returns a hash.Hash computing HMAC-SHA-256 incrementally.
func NewHMACSHA256(key []byte) hash.Hash {
	return hmac.New(sha256.New, key)
}

// TruncatedMAC returns the first MACTagLen bytes of HMAC-SHA-256(key, data).
func TruncatedMAC(key, data []byte) [MACTagLen]byte {
	full := HMACSHA256(key, data)
	var tag [MACTagLen]byte
	copy(tag[:], full[:MACTagLen])
	return tag
}

// VerifyMac recomputes HMAC-SHA-256 over data and compares only its first
// 8 bytes against tag, in constant time. The protocol carries 64-bit tags,
// so two full MACs sharing that prefix both verify. A tag of any other
// length never verifies.
func VerifyMac(data, tag, key []byte) bool {
	if len(tag) != MACTagLen {
		return false
	}
	full := HMACSHA256(key, data)
	return subtle.ConstantTimeCompare(full[:MACTagLen], tag) == 1
}

// HMACEqual compares two MACs in constant time.
func HMACEqual(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}
