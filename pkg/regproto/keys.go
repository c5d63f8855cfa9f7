package regproto

import (
	"fmt"

	"github.com/backkem/wps/pkg/crypto"
)

// KDFPersonalization is the context string of the session key derivation.
const KDFPersonalization = "Wi-Fi Easy and Secure Key Derivation"

// Session key sizes.
const (
	AuthKeyLen    = 32
	KeyWrapKeyLen = crypto.AESKeySize
	EMSKLen       = 32

	// sessionKeyBits is the total derived length: AuthKey || KeyWrapKey || EMSK.
	sessionKeyBits = (AuthKeyLen + KeyWrapKeyLen + EMSKLen) * 8
)

// MACAddrLen is the length of an 802.11 MAC address.
const MACAddrLen = 6

// SessionKeys holds the keys derived for one registration run.
type SessionKeys struct {
	AuthKey    [AuthKeyLen]byte
	KeyWrapKey [KeyWrapKeyLen]byte
	EMSK       [EMSKLen]byte
}

// DeriveSessionKeys derives the session keys from the DH key:
//
//	KDK = HMAC-SHA-256(DHKey, N1 || EnrolleeMAC || N2)
//	AuthKey || KeyWrapKey || EMSK = kdf(KDK, personalization, 640)
func DeriveSessionKeys(dhKey []byte, enrolleeNonce Nonce, enrolleeMAC []byte, registrarNonce Nonce) (*SessionKeys, error) {
	if len(dhKey) != crypto.SHA256LenBytes || len(enrolleeMAC) != MACAddrLen {
		return nil, ErrInvalidParameters
	}

	h := crypto.NewHMACSHA256(dhKey)
	h.Write(enrolleeNonce[:])
	h.Write(enrolleeMAC)
	h.Write(registrarNonce[:])
	kdk := h.Sum(nil)
	defer clear(kdk)

	material, err := crypto.DeriveKey(kdk, KDFPersonalization, sessionKeyBits)
	if err != nil {
		return nil, fmt.Errorf("derive session keys: %w", err)
	}
	defer clear(material)

	keys := &SessionKeys{}
	copy(keys.AuthKey[:], material[:AuthKeyLen])
	copy(keys.KeyWrapKey[:], material[AuthKeyLen:AuthKeyLen+KeyWrapKeyLen])
	copy(keys.EMSK[:], material[AuthKeyLen+KeyWrapKeyLen:])
	return keys, nil
}

// Zeroize clears all key material.
func (k *SessionKeys) Zeroize() {
	if k == nil {
		return
	}
	clear(k.AuthKey[:])
	clear(k.KeyWrapKey[:])
	clear(k.EMSK[:])
}
