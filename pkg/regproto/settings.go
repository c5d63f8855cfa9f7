package regproto

import (
	"fmt"

	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/tlv"
)

// EncryptSettings builds the value of an Encrypted Settings attribute:
// settings followed by a Key Wrap Authenticator, AES-128-CBC encrypted under
// keyWrapKey and prefixed with the random IV.
func EncryptSettings(authKey, keyWrapKey, settings []byte) ([]byte, error) {
	kwa := crypto.TruncatedMAC(authKey, settings)
	kwaAttr, err := tlv.Encode(tlv.AttrKeyWrapAuthenticator, kwa[:])
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, 0, len(settings)+len(kwaAttr))
	plaintext = append(plaintext, settings...)
	plaintext = append(plaintext, kwaAttr...)
	defer clear(plaintext)

	iv, ciphertext, err := crypto.Encrypt(plaintext, keyWrapKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt settings: %w", err)
	}
	return append(iv, ciphertext...), nil
}

// DecryptSettings decrypts the value of an Encrypted Settings attribute,
// verifies its Key Wrap Authenticator and returns the settings attributes.
// The returned buffer is truncated to drop the authenticator and its cursor
// is at the start.
func DecryptSettings(authKey, keyWrapKey, value []byte) (*tlv.Buffer, error) {
	if len(value) < 2*crypto.AESBlockSize {
		return nil, crypto.ErrMalformedCiphertext
	}
	iv := value[:crypto.AESBlockSize]
	plaintext, err := crypto.Decrypt(value[crypto.AESBlockSize:], iv, keyWrapKey)
	if err != nil {
		return nil, fmt.Errorf("decrypt settings: %w", err)
	}

	buf := tlv.NewBufferFrom(plaintext)
	clear(plaintext)

	offset, last, err := lastAttribute(buf)
	if err != nil {
		return nil, err
	}
	if last.Type != tlv.AttrKeyWrapAuthenticator {
		return nil, ErrRequiredAttributeMissing
	}
	if !crypto.VerifyMac(buf.Bytes()[:offset], last.Value, authKey) {
		return nil, ErrKeyWrapMismatch
	}

	buf.RewindLength(offset)
	buf.Rewind()
	return buf, nil
}
