package regproto

import (
	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/tlv"
)

// ComputeAuthenticator returns the 64-bit authenticator of the current
// message: the truncated HMAC-SHA-256 under authKey of the previous message
// followed by the current message without its Authenticator attribute.
func ComputeAuthenticator(authKey, prev, curr []byte) [crypto.MACTagLen]byte {
	data := make([]byte, 0, len(prev)+len(curr))
	data = append(data, prev...)
	data = append(data, curr...)
	return crypto.TruncatedMAC(authKey, data)
}

// AppendAuthenticator appends the Authenticator attribute to curr.
func AppendAuthenticator(authKey, prev, curr []byte) ([]byte, error) {
	tag := ComputeAuthenticator(authKey, prev, curr)
	attr, err := tlv.Encode(tlv.AttrAuthenticator, tag[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(curr)+len(attr))
	out = append(out, curr...)
	return append(out, attr...), nil
}

// VerifyAuthenticator checks the Authenticator attribute, which must be the
// last attribute of curr, against prev and the rest of curr. The cursor of
// curr is restored.
func VerifyAuthenticator(authKey, prev []byte, curr *tlv.Buffer) error {
	if curr == nil {
		return ErrInvalidParameters
	}
	offset, last, err := lastAttribute(curr)
	if err != nil {
		return err
	}
	if last.Type != tlv.AttrAuthenticator {
		return ErrRequiredAttributeMissing
	}
	if len(last.Value) != crypto.MACTagLen {
		return ErrInvalidParameters
	}

	data := make([]byte, 0, len(prev)+offset)
	data = append(data, prev...)
	data = append(data, curr.Bytes()[:offset]...)
	if !crypto.VerifyMac(data, last.Value, authKey) {
		return ErrAuthenticatorMismatch
	}
	return nil
}
