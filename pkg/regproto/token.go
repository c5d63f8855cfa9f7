package regproto

import (
	"encoding/binary"
	"fmt"

	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/tlv"
)

// Device password length bounds for OOB tokens.
const (
	MinTokenPasswordLen = 16
	MaxTokenPasswordLen = 32
)

// PasswordToken is an OOB device password (NFC password token). It binds a
// device password to the hash of the DH public key the issuer will use.
type PasswordToken struct {
	PublicKeyHash [crypto.PubKeyHashLen]byte
	PasswordID    DevicePasswordID
	Password      []byte
}

// NewPasswordToken generates a key pair and a random device password and
// returns the token advertising them together with the encoded private key.
// The issuer must run its registration with that private key (see
// crypto.GeneratePrebuiltDHKeyPair) so the peer's hash check passes.
func NewPasswordToken(id DevicePasswordID) (*PasswordToken, []byte, error) {
	if id < PasswordIDOOBMin {
		return nil, nil, fmt.Errorf("%w: password id 0x%04X", ErrInvalidToken, uint16(id))
	}
	password, err := crypto.GeneratePSK(MinTokenPasswordLen)
	if err != nil {
		return nil, nil, err
	}
	priv, hash, err := crypto.DerivePrivateKeyAndHash()
	if err != nil {
		clear(password)
		return nil, nil, err
	}
	return &PasswordToken{PublicKeyHash: hash, PasswordID: id, Password: password}, priv, nil
}

// Encode returns the token payload: Version followed by the OOB Device
// Password attribute.
func (t *PasswordToken) Encode() ([]byte, error) {
	if len(t.Password) < MinTokenPasswordLen || len(t.Password) > MaxTokenPasswordLen {
		return nil, ErrInvalidToken
	}
	value := make([]byte, 0, crypto.PubKeyHashLen+2+len(t.Password))
	value = append(value, t.PublicKeyHash[:]...)
	value = binary.BigEndian.AppendUint16(value, uint16(t.PasswordID))
	value = append(value, t.Password...)

	return tlv.NewBuilder().
		AddUint8(tlv.AttrVersion, tlv.Version10).
		AddBytes(tlv.AttrOOBDevicePassword, value).
		Bytes()
}

// ParsePasswordToken decodes a token payload.
func ParsePasswordToken(b []byte) (*PasswordToken, error) {
	attrs, err := tlv.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	value, err := attrs.Value(tlv.AttrOOBDevicePassword)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	pwLen := len(value) - crypto.PubKeyHashLen - 2
	if pwLen < MinTokenPasswordLen || pwLen > MaxTokenPasswordLen {
		return nil, ErrInvalidToken
	}

	t := &PasswordToken{}
	copy(t.PublicKeyHash[:], value[:crypto.PubKeyHashLen])
	t.PasswordID = DevicePasswordID(binary.BigEndian.Uint16(value[crypto.PubKeyHashLen:]))
	t.Password = append([]byte(nil), value[crypto.PubKeyHashLen+2:]...)
	if t.PasswordID < PasswordIDOOBMin {
		return nil, ErrInvalidToken
	}
	return t, nil
}

// MatchesPublicKey reports whether pub hashes to the token's key hash.
func (t *PasswordToken) MatchesPublicKey(pub []byte) bool {
	h := crypto.PublicKeyHash(pub)
	return crypto.HMACEqual(h[:], t.PublicKeyHash[:])
}
