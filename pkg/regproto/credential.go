package regproto

import (
	"fmt"
	"net"

	"github.com/backkem/wps/pkg/tlv"
)

// Maximum field sizes of a Credential.
const (
	MaxSSIDLen       = 32
	MaxNetworkKeyLen = 64
)

// Credential is the network configuration a registrar hands to an enrollee
// in M8 (or an AP enrollee reports in M7).
type Credential struct {
	NetworkIndex uint8
	SSID         []byte
	AuthType     uint16
	EncrType     uint16
	NetworkKey   []byte
	MACAddress   net.HardwareAddr
}

// Validate checks field sizes.
func (c *Credential) Validate() error {
	if len(c.SSID) == 0 || len(c.SSID) > MaxSSIDLen {
		return fmt.Errorf("%w: SSID length %d", ErrInvalidCredential, len(c.SSID))
	}
	if len(c.NetworkKey) > MaxNetworkKeyLen {
		return fmt.Errorf("%w: network key length %d", ErrInvalidCredential, len(c.NetworkKey))
	}
	if len(c.MACAddress) != MACAddrLen {
		return fmt.Errorf("%w: MAC address length %d", ErrInvalidCredential, len(c.MACAddress))
	}
	return nil
}

// Value encodes the nested attributes carried inside a Credential attribute.
func (c *Credential) Value() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	index := c.NetworkIndex
	if index == 0 {
		index = 1
	}
	return tlv.NewBuilder().
		AddUint8(tlv.AttrNetworkIndex, index).
		AddBytes(tlv.AttrSSID, c.SSID).
		AddUint16(tlv.AttrAuthType, c.AuthType).
		AddUint16(tlv.AttrEncrType, c.EncrType).
		AddBytes(tlv.AttrNetworkKey, c.NetworkKey).
		AddBytes(tlv.AttrMACAddress, c.MACAddress).
		Bytes()
}

// Encode returns the complete Credential attribute.
func (c *Credential) Encode() ([]byte, error) {
	value, err := c.Value()
	if err != nil {
		return nil, err
	}
	return tlv.Encode(tlv.AttrCredential, value)
}

// ParseCredential decodes the value of a Credential attribute.
func ParseCredential(value []byte) (*Credential, error) {
	attrs, err := tlv.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	c := &Credential{NetworkIndex: 1}
	if a, ok := attrs.Get(tlv.AttrNetworkIndex); ok {
		if c.NetworkIndex, err = a.Uint8(); err != nil {
			return nil, fmt.Errorf("%w: network index", ErrInvalidCredential)
		}
	}
	ssid, err := attrs.Value(tlv.AttrSSID)
	if err != nil {
		return nil, fmt.Errorf("%w: SSID", ErrInvalidCredential)
	}
	c.SSID = append([]byte(nil), ssid...)

	auth, ok := attrs.Get(tlv.AttrAuthType)
	if !ok {
		return nil, fmt.Errorf("%w: authentication type", ErrInvalidCredential)
	}
	if c.AuthType, err = auth.Uint16(); err != nil {
		return nil, fmt.Errorf("%w: authentication type", ErrInvalidCredential)
	}
	encr, ok := attrs.Get(tlv.AttrEncrType)
	if !ok {
		return nil, fmt.Errorf("%w: encryption type", ErrInvalidCredential)
	}
	if c.EncrType, err = encr.Uint16(); err != nil {
		return nil, fmt.Errorf("%w: encryption type", ErrInvalidCredential)
	}

	if key, err := attrs.Value(tlv.AttrNetworkKey); err == nil {
		c.NetworkKey = append([]byte(nil), key...)
	}
	mac, err := attrs.Fixed(tlv.AttrMACAddress, MACAddrLen)
	if err != nil {
		return nil, fmt.Errorf("%w: MAC address", ErrInvalidCredential)
	}
	c.MACAddress = append(net.HardwareAddr(nil), mac...)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
