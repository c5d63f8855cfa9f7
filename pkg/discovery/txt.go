// Package discovery advertises and browses the registration service of
// access points over DNS-SD (mDNS), so external registrars on the LAN can
// find the device and the UDP port of its registration proxy.
//
// Service type: _wsc._udp.local.
package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DNS-SD service constants.
const (
	// ServiceWSC is the DNS-SD service type of the registration proxy.
	ServiceWSC = "_wsc._udp"

	// DefaultDomain is the default mDNS domain.
	DefaultDomain = "local."
)

// TXT record keys.
const (
	TXTKeyUUID          = "uuid"
	TXTKeyDeviceName    = "name"
	TXTKeyState         = "state"
	TXTKeyConfigMethods = "cm"
)

// MaxDeviceNameLen matches the Device Name attribute limit.
const MaxDeviceNameLen = 32

// Values of the state key.
const (
	StateNotConfigured uint8 = 0x01
	StateConfigured    uint8 = 0x02
)

// RegistrarTXT is the TXT content of an advertised registration service.
type RegistrarTXT struct {
	UUID          uuid.UUID
	DeviceName    string
	State         uint8
	ConfigMethods uint16
}

// Validate checks the fields that Encode cannot represent.
func (t *RegistrarTXT) Validate() error {
	if t.DeviceName == "" || len(t.DeviceName) > MaxDeviceNameLen {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceName, t.DeviceName)
	}
	if t.State != StateNotConfigured && t.State != StateConfigured {
		return fmt.Errorf("%w: state %d", ErrInvalidTXTRecord, t.State)
	}
	return nil
}

// Encode returns the TXT strings. The config methods key is omitted when
// zero.
func (t *RegistrarTXT) Encode() []string {
	txt := []string{
		TXTKeyUUID + "=" + t.UUID.String(),
		TXTKeyDeviceName + "=" + t.DeviceName,
		TXTKeyState + "=" + strconv.Itoa(int(t.State)),
	}
	if t.ConfigMethods != 0 {
		txt = append(txt, fmt.Sprintf("%s=0x%04x", TXTKeyConfigMethods, t.ConfigMethods))
	}
	return txt
}

// Configured reports whether the device advertises a configured network.
func (t *RegistrarTXT) Configured() bool {
	return t.State == StateConfigured
}

// ParseTXT splits TXT strings into a key/value map. Strings without "="
// map to an empty value.
func ParseTXT(records []string) map[string]string {
	m := make(map[string]string, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		if k != "" {
			m[k] = v
		}
	}
	return m
}

// ParseRegistrarTXT decodes the TXT strings of a registration service.
func ParseRegistrarTXT(records []string) (*RegistrarTXT, error) {
	m := ParseTXT(records)
	var t RegistrarTXT

	id, ok := m[TXTKeyUUID]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidTXTRecord, TXTKeyUUID)
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTXTRecord, TXTKeyUUID, err)
	}
	t.UUID = u

	t.DeviceName = m[TXTKeyDeviceName]

	state, err := strconv.ParseUint(m[TXTKeyState], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTXTRecord, TXTKeyState, err)
	}
	t.State = uint8(state)

	if cm, ok := m[TXTKeyConfigMethods]; ok {
		v, err := strconv.ParseUint(cm, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTXTRecord, TXTKeyConfigMethods, err)
		}
		t.ConfigMethods = uint16(v)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
