package registration

import (
	"crypto/rand"
	"fmt"
	"io"
	"net"

	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/regproto"
	"github.com/google/uuid"
	"github.com/pion/logging"
)

// DeviceInfo describes the local device in M1 and M2.
type DeviceInfo struct {
	Manufacturer      string
	ModelName         string
	ModelNumber       string
	SerialNumber      string
	DeviceName        string
	PrimaryDeviceType [8]byte
	ConfigMethods     uint16
	RFBands           uint8
	OSVersion         uint32
}

// Config configures an Enrollee or a Registrar.
type Config struct {
	// UUID is UUID-E for an enrollee and UUID-R for a registrar.
	UUID uuid.UUID

	// MACAddress is the enrollee's MAC address. Required for enrollees.
	MACAddress net.HardwareAddr

	Device DeviceInfo

	// Password is the device password: a PIN, the push-button password or
	// the password of an OOB token.
	Password   []byte
	PasswordID regproto.DevicePasswordID

	// Credential is handed to the enrollee in M8 (registrar), or reported
	// as the current AP configuration in M7 (AP enrollee).
	Credential *regproto.Credential

	// PrivateKey, when set, is the encoded DH private key to use instead of
	// a fresh one. An OOB token issuer must reuse the key it advertised.
	PrivateKey []byte

	// PeerPublicKeyHash, when set, must match the hash of the peer's DH
	// public key (OOB password tokens).
	PeerPublicKeyHash []byte

	// Rand is the random source for nonces and keys. Defaults to crypto/rand.
	Rand io.Reader

	LoggerFactory logging.LoggerFactory
}

func (c *Config) validate(role Role) error {
	if len(c.Password) == 0 {
		return fmt.Errorf("%w: empty device password", ErrInvalidConfig)
	}
	if role == RoleEnrollee && len(c.MACAddress) != regproto.MACAddrLen {
		return fmt.Errorf("%w: MAC address length %d", ErrInvalidConfig, len(c.MACAddress))
	}
	if c.PeerPublicKeyHash != nil && len(c.PeerPublicKeyHash) != crypto.PubKeyHashLen {
		return fmt.Errorf("%w: public key hash length %d", ErrInvalidConfig, len(c.PeerPublicKeyHash))
	}
	if c.Credential != nil {
		if err := c.Credential.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c *Config) random() io.Reader {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.Reader
}

// keyPair returns the prebuilt key pair or a fresh one.
func (c *Config) keyPair() (*crypto.KeyPair, error) {
	if c.PrivateKey != nil {
		return crypto.GeneratePrebuiltDHKeyPair(c.PrivateKey)
	}
	return crypto.GenerateDHKeyPairFrom(c.random())
}

// PeerInfo is what a session learned about the other side from M1 or M2.
type PeerInfo struct {
	UUID       uuid.UUID
	MACAddress net.HardwareAddr
	DeviceName string
	PasswordID regproto.DevicePasswordID
}
