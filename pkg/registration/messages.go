package registration

import (
	"fmt"
	"io"

	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/regproto"
	"github.com/backkem/wps/pkg/tlv"
	"github.com/pion/logging"
)

// Connection type flags advertised in M1 and M2.
const connTypeESS uint8 = 0x01

// exchange is the state shared by both roles.
type exchange struct {
	cfg  Config
	rand io.Reader
	log  logging.LeveledLogger

	keyPair        *crypto.KeyPair
	enrolleeNonce  regproto.Nonce
	registrarNonce regproto.Nonce
	pke, pkr       []byte

	keys       *regproto.SessionKeys
	psk1, psk2 [regproto.PSKLen]byte

	// prev is the previous message of the exchange, in either direction,
	// as covered by the next authenticator.
	prev []byte

	peer        PeerInfo
	peerCode    regproto.ConfigError
	lastMessage bool
}

func newExchange(cfg Config, scope string) exchange {
	x := exchange{cfg: cfg, rand: cfg.random()}
	if cfg.LoggerFactory != nil {
		x.log = cfg.LoggerFactory.NewLogger(scope)
	}
	return x
}

func (x *exchange) newNonce() (regproto.Nonce, error) {
	n, err := crypto.RandomNonce(x.rand)
	return regproto.Nonce(n), err
}

// deriveKeys runs the DH agreement against peerPub and derives the session
// keys and both PSK halves of the device password.
func (x *exchange) deriveKeys(peerPub, enrolleeMAC []byte) error {
	secret, err := x.keyPair.SharedSecret(peerPub)
	if err != nil {
		return err
	}
	dhKey := crypto.ComputeHash(secret)
	clear(secret)
	defer clear(dhKey[:])

	keys, err := regproto.DeriveSessionKeys(dhKey[:], x.enrolleeNonce, enrolleeMAC, x.registrarNonce)
	if err != nil {
		return err
	}
	x.keys = keys
	x.psk1, x.psk2 = regproto.PSKHalves(keys.AuthKey[:], x.cfg.Password)
	return nil
}

func (x *exchange) checkPeerKey(pub []byte) error {
	if x.cfg.PeerPublicKeyHash == nil {
		return nil
	}
	h := crypto.PublicKeyHash(pub)
	if !crypto.HMACEqual(h[:], x.cfg.PeerPublicKeyHash) {
		return ErrPublicKeyHashMismatch
	}
	return nil
}

// accept checks the echoed nonce and the authenticator of an incoming
// message and records it as the previous message.
func (x *exchange) accept(buf *tlv.Buffer, id tlv.AttrType, expected regproto.Nonce) error {
	if err := regproto.CheckNonce(expected, buf, id); err != nil {
		return err
	}
	if err := regproto.VerifyAuthenticator(x.keys.AuthKey[:], x.prev, buf); err != nil {
		return err
	}
	x.prev = append([]byte(nil), buf.Bytes()...)
	return nil
}

// sign appends the authenticator to the message being built and records the
// result as the previous message.
func (x *exchange) sign(b *tlv.Builder) ([]byte, error) {
	body, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	msg, err := regproto.AppendAuthenticator(x.keys.AuthKey[:], x.prev, body)
	if err != nil {
		return nil, err
	}
	x.prev = msg
	return msg, nil
}

func (x *exchange) seal(settings *tlv.Builder) ([]byte, error) {
	plain, err := settings.Bytes()
	if err != nil {
		return nil, err
	}
	defer clear(plain)
	return regproto.EncryptSettings(x.keys.AuthKey[:], x.keys.KeyWrapKey[:], plain)
}

func (x *exchange) open(attrs tlv.Attributes) (*tlv.Buffer, error) {
	value, err := attrs.Value(tlv.AttrEncryptedSettings)
	if err != nil {
		return nil, malformed(tlv.AttrEncryptedSettings, err)
	}
	return regproto.DecryptSettings(x.keys.AuthKey[:], x.keys.KeyWrapKey[:], value)
}

// status builds WSC_ACK, WSC_NACK or WSC_Done. None carries an authenticator.
func (x *exchange) status(t tlv.MsgType, code regproto.ConfigError) ([]byte, error) {
	b := newMessage(t).
		AddBytes(tlv.AttrEnrolleeNonce, x.enrolleeNonce[:]).
		AddBytes(tlv.AttrRegistrarNonce, x.registrarNonce[:])
	if t == tlv.MsgWSCNack {
		b.AddUint16(tlv.AttrConfigError, uint16(code))
	}
	return b.Bytes()
}

// handleNACK records the configuration error of a peer WSC_NACK. A peer
// rejecting our device password commitment also matches ErrPINMismatch.
func (x *exchange) handleNACK(attrs tlv.Attributes) error {
	if a, ok := attrs.Get(tlv.AttrConfigError); ok {
		if v, err := a.Uint16(); err == nil {
			x.peerCode = regproto.ConfigError(v)
		}
	}
	if x.log != nil {
		x.log.Infof("peer sent WSC_NACK: %v", x.peerCode)
	}
	if x.peerCode == regproto.ConfigErrorDevicePasswordAuth {
		return fmt.Errorf("%w: %w", ErrNACK, ErrPINMismatch)
	}
	return fmt.Errorf("%w: %v", ErrNACK, x.peerCode)
}

func (x *exchange) zeroize() {
	x.keys.Zeroize()
	if x.keyPair != nil {
		x.keyPair.Zeroize()
	}
	clear(x.psk1[:])
	clear(x.psk2[:])
}

func newMessage(t tlv.MsgType) *tlv.Builder {
	return tlv.NewBuilder().
		AddUint8(tlv.AttrVersion, tlv.Version10).
		AddUint8(tlv.AttrMessageType, uint8(t))
}

func addDeviceInfo(b *tlv.Builder, d DeviceInfo) {
	b.AddString(tlv.AttrManufacturer, d.Manufacturer).
		AddString(tlv.AttrModelName, d.ModelName).
		AddString(tlv.AttrModelNumber, d.ModelNumber).
		AddString(tlv.AttrSerialNumber, d.SerialNumber).
		AddBytes(tlv.AttrPrimaryDeviceType, d.PrimaryDeviceType[:]).
		AddString(tlv.AttrDeviceName, d.DeviceName)
}

func addCapabilities(b *tlv.Builder, d DeviceInfo) {
	b.AddUint16(tlv.AttrAuthTypeFlags, regproto.AuthOpen|regproto.AuthWPAPSK|regproto.AuthWPA2PSK).
		AddUint16(tlv.AttrEncrTypeFlags, regproto.EncrNone|regproto.EncrTKIP|regproto.EncrAES).
		AddUint8(tlv.AttrConnTypeFlags, connTypeESS).
		AddUint16(tlv.AttrConfigMethods, d.ConfigMethods)
}

func malformed(t tlv.AttrType, err error) error {
	return fmt.Errorf("%w: %v: %w", ErrMalformedMessage, t, err)
}

// parse decodes msg and returns its type, attributes and a buffer over it.
func parse(msg []byte) (tlv.MsgType, tlv.Attributes, *tlv.Buffer, error) {
	buf := tlv.NewBufferFrom(msg)
	t, err := regproto.GetMessageType(buf)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	attrs, err := tlv.Parse(buf.Bytes())
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return t, attrs, buf, nil
}

func fixed(attrs tlv.Attributes, t tlv.AttrType, n int) ([]byte, error) {
	v, err := attrs.Fixed(t, n)
	if err != nil {
		return nil, malformed(t, err)
	}
	return v, nil
}

func secretNonce(settings *tlv.Buffer, id tlv.AttrType) (regproto.Nonce, error) {
	n, err := regproto.GetNonce(settings, id)
	if err != nil {
		return n, malformed(id, err)
	}
	return n, nil
}
