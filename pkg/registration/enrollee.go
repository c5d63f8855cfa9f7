package registration

import (
	"errors"
	"fmt"
	"sync"

	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/regproto"
	"github.com/backkem/wps/pkg/tlv"
	"github.com/google/uuid"
)

// Enrollee runs the enrollee side of the exchange.
//
// Usage:
//
//	e, _ := registration.NewEnrollee(cfg)
//	m1, _ := e.Start()
//	// send m1, then feed every reply back in
//	out, err := e.Handle(in)
//	// after WSC_Done is returned, e.Credential() holds the network settings
type Enrollee struct {
	exchange

	state      State
	es1, es2   regproto.Nonce
	rHash1     []byte
	rHash2     []byte
	credential *regproto.Credential

	mu sync.Mutex
}

// NewEnrollee creates an enrollee session.
func NewEnrollee(cfg Config) (*Enrollee, error) {
	if err := cfg.validate(RoleEnrollee); err != nil {
		return nil, err
	}
	return &Enrollee{exchange: newExchange(cfg, "wps-enrollee"), state: StateInit}, nil
}

// State returns the session state.
func (e *Enrollee) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Peer returns what M2 told about the registrar.
func (e *Enrollee) Peer() PeerInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peer
}

// Credential returns the credential received in M8, or nil.
func (e *Enrollee) Credential() *regproto.Credential {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credential
}

// PeerConfigError returns the configuration error of a received WSC_NACK.
func (e *Enrollee) PeerConfigError() regproto.ConfigError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peerCode
}

// LastMessage reports whether a device password failure was detected on
// the final commitment check (M6) or reported by the registrar after M7.
func (e *Enrollee) LastMessage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastMessage
}

// Start builds M1.
func (e *Enrollee) Start() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInit {
		return nil, ErrInvalidState
	}

	var err error
	if e.enrolleeNonce, err = e.newNonce(); err != nil {
		return nil, err
	}
	if e.keyPair, err = e.cfg.keyPair(); err != nil {
		return nil, err
	}
	e.pke = e.keyPair.PublicKey()

	b := newMessage(tlv.MsgM1).
		AddBytes(tlv.AttrUUIDE, e.cfg.UUID[:]).
		AddBytes(tlv.AttrMACAddress, e.cfg.MACAddress).
		AddBytes(tlv.AttrEnrolleeNonce, e.enrolleeNonce[:]).
		AddBytes(tlv.AttrPublicKey, e.pke)
	addCapabilities(b, e.cfg.Device)
	b.AddUint8(tlv.AttrWPSState, e.wpsState())
	addDeviceInfo(b, e.cfg.Device)
	b.AddUint8(tlv.AttrRFBands, e.cfg.Device.RFBands).
		AddUint16(tlv.AttrAssociationState, 0).
		AddUint16(tlv.AttrDevicePasswordID, uint16(e.cfg.PasswordID)).
		AddUint16(tlv.AttrConfigError, uint16(regproto.ConfigErrorNone)).
		AddUint32(tlv.AttrOSVersion, e.cfg.Device.OSVersion)

	m1, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	e.prev = m1
	e.state = StateWaitingM2
	if e.log != nil {
		e.log.Debugf("sent M1 (password id %d)", e.cfg.PasswordID)
	}
	return m1, nil
}

func (e *Enrollee) wpsState() uint8 {
	if e.cfg.Credential != nil {
		return regproto.WPSStateConfigured
	}
	return regproto.WPSStateNotConfigured
}

// Handle consumes one registrar message and returns the reply to send.
// When the registrar's device password commitment fails, Handle returns
// ErrPINMismatch together with a WSC_NACK to send.
func (e *Enrollee) Handle(msg []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateInit || e.state == StateComplete || e.state == StateFailed {
		return nil, ErrInvalidState
	}

	t, attrs, buf, err := parse(msg)
	if err != nil {
		return nil, err
	}
	if t == tlv.MsgWSCNack {
		if err := regproto.CheckNonce(e.enrolleeNonce, buf, tlv.AttrEnrolleeNonce); err != nil {
			return nil, err
		}
		e.lastMessage = e.state == StateWaitingM8
		e.fail()
		return nil, e.handleNACK(attrs)
	}

	var reply []byte
	switch {
	case e.state == StateWaitingM2 && t == tlv.MsgM2:
		reply, err = e.handleM2(attrs, buf)
	case e.state == StateWaitingM4 && t == tlv.MsgM4:
		reply, err = e.handleM4(attrs, buf)
	case e.state == StateWaitingM6 && t == tlv.MsgM6:
		reply, err = e.handleM6(attrs, buf)
	case e.state == StateWaitingM8 && t == tlv.MsgM8:
		reply, err = e.handleM8(attrs, buf)
	default:
		return nil, fmt.Errorf("%w: %v in state %v", ErrUnexpectedMessage, t, e.state)
	}
	if err != nil {
		if errors.Is(err, ErrPINMismatch) {
			e.lastMessage = e.state == StateWaitingM6
			nack, nerr := e.status(tlv.MsgWSCNack, regproto.ConfigErrorDevicePasswordAuth)
			e.fail()
			if nerr != nil {
				return nil, nerr
			}
			return nack, err
		}
		e.fail()
		return nil, err
	}
	if e.log != nil {
		e.log.Debugf("handled %v, now %v", t, e.state)
	}
	return reply, nil
}

func (e *Enrollee) fail() {
	e.state = StateFailed
	e.zeroize()
}

func (e *Enrollee) handleM2(attrs tlv.Attributes, buf *tlv.Buffer) ([]byte, error) {
	if err := regproto.CheckNonce(e.enrolleeNonce, buf, tlv.AttrEnrolleeNonce); err != nil {
		return nil, err
	}
	rn, err := regproto.GetNonce(buf, tlv.AttrRegistrarNonce)
	if err != nil {
		return nil, err
	}
	e.registrarNonce = rn

	uuidR, err := fixed(attrs, tlv.AttrUUIDR, 16)
	if err != nil {
		return nil, err
	}
	pkr, err := fixed(attrs, tlv.AttrPublicKey, crypto.SizePubKey)
	if err != nil {
		return nil, err
	}
	if err := e.checkPeerKey(pkr); err != nil {
		return nil, err
	}
	e.pkr = append([]byte(nil), pkr...)
	e.peer.UUID, _ = uuid.FromBytes(uuidR)
	if name, err := attrs.Value(tlv.AttrDeviceName); err == nil {
		e.peer.DeviceName = string(name)
	}
	if a, ok := attrs.Get(tlv.AttrDevicePasswordID); ok {
		if id, err := a.Uint16(); err == nil {
			e.peer.PasswordID = regproto.DevicePasswordID(id)
		}
	}

	if err := e.deriveKeys(e.pkr, e.cfg.MACAddress); err != nil {
		return nil, err
	}
	if err := e.accept(buf, tlv.AttrEnrolleeNonce, e.enrolleeNonce); err != nil {
		return nil, err
	}

	if e.es1, err = e.newNonce(); err != nil {
		return nil, err
	}
	if e.es2, err = e.newNonce(); err != nil {
		return nil, err
	}
	h1 := regproto.ComputePINHash(e.keys.AuthKey[:], e.es1, e.psk1, e.pke, e.pkr)
	h2 := regproto.ComputePINHash(e.keys.AuthKey[:], e.es2, e.psk2, e.pke, e.pkr)

	m3, err := e.sign(newMessage(tlv.MsgM3).
		AddBytes(tlv.AttrRegistrarNonce, e.registrarNonce[:]).
		AddBytes(tlv.AttrEHash1, h1[:]).
		AddBytes(tlv.AttrEHash2, h2[:]))
	if err != nil {
		return nil, err
	}
	e.state = StateWaitingM4
	return m3, nil
}

func (e *Enrollee) handleM4(attrs tlv.Attributes, buf *tlv.Buffer) ([]byte, error) {
	if err := e.accept(buf, tlv.AttrEnrolleeNonce, e.enrolleeNonce); err != nil {
		return nil, err
	}
	h1, err := fixed(attrs, tlv.AttrRHash1, crypto.SHA256LenBytes)
	if err != nil {
		return nil, err
	}
	h2, err := fixed(attrs, tlv.AttrRHash2, crypto.SHA256LenBytes)
	if err != nil {
		return nil, err
	}
	e.rHash1 = append([]byte(nil), h1...)
	e.rHash2 = append([]byte(nil), h2...)

	settings, err := e.open(attrs)
	if err != nil {
		return nil, err
	}
	rs1, err := secretNonce(settings, tlv.AttrRSNonce1)
	if err != nil {
		return nil, err
	}
	if err := regproto.VerifyPINHash(e.keys.AuthKey[:], rs1, e.psk1, e.pke, e.pkr, e.rHash1); err != nil {
		return nil, fmt.Errorf("%w: first half", ErrPINMismatch)
	}

	es, err := e.seal(tlv.NewBuilder().AddBytes(tlv.AttrESNonce1, e.es1[:]))
	if err != nil {
		return nil, err
	}
	m5, err := e.sign(newMessage(tlv.MsgM5).
		AddBytes(tlv.AttrRegistrarNonce, e.registrarNonce[:]).
		AddBytes(tlv.AttrEncryptedSettings, es))
	if err != nil {
		return nil, err
	}
	e.state = StateWaitingM6
	return m5, nil
}

func (e *Enrollee) handleM6(attrs tlv.Attributes, buf *tlv.Buffer) ([]byte, error) {
	if err := e.accept(buf, tlv.AttrEnrolleeNonce, e.enrolleeNonce); err != nil {
		return nil, err
	}
	settings, err := e.open(attrs)
	if err != nil {
		return nil, err
	}
	rs2, err := secretNonce(settings, tlv.AttrRSNonce2)
	if err != nil {
		return nil, err
	}
	if err := regproto.VerifyPINHash(e.keys.AuthKey[:], rs2, e.psk2, e.pke, e.pkr, e.rHash2); err != nil {
		return nil, fmt.Errorf("%w: second half", ErrPINMismatch)
	}

	inner := tlv.NewBuilder().AddBytes(tlv.AttrESNonce2, e.es2[:])
	if e.cfg.Credential != nil {
		cred, err := e.cfg.Credential.Encode()
		if err != nil {
			return nil, err
		}
		inner.AddRaw(cred)
	}
	es, err := e.seal(inner)
	if err != nil {
		return nil, err
	}
	m7, err := e.sign(newMessage(tlv.MsgM7).
		AddBytes(tlv.AttrRegistrarNonce, e.registrarNonce[:]).
		AddBytes(tlv.AttrEncryptedSettings, es))
	if err != nil {
		return nil, err
	}
	e.state = StateWaitingM8
	return m7, nil
}

func (e *Enrollee) handleM8(attrs tlv.Attributes, buf *tlv.Buffer) ([]byte, error) {
	if err := e.accept(buf, tlv.AttrEnrolleeNonce, e.enrolleeNonce); err != nil {
		return nil, err
	}
	settings, err := e.open(attrs)
	if err != nil {
		return nil, err
	}
	inner, err := tlv.Parse(settings.Bytes())
	if err != nil {
		return nil, malformed(tlv.AttrEncryptedSettings, err)
	}
	value, err := inner.Value(tlv.AttrCredential)
	if err != nil {
		return nil, malformed(tlv.AttrCredential, err)
	}
	cred, err := regproto.ParseCredential(value)
	if err != nil {
		return nil, err
	}
	e.credential = cred

	done, err := e.status(tlv.MsgWSCDone, regproto.ConfigErrorNone)
	if err != nil {
		return nil, err
	}
	e.state = StateComplete
	e.zeroize()
	if e.log != nil {
		e.log.Infof("registration complete, SSID %q", cred.SSID)
	}
	return done, nil
}
