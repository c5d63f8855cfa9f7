package registration

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/regproto"
	"github.com/backkem/wps/pkg/tlv"
	"github.com/google/uuid"
)

// Registrar runs the registrar side of the exchange. It waits for M1 and
// answers every enrollee message until WSC_Done, which it acknowledges.
type Registrar struct {
	exchange

	state          State
	rs1, rs2       regproto.Nonce
	eHash1, eHash2 []byte
	peerCredential *regproto.Credential

	mu sync.Mutex
}

// NewRegistrar creates a registrar session.
func NewRegistrar(cfg Config) (*Registrar, error) {
	if err := cfg.validate(RoleRegistrar); err != nil {
		return nil, err
	}
	return &Registrar{exchange: newExchange(cfg, "wps-registrar"), state: StateInit}, nil
}

// State returns the session state.
func (r *Registrar) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Peer returns what M1 told about the enrollee.
func (r *Registrar) Peer() PeerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peer
}

// PeerCredential returns the AP configuration an AP enrollee reported in
// M7, or nil.
func (r *Registrar) PeerCredential() *regproto.Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peerCredential
}

// PeerConfigError returns the configuration error of a received WSC_NACK.
func (r *Registrar) PeerConfigError() regproto.ConfigError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peerCode
}

// LastMessage reports whether a device password failure happened while
// waiting for the enrollee's last M-message (M7) rather than M5. Failures
// reported by the enrollee through WSC_NACK count the same way.
func (r *Registrar) LastMessage() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastMessage
}

// Handle consumes one enrollee message and returns the reply to send.
// When the enrollee's device password commitment fails, Handle returns
// ErrPINMismatch together with a WSC_NACK (configuration error 18).
func (r *Registrar) Handle(msg []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateComplete || r.state == StateFailed {
		return nil, ErrInvalidState
	}

	t, attrs, buf, err := parse(msg)
	if err != nil {
		return nil, err
	}
	if t == tlv.MsgWSCNack && r.state != StateInit {
		if err := regproto.CheckNonce(r.registrarNonce, buf, tlv.AttrRegistrarNonce); err != nil {
			return nil, err
		}
		r.lastMessage = r.state == StateWaitingM7
		r.fail()
		return nil, r.handleNACK(attrs)
	}

	var reply []byte
	switch {
	case r.state == StateInit && t == tlv.MsgM1:
		reply, err = r.handleM1(attrs, buf)
	case r.state == StateWaitingM3 && t == tlv.MsgM3:
		reply, err = r.handleM3(attrs, buf)
	case r.state == StateWaitingM5 && t == tlv.MsgM5:
		reply, err = r.handleM5(attrs, buf)
	case r.state == StateWaitingM7 && t == tlv.MsgM7:
		reply, err = r.handleM7(attrs, buf)
	case r.state == StateWaitingDone && t == tlv.MsgWSCDone:
		reply, err = r.handleDone(buf)
	default:
		return nil, fmt.Errorf("%w: %v in state %v", ErrUnexpectedMessage, t, r.state)
	}
	if err != nil {
		if errors.Is(err, ErrPINMismatch) {
			r.lastMessage = r.state == StateWaitingM7
			nack, nerr := r.status(tlv.MsgWSCNack, regproto.ConfigErrorDevicePasswordAuth)
			r.fail()
			if r.log != nil {
				r.log.Warnf("device password mismatch (last message %v)", r.lastMessage)
			}
			if nerr != nil {
				return nil, nerr
			}
			return nack, err
		}
		r.fail()
		return nil, err
	}
	if r.log != nil {
		r.log.Debugf("handled %v, now %v", t, r.state)
	}
	return reply, nil
}

func (r *Registrar) fail() {
	r.state = StateFailed
	r.zeroize()
}

func (r *Registrar) handleM1(attrs tlv.Attributes, buf *tlv.Buffer) ([]byte, error) {
	uuidE, err := fixed(attrs, tlv.AttrUUIDE, 16)
	if err != nil {
		return nil, err
	}
	mac, err := fixed(attrs, tlv.AttrMACAddress, regproto.MACAddrLen)
	if err != nil {
		return nil, err
	}
	en, err := fixed(attrs, tlv.AttrEnrolleeNonce, crypto.NonceLen)
	if err != nil {
		return nil, err
	}
	pke, err := fixed(attrs, tlv.AttrPublicKey, crypto.SizePubKey)
	if err != nil {
		return nil, err
	}
	if err := r.checkPeerKey(pke); err != nil {
		return nil, err
	}

	r.peer.UUID, _ = uuid.FromBytes(uuidE)
	r.peer.MACAddress = append(net.HardwareAddr(nil), mac...)
	if name, err := attrs.Value(tlv.AttrDeviceName); err == nil {
		r.peer.DeviceName = string(name)
	}
	if a, ok := attrs.Get(tlv.AttrDevicePasswordID); ok {
		if id, err := a.Uint16(); err == nil {
			r.peer.PasswordID = regproto.DevicePasswordID(id)
		}
	}
	copy(r.enrolleeNonce[:], en)
	r.pke = append([]byte(nil), pke...)
	r.prev = append([]byte(nil), buf.Bytes()...)

	if r.registrarNonce, err = r.newNonce(); err != nil {
		return nil, err
	}
	if r.keyPair, err = r.cfg.keyPair(); err != nil {
		return nil, err
	}
	r.pkr = r.keyPair.PublicKey()
	if err := r.deriveKeys(r.pke, r.peer.MACAddress); err != nil {
		return nil, err
	}

	if r.rs1, err = r.newNonce(); err != nil {
		return nil, err
	}
	if r.rs2, err = r.newNonce(); err != nil {
		return nil, err
	}

	b := newMessage(tlv.MsgM2).
		AddBytes(tlv.AttrEnrolleeNonce, r.enrolleeNonce[:]).
		AddBytes(tlv.AttrRegistrarNonce, r.registrarNonce[:]).
		AddBytes(tlv.AttrUUIDR, r.cfg.UUID[:]).
		AddBytes(tlv.AttrPublicKey, r.pkr)
	addCapabilities(b, r.cfg.Device)
	addDeviceInfo(b, r.cfg.Device)
	b.AddUint8(tlv.AttrRFBands, r.cfg.Device.RFBands).
		AddUint16(tlv.AttrAssociationState, 0).
		AddUint16(tlv.AttrConfigError, uint16(regproto.ConfigErrorNone)).
		AddUint16(tlv.AttrDevicePasswordID, uint16(r.cfg.PasswordID)).
		AddUint32(tlv.AttrOSVersion, r.cfg.Device.OSVersion)

	m2, err := r.sign(b)
	if err != nil {
		return nil, err
	}
	r.state = StateWaitingM3
	if r.log != nil {
		r.log.Debugf("M1 from %s (%s), password id %d", r.peer.MACAddress, r.peer.UUID, r.peer.PasswordID)
	}
	return m2, nil
}

func (r *Registrar) handleM3(attrs tlv.Attributes, buf *tlv.Buffer) ([]byte, error) {
	if err := r.accept(buf, tlv.AttrRegistrarNonce, r.registrarNonce); err != nil {
		return nil, err
	}
	h1, err := fixed(attrs, tlv.AttrEHash1, crypto.SHA256LenBytes)
	if err != nil {
		return nil, err
	}
	h2, err := fixed(attrs, tlv.AttrEHash2, crypto.SHA256LenBytes)
	if err != nil {
		return nil, err
	}
	r.eHash1 = append([]byte(nil), h1...)
	r.eHash2 = append([]byte(nil), h2...)

	rh1 := regproto.ComputePINHash(r.keys.AuthKey[:], r.rs1, r.psk1, r.pke, r.pkr)
	rh2 := regproto.ComputePINHash(r.keys.AuthKey[:], r.rs2, r.psk2, r.pke, r.pkr)
	es, err := r.seal(tlv.NewBuilder().AddBytes(tlv.AttrRSNonce1, r.rs1[:]))
	if err != nil {
		return nil, err
	}
	m4, err := r.sign(newMessage(tlv.MsgM4).
		AddBytes(tlv.AttrEnrolleeNonce, r.enrolleeNonce[:]).
		AddBytes(tlv.AttrRHash1, rh1[:]).
		AddBytes(tlv.AttrRHash2, rh2[:]).
		AddBytes(tlv.AttrEncryptedSettings, es))
	if err != nil {
		return nil, err
	}
	r.state = StateWaitingM5
	return m4, nil
}

func (r *Registrar) handleM5(attrs tlv.Attributes, buf *tlv.Buffer) ([]byte, error) {
	if err := r.accept(buf, tlv.AttrRegistrarNonce, r.registrarNonce); err != nil {
		return nil, err
	}
	settings, err := r.open(attrs)
	if err != nil {
		return nil, err
	}
	es1, err := secretNonce(settings, tlv.AttrESNonce1)
	if err != nil {
		return nil, err
	}
	if err := regproto.VerifyPINHash(r.keys.AuthKey[:], es1, r.psk1, r.pke, r.pkr, r.eHash1); err != nil {
		return nil, fmt.Errorf("%w: first half", ErrPINMismatch)
	}

	es, err := r.seal(tlv.NewBuilder().AddBytes(tlv.AttrRSNonce2, r.rs2[:]))
	if err != nil {
		return nil, err
	}
	m6, err := r.sign(newMessage(tlv.MsgM6).
		AddBytes(tlv.AttrEnrolleeNonce, r.enrolleeNonce[:]).
		AddBytes(tlv.AttrEncryptedSettings, es))
	if err != nil {
		return nil, err
	}
	r.state = StateWaitingM7
	return m6, nil
}

func (r *Registrar) handleM7(attrs tlv.Attributes, buf *tlv.Buffer) ([]byte, error) {
	if err := r.accept(buf, tlv.AttrRegistrarNonce, r.registrarNonce); err != nil {
		return nil, err
	}
	settings, err := r.open(attrs)
	if err != nil {
		return nil, err
	}
	es2, err := secretNonce(settings, tlv.AttrESNonce2)
	if err != nil {
		return nil, err
	}
	if err := regproto.VerifyPINHash(r.keys.AuthKey[:], es2, r.psk2, r.pke, r.pkr, r.eHash2); err != nil {
		return nil, fmt.Errorf("%w: second half", ErrPINMismatch)
	}

	inner, err := tlv.Parse(settings.Bytes())
	if err != nil {
		return nil, malformed(tlv.AttrEncryptedSettings, err)
	}
	if value, err := inner.Value(tlv.AttrCredential); err == nil {
		if r.peerCredential, err = regproto.ParseCredential(value); err != nil {
			return nil, err
		}
	}

	cred := r.cfg.Credential
	if cred == nil {
		cred = r.peerCredential
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: no credential to hand out", ErrInvalidConfig)
	}
	encoded, err := cred.Encode()
	if err != nil {
		return nil, err
	}
	es, err := r.seal(tlv.NewBuilder().AddRaw(encoded))
	if err != nil {
		return nil, err
	}
	m8, err := r.sign(newMessage(tlv.MsgM8).
		AddBytes(tlv.AttrEnrolleeNonce, r.enrolleeNonce[:]).
		AddBytes(tlv.AttrEncryptedSettings, es))
	if err != nil {
		return nil, err
	}
	r.state = StateWaitingDone
	return m8, nil
}

func (r *Registrar) handleDone(buf *tlv.Buffer) ([]byte, error) {
	if err := regproto.CheckNonce(r.enrolleeNonce, buf, tlv.AttrEnrolleeNonce); err != nil {
		return nil, err
	}
	if err := regproto.CheckNonce(r.registrarNonce, buf, tlv.AttrRegistrarNonce); err != nil {
		return nil, err
	}
	ack, err := r.status(tlv.MsgWSCAck, regproto.ConfigErrorNone)
	if err != nil {
		return nil, err
	}
	r.state = StateComplete
	r.zeroize()
	if r.log != nil {
		r.log.Infof("registration of %s complete", r.peer.MACAddress)
	}
	return ack, nil
}
