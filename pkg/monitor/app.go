package monitor

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/registration"
	"github.com/backkem/wps/pkg/regproto"
	"github.com/google/uuid"
	"github.com/pion/logging"
)

// DefaultAttemptTimeout bounds the silence between two messages of one
// registration attempt.
const DefaultAttemptTimeout = 30 * time.Second

// App is the active registration application. The dispatcher owns at most
// one at a time.
type App interface {
	Mode() Mode

	// Process handles one packet. Replies go out through from.
	Process(msg []byte, from Transport) Result

	// CheckTimeout lets the app end itself when the peer went silent.
	CheckTimeout(now time.Time) Result

	// Close releases the app. It is called exactly once.
	Close()
}

// CredentialSource is implemented by apps that learned a network credential.
type CredentialSource interface {
	Credential() *regproto.Credential
}

// SessionRequest describes the app to open.
type SessionRequest struct {
	Mode       Mode
	Password   []byte
	PasswordID regproto.DevicePasswordID

	// Token, when set, supplies the password and the peer key hash.
	Token *regproto.PasswordToken
}

// AppFactory opens apps for the dispatcher.
type AppFactory interface {
	NewApp(req SessionRequest) (App, error)
}

// SessionFactory opens SessionApps running the registration exchange.
type SessionFactory struct {
	UUID       uuid.UUID
	MACAddress net.HardwareAddr
	Device     registration.DeviceInfo

	// Credential is the network this device hands out as a registrar and
	// reports as an AP enrollee.
	Credential *regproto.Credential

	// Timeout is the per-attempt silence limit. Defaults to
	// DefaultAttemptTimeout.
	Timeout time.Duration

	LoggerFactory logging.LoggerFactory
}

// NewApp implements AppFactory.
func (f *SessionFactory) NewApp(req SessionRequest) (App, error) {
	cfg := registration.Config{
		UUID:          f.UUID,
		MACAddress:    f.MACAddress,
		Device:        f.Device,
		Password:      req.Password,
		PasswordID:    req.PasswordID,
		LoggerFactory: f.LoggerFactory,
	}
	if req.Token != nil {
		cfg.Password = req.Token.Password
		cfg.PasswordID = req.Token.PasswordID
		cfg.PeerPublicKeyHash = req.Token.PublicKeyHash[:]
	}
	if req.Mode != ModeSTAEnrollee {
		cfg.Credential = f.Credential
	}

	app := &SessionApp{mode: req.Mode, timeout: f.Timeout}
	if app.timeout <= 0 {
		app.timeout = DefaultAttemptTimeout
	}
	if f.LoggerFactory != nil {
		app.log = f.LoggerFactory.NewLogger("monitor-app")
	}

	var err error
	switch req.Mode {
	case ModeAPEnrollee, ModeSTAEnrollee:
		app.enrollee, err = registration.NewEnrollee(cfg)
	case ModeAPRegistrar, ModeSTARegistrar:
		app.registrar, err = registration.NewRegistrar(cfg)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, req.Mode)
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// SessionApp adapts a registration session to App.
//
// An enrollee sends M1 when it receives an empty packet, which transports
// use for the peer's start request.
type SessionApp struct {
	mode      Mode
	enrollee  *registration.Enrollee
	registrar *registration.Registrar
	log       logging.LeveledLogger

	timeout      time.Duration
	lastActivity time.Time
	active       bool
	closed       bool
}

// Mode implements App.
func (a *SessionApp) Mode() Mode { return a.mode }

// Credential returns the credential an enrollee received, or nil.
func (a *SessionApp) Credential() *regproto.Credential {
	if a.enrollee == nil {
		return nil
	}
	return a.enrollee.Credential()
}

// Process implements App.
func (a *SessionApp) Process(msg []byte, from Transport) Result {
	if a.closed {
		return resultIgnored
	}
	a.active = true

	var (
		reply []byte
		err   error
	)
	if a.enrollee != nil {
		if len(msg) == 0 {
			if a.enrollee.State() != registration.StateInit {
				return resultIgnored
			}
			reply, err = a.enrollee.Start()
		} else {
			reply, err = a.enrollee.Handle(msg)
		}
	} else {
		if len(msg) == 0 {
			return resultIgnored
		}
		reply, err = a.registrar.Handle(msg)
	}

	if reply != nil {
		if serr := from.Send(reply); serr != nil {
			if a.log != nil {
				a.log.Warnf("send reply: %v", serr)
			}
			return failure(CodeMessage)
		}
	}
	if err != nil {
		return a.resultFor(err)
	}
	return a.progress()
}

func (a *SessionApp) progress() Result {
	if a.enrollee != nil {
		if a.enrollee.State() != registration.StateComplete {
			return resultContinue
		}
		if a.mode == ModeAPEnrollee {
			// New AP settings take effect after a restart.
			return Result{Status: StatusSuccessRestart}
		}
		return Result{Status: StatusSuccess}
	}
	if a.registrar.State() == registration.StateComplete {
		return Result{Status: StatusSuccess}
	}
	return resultContinue
}

func (a *SessionApp) resultFor(err error) Result {
	if a.log != nil {
		a.log.Infof("%v attempt: %v", a.mode, err)
	}
	switch {
	case errors.Is(err, registration.ErrPINMismatch):
		return Result{Status: StatusFailure, Code: CodePINFailure, LastMessage: a.lastMessage()}
	case errors.Is(err, crypto.ErrCrypto),
		errors.Is(err, crypto.ErrInvalidPublicKey),
		errors.Is(err, crypto.ErrMalformedCiphertext),
		errors.Is(err, crypto.ErrEncodingTooLarge),
		errors.Is(err, crypto.ErrInsufficientMaterial):
		return failure(CodeCrypto)
	case a.state() == registration.StateFailed:
		return failure(CodeMessage)
	case errors.Is(err, registration.ErrUnexpectedMessage),
		errors.Is(err, registration.ErrMalformedMessage),
		errors.Is(err, registration.ErrInvalidState):
		// Stray packets leave a live session as it is.
		return resultIgnored
	default:
		return failure(CodeMessage)
	}
}

func (a *SessionApp) state() registration.State {
	if a.enrollee != nil {
		return a.enrollee.State()
	}
	return a.registrar.State()
}

func (a *SessionApp) lastMessage() bool {
	if a.enrollee != nil {
		return a.enrollee.LastMessage()
	}
	return a.registrar.LastMessage()
}

// CheckTimeout implements App. The silence clock restarts on every call
// that follows a processed packet.
func (a *SessionApp) CheckTimeout(now time.Time) Result {
	if a.closed {
		return resultContinue
	}
	if a.active || a.lastActivity.IsZero() {
		a.lastActivity = now
		a.active = false
		return resultContinue
	}
	if now.Sub(a.lastActivity) > a.timeout {
		if a.log != nil {
			a.log.Infof("%v attempt timed out", a.mode)
		}
		return failure(CodeTimeout)
	}
	return resultContinue
}

// Close implements App.
func (a *SessionApp) Close() {
	a.closed = true
}
