// Package monitor is the registration monitor: a registry of transport
// handles, a single-threaded dispatch loop that owns at most one active
// registration app, and the add-client window that lets an access point
// reuse one PIN across attempts for a whole walk time.
//
// Everything in this package is owned by the goroutine running the loop.
// Only RequestShutdown and RequestRestart may be called from elsewhere.
package monitor

import (
	"fmt"
	"strings"
)

// Kind identifies the transport a handle polls.
type Kind int

const (
	KindPushButton Kind = iota
	KindUI
	KindEAP
	KindUPnP
	KindNFC
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPushButton:
		return "PushButton"
	case KindUI:
		return "UI"
	case KindEAP:
		return "EAP"
	case KindUPnP:
		return "UPnP"
	case KindNFC:
		return "NFC"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Mode is the operation mode of a registration app.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeAPEnrollee
	ModeAPRegistrar
	ModeSTAEnrollee
	ModeSTARegistrar
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeAPEnrollee:
		return "ap_enrollee"
	case ModeAPRegistrar:
		return "ap_registrar"
	case ModeSTAEnrollee:
		return "sta_enrollee"
	case ModeSTARegistrar:
		return "sta_registrar"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// IsAP reports whether the mode runs on the access point.
func (m Mode) IsAP() bool {
	return m == ModeAPEnrollee || m == ModeAPRegistrar
}

// IsRegistrar reports whether the local side is the registrar.
func (m Mode) IsRegistrar() bool {
	return m == ModeAPRegistrar || m == ModeSTARegistrar
}

// ParseMode parses a mode name as printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	for m := ModeAPEnrollee; m <= ModeSTARegistrar; m++ {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Status is the outcome class of handling one packet.
type Status uint8

const (
	// StatusContinue means the exchange goes on.
	StatusContinue Status = iota
	StatusSuccess
	// StatusSuccessRestart means success and the daemon must restart to
	// apply new settings.
	StatusSuccessRestart
	StatusFailure
	// StatusProtocol is a handler specific, non-terminal result such as a
	// packet that was ignored.
	StatusProtocol
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusContinue:
		return "Continue"
	case StatusSuccess:
		return "Success"
	case StatusSuccessRestart:
		return "SuccessRestart"
	case StatusFailure:
		return "Failure"
	case StatusProtocol:
		return "Protocol"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Code qualifies a failure or protocol result.
type Code uint8

const (
	CodeNone Code = iota
	CodeOpenSession
	CodePINFailure
	CodeTimeout
	CodeMessage
	CodeCrypto
	CodeBusy
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case CodeNone:
		return "None"
	case CodeOpenSession:
		return "OpenSession"
	case CodePINFailure:
		return "PINFailure"
	case CodeTimeout:
		return "Timeout"
	case CodeMessage:
		return "Message"
	case CodeCrypto:
		return "Crypto"
	case CodeBusy:
		return "Busy"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

// Result is what a handler or app returns for one packet.
type Result struct {
	Status Status
	Code   Code

	// LastMessage is set on a PIN failure detected on the last message of
	// the exchange.
	LastMessage bool
}

// Terminal reports whether the result ends the active session.
func (r Result) Terminal() bool {
	switch r.Status {
	case StatusSuccess, StatusSuccessRestart, StatusFailure:
		return true
	default:
		return false
	}
}

func (r Result) String() string {
	if r.Code == CodeNone {
		return r.Status.String()
	}
	return r.Status.String() + "(" + r.Code.String() + ")"
}

// Convenience results.
var (
	resultContinue = Result{Status: StatusContinue}
	resultIgnored  = Result{Status: StatusProtocol}
)

func failure(code Code) Result {
	return Result{Status: StatusFailure, Code: code}
}
