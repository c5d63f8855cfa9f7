package registration

import "errors"

// Registration session errors.
var (
	// ErrInvalidState is returned when a call does not fit the current state
	// or role of the session.
	ErrInvalidState = errors.New("registration: invalid state")

	// ErrInvalidConfig is returned by the constructors for an unusable Config.
	ErrInvalidConfig = errors.New("registration: invalid config")

	// ErrUnexpectedMessage is returned when the peer sends a message type
	// the session is not waiting for.
	ErrUnexpectedMessage = errors.New("registration: unexpected message")

	// ErrMalformedMessage is returned when a mandatory attribute is missing
	// or has the wrong size.
	ErrMalformedMessage = errors.New("registration: malformed message")

	// ErrPINMismatch is returned when the peer's device password commitment
	// does not verify. The reply carries a WSC_NACK.
	ErrPINMismatch = errors.New("registration: device password mismatch")

	// ErrPublicKeyHashMismatch is returned when the peer's public key does not
	// match the hash from an OOB password token.
	ErrPublicKeyHashMismatch = errors.New("registration: public key hash mismatch")

	// ErrNACK is returned when the peer aborts the exchange with a WSC_NACK.
	ErrNACK = errors.New("registration: peer sent WSC_NACK")
)
