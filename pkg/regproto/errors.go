package regproto

import "errors"

// Registration protocol engine errors.
var (
	// ErrInvalidParameters is returned on a caller contract violation or a
	// malformed mandatory attribute.
	ErrInvalidParameters = errors.New("regproto: invalid parameters")

	// ErrNonceMismatch is returned when a message echoes the wrong nonce.
	ErrNonceMismatch = errors.New("regproto: nonce mismatch")

	// ErrRequiredAttributeMissing is returned when a mandatory attribute is absent.
	ErrRequiredAttributeMissing = errors.New("regproto: required attribute missing")

	// ErrAuthenticatorMismatch is returned when a message authenticator does not verify.
	ErrAuthenticatorMismatch = errors.New("regproto: authenticator mismatch")

	// ErrKeyWrapMismatch is returned when an Encrypted Settings key wrap
	// authenticator does not verify.
	ErrKeyWrapMismatch = errors.New("regproto: key wrap authenticator mismatch")

	// ErrHashMismatch is returned when a revealed secret nonce does not match
	// the committed E-Hash or R-Hash.
	ErrHashMismatch = errors.New("regproto: device password hash mismatch")

	// ErrInvalidPIN is returned for a device PIN with a bad length, non-digit
	// characters or a wrong checksum digit.
	ErrInvalidPIN = errors.New("regproto: invalid PIN")

	// ErrInvalidToken is returned when an OOB password token cannot be decoded.
	ErrInvalidToken = errors.New("regproto: invalid password token")

	// ErrInvalidCredential is returned when a Credential attribute cannot be decoded.
	ErrInvalidCredential = errors.New("regproto: invalid credential")
)
