package monitor

import "errors"

var (
	// ErrBusy is returned when the registry is modified from inside a poll.
	ErrBusy = errors.New("monitor: registry busy")

	// ErrHandleNotFound is returned when removing a handle that is not
	// registered.
	ErrHandleNotFound = errors.New("monitor: handle not found")

	// ErrNoInterface is returned by Open when no wireless interface is
	// configured. It is fatal: the loop must not start.
	ErrNoInterface = errors.New("monitor: no wireless interface configured")

	// ErrInvalidMode is returned when parsing an unknown mode name.
	ErrInvalidMode = errors.New("monitor: invalid mode")

	// ErrInvalidCommand is returned for a malformed UI command.
	ErrInvalidCommand = errors.New("monitor: invalid command")

	// ErrNoFactory is returned by New when Config.Factory is nil.
	ErrNoFactory = errors.New("monitor: no app factory")

	// ErrNotOpen is returned by RunOnce and Run before Open.
	ErrNotOpen = errors.New("monitor: dispatcher not open")
)
