package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrAlreadyStarted is returned when Start is called on an already running transport.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrInvalidAddress is returned when an invalid peer address is provided.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrNoPeer is returned by Send before any packet was received and no
	// fixed peer is configured.
	ErrNoPeer = errors.New("transport: no peer to reply to")

	// ErrMessageTooLarge is returned when a message exceeds MaxPacketSize.
	ErrMessageTooLarge = errors.New("transport: message too large")

	// ErrQueueFull is returned by Queue.Push when the queue is full.
	ErrQueueFull = errors.New("transport: queue full")

	// ErrSendUnsupported is returned by transports that never reply.
	ErrSendUnsupported = errors.New("transport: send not supported")
)
