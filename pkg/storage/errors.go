package storage

import "errors"

var (
	// ErrNotFound is returned when nothing has been saved under a key yet.
	ErrNotFound = errors.New("storage: not found")

	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("storage: closed")
)
