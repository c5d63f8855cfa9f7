package config

import "errors"

var (
	// ErrInvalidName is returned for an empty name or one containing '='
	// or whitespace.
	ErrInvalidName = errors.New("config: invalid name")

	// ErrInvalidLine is returned for a line that is not "name=value".
	ErrInvalidLine = errors.New("config: invalid line")

	// ErrInvalidDocument is returned when a YAML document is not a mapping
	// of scalars, sequences of scalars and nested mappings.
	ErrInvalidDocument = errors.New("config: invalid YAML document")
)
