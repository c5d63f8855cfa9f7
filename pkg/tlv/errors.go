package tlv

import "errors"

var (
	// ErrTruncated is returned when an attribute header or value runs past the end of input.
	ErrTruncated = errors.New("tlv: truncated attribute")

	// ErrValueTooLong is returned when an attribute value does not fit the 16-bit length field.
	ErrValueTooLong = errors.New("tlv: value too long")

	// ErrInvalidLength is returned when a fixed-size attribute has the wrong length.
	ErrInvalidLength = errors.New("tlv: invalid attribute length")

	// ErrAttributeNotFound is returned when a lookup does not find the requested attribute.
	ErrAttributeNotFound = errors.New("tlv: attribute not found")
)
