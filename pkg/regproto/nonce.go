package regproto

import (
	"crypto/subtle"

	"github.com/backkem/wps/pkg/crypto"
	"github.com/backkem/wps/pkg/tlv"
)

// Nonce is a 128-bit enrollee, registrar or secret nonce.
type Nonce [crypto.NonceLen]byte

// CheckNonce scans msg from its start for the nonce attribute id and
// compares its value against expected.
//
// Whatever the outcome, the cursor of msg is restored to where it was
// before the call; callers rely on this to chain scans over one buffer.
func CheckNonce(expected Nonce, msg *tlv.Buffer, id tlv.AttrType) error {
	got, err := GetNonce(msg, id)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(got[:], expected[:]) != 1 {
		return ErrNonceMismatch
	}
	return nil
}

// GetNonce scans msg from its start for the nonce attribute id and returns
// its value. The cursor is restored on every path, as in CheckNonce.
func GetNonce(msg *tlv.Buffer, id tlv.AttrType) (Nonce, error) {
	var n Nonce
	if msg == nil || id == 0 {
		return n, ErrInvalidParameters
	}

	pos := msg.Pos()
	defer msg.SetPos(pos)

	msg.Rewind()
	attr, ok := msg.Find(id)
	if !ok {
		return n, ErrRequiredAttributeMissing
	}
	if len(attr.Value) != crypto.NonceLen {
		return n, ErrInvalidParameters
	}
	copy(n[:], attr.Value)
	return n, nil
}

// GetMessageType reads the two mandatory leading attributes of a message,
// Version and Message Type, and returns the message type. The message is
// not consumed: the cursor is restored before returning.
func GetMessageType(msg *tlv.Buffer) (tlv.MsgType, error) {
	if msg == nil {
		return 0, ErrInvalidParameters
	}

	pos := msg.Pos()
	defer msg.SetPos(pos)

	msg.Rewind()
	version, ok := msg.NextAttribute()
	if !ok || version.Type != tlv.AttrVersion || len(version.Value) != 1 {
		return 0, ErrInvalidParameters
	}
	msgType, ok := msg.NextAttribute()
	if !ok || msgType.Type != tlv.AttrMessageType || len(msgType.Value) != 1 {
		return 0, ErrInvalidParameters
	}
	return tlv.MsgType(msgType.Value[0]), nil
}

// lastAttribute walks every attribute in buf and returns the offset and
// contents of the final one. The buffer must hold a whole number of
// attributes. The cursor is restored.
func lastAttribute(buf *tlv.Buffer) (int, tlv.Attribute, error) {
	pos := buf.Pos()
	defer buf.SetPos(pos)

	buf.Rewind()
	offset := -1
	var last tlv.Attribute
	for buf.Remaining() > 0 {
		start := buf.Pos()
		attr, ok := buf.NextAttribute()
		if !ok {
			return 0, tlv.Attribute{}, ErrInvalidParameters
		}
		offset, last = start, attr
	}
	if offset < 0 {
		return 0, tlv.Attribute{}, ErrRequiredAttributeMissing
	}
	return offset, last, nil
}
