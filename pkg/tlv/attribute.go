package tlv

import (
	"encoding/binary"

	"golang.org/x/crypto/cryptobyte"
)

// MaxValueLen is the largest value the 16-bit length field can describe.
const MaxValueLen = 0xFFFF

// Attribute is a single decoded attribute. Value aliases the input it was
// decoded from.
type Attribute struct {
	Type  AttrType
	Value []byte
}

// Uint8 returns a 1-byte attribute value.
func (a Attribute) Uint8() (uint8, error) {
	if len(a.Value) != 1 {
		return 0, ErrInvalidLength
	}
	return a.Value[0], nil
}

// Uint16 returns a 2-byte big-endian attribute value.
func (a Attribute) Uint16() (uint16, error) {
	if len(a.Value) != 2 {
		return 0, ErrInvalidLength
	}
	return binary.BigEndian.Uint16(a.Value), nil
}

// Uint32 returns a 4-byte big-endian attribute value.
func (a Attribute) Uint32() (uint32, error) {
	if len(a.Value) != 4 {
		return 0, ErrInvalidLength
	}
	return binary.BigEndian.Uint32(a.Value), nil
}

// EncodedLen returns the size of the attribute on the wire.
func (a Attribute) EncodedLen() int {
	return HeaderSize + len(a.Value)
}

// NextAttribute decodes the attribute at the cursor and advances past it.
// On a truncated attribute it returns false and the cursor does not move.
func (b *Buffer) NextAttribute() (Attribute, bool) {
	s := cryptobyte.String(b.Cursor())
	var (
		t     uint16
		value cryptobyte.String
	)
	if !s.ReadUint16(&t) || !s.ReadUint16LengthPrefixed(&value) {
		return Attribute{}, false
	}
	b.pos += HeaderSize + len(value)
	return Attribute{Type: AttrType(t), Value: value}, true
}

// SkipAttribute advances the cursor over one whole attribute. It never
// skips a partial attribute.
func (b *Buffer) SkipAttribute() bool {
	_, ok := b.NextAttribute()
	return ok
}

// Find scans forward from the cursor for the first attribute of type t,
// skipping whole attributes. On success the cursor is left just past the
// match; on failure it is left where the scan stopped. Restoring the cursor
// is up to the caller.
func (b *Buffer) Find(t AttrType) (Attribute, bool) {
	for {
		attr, ok := b.NextAttribute()
		if !ok {
			return Attribute{}, false
		}
		if attr.Type == t {
			return attr, true
		}
	}
}

// Attributes is a decoded attribute sequence in document order.
type Attributes []Attribute

// Get returns the first attribute of type t.
func (as Attributes) Get(t AttrType) (Attribute, bool) {
	for _, a := range as {
		if a.Type == t {
			return a, true
		}
	}
	return Attribute{}, false
}

// Value returns the value of the first attribute of type t, or
// ErrAttributeNotFound.
func (as Attributes) Value(t AttrType) ([]byte, error) {
	a, ok := as.Get(t)
	if !ok {
		return nil, ErrAttributeNotFound
	}
	return a.Value, nil
}

// Fixed returns the value of the first attribute of type t and checks it
// has exactly n bytes.
func (as Attributes) Fixed(t AttrType, n int) ([]byte, error) {
	v, err := as.Value(t)
	if err != nil {
		return nil, err
	}
	if len(v) != n {
		return nil, ErrInvalidLength
	}
	return v, nil
}

// Parse decodes every attribute in b. The returned values alias b.
func Parse(b []byte) (Attributes, error) {
	s := cryptobyte.String(b)
	var attrs Attributes
	for !s.Empty() {
		var (
			t     uint16
			value cryptobyte.String
		)
		if !s.ReadUint16(&t) || !s.ReadUint16LengthPrefixed(&value) {
			return nil, ErrTruncated
		}
		attrs = append(attrs, Attribute{Type: AttrType(t), Value: value})
	}
	return attrs, nil
}

// Builder encodes an attribute sequence.
type Builder struct {
	b   *cryptobyte.Builder
	err error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{b: cryptobyte.NewBuilder(nil)}
}

// AddBytes appends an attribute with a raw value.
func (w *Builder) AddBytes(t AttrType, value []byte) *Builder {
	if w.err != nil {
		return w
	}
	if len(value) > MaxValueLen {
		w.err = ErrValueTooLong
		return w
	}
	w.b.AddUint16(uint16(t))
	w.b.AddUint16LengthPrefixed(func(child *cryptobyte.Builder) {
		child.AddBytes(value)
	})
	return w
}

// AddString appends an attribute with a string value.
func (w *Builder) AddString(t AttrType, value string) *Builder {
	return w.AddBytes(t, []byte(value))
}

// AddUint8 appends a 1-byte attribute.
func (w *Builder) AddUint8(t AttrType, v uint8) *Builder {
	return w.AddBytes(t, []byte{v})
}

// AddUint16 appends a 2-byte big-endian attribute.
func (w *Builder) AddUint16(t AttrType, v uint16) *Builder {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return w.AddBytes(t, buf[:])
}

// AddUint32 appends a 4-byte big-endian attribute.
func (w *Builder) AddUint32(t AttrType, v uint32) *Builder {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return w.AddBytes(t, buf[:])
}

// AddAttribute appends an already decoded attribute.
func (w *Builder) AddAttribute(a Attribute) *Builder {
	return w.AddBytes(a.Type, a.Value)
}

// AddRaw appends pre-encoded attribute bytes verbatim.
func (w *Builder) AddRaw(encoded []byte) *Builder {
	if w.err != nil {
		return w
	}
	w.b.AddBytes(encoded)
	return w
}

// Bytes returns the encoded sequence or the first error recorded while
// building it.
func (w *Builder) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.b.Bytes()
}

// Encode is a convenience for a single attribute.
func Encode(t AttrType, value []byte) ([]byte, error) {
	return NewBuilder().AddBytes(t, value).Bytes()
}
