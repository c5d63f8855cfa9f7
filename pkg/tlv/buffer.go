package tlv

import "encoding/binary"

// Buffer is a growable byte sequence with a scan cursor.
//
// The cursor is an offset from the start of the buffer, so appending never
// invalidates it. Scanning helpers move the cursor; callers that share a
// buffer across several scans are expected to Rewind when they are done.
//
// A Buffer is owned by one goroutine at a time.
type Buffer struct {
	data []byte
	pos  int
	mark int
}

// NewBuffer returns an empty buffer with the cursor at 0.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewBufferFrom returns a buffer holding a copy of b.
func NewBufferFrom(b []byte) *Buffer {
	buf := &Buffer{}
	buf.Append(b)
	return buf
}

// Append copies b to the end of the buffer.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Bytes returns the buffer contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the current length of the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Pos returns the cursor offset.
func (b *Buffer) Pos() int {
	return b.pos
}

// Remaining returns the number of bytes between the cursor and the end.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// Cursor returns the bytes from the cursor to the end of the buffer.
func (b *Buffer) Cursor() []byte {
	return b.data[b.pos:]
}

// NextType peeks the attribute type at the cursor without advancing.
// It returns 0 when less than a full attribute header remains.
func (b *Buffer) NextType() AttrType {
	if b.Remaining() < HeaderSize {
		return 0
	}
	return AttrType(binary.BigEndian.Uint16(b.data[b.pos:]))
}

// Advance moves the cursor forward by exactly n bytes. It returns false and
// leaves the cursor unchanged if that would move past the end of the buffer.
func (b *Buffer) Advance(n int) bool {
	if n < 0 || n > b.Remaining() {
		return false
	}
	b.pos += n
	return true
}

// Rewind resets the cursor to the start of the buffer.
func (b *Buffer) Rewind() {
	b.pos = 0
}

// Mark records the current cursor position.
func (b *Buffer) Mark() {
	b.mark = b.pos
}

// RewindToMark restores the cursor to the last Mark.
func (b *Buffer) RewindToMark() {
	if b.mark > len(b.data) {
		b.mark = len(b.data)
	}
	b.pos = b.mark
}

// SetPos moves the cursor to an absolute offset. It returns false for an
// offset outside [0, Len()].
func (b *Buffer) SetPos(pos int) bool {
	if pos < 0 || pos > len(b.data) {
		return false
	}
	b.pos = pos
	return true
}

// Reset clears the contents and the cursor.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.pos = 0
	b.mark = 0
}

// RewindLength logically truncates the buffer to n bytes, used after an
// in-place transformation that shrank the payload. The cursor and mark are
// clamped to the new length. It returns false when n exceeds the length.
func (b *Buffer) RewindLength(n int) bool {
	if n < 0 || n > len(b.data) {
		return false
	}
	b.data = b.data[:n]
	if b.pos > n {
		b.pos = n
	}
	if b.mark > n {
		b.mark = n
	}
	return true
}
