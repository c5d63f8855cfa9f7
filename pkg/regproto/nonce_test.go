package regproto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/backkem/wps/pkg/tlv"
)

func testNonce(b byte) Nonce {
	var n Nonce
	for i := range n {
		n[i] = b + byte(i)
	}
	return n
}

func buildMessage(t *testing.T, msgType tlv.MsgType, extra func(*tlv.Builder)) []byte {
	t.Helper()
	b := tlv.NewBuilder().
		AddUint8(tlv.AttrVersion, tlv.Version10).
		AddUint8(tlv.AttrMessageType, uint8(msgType))
	if extra != nil {
		extra(b)
	}
	out, err := b.Bytes()
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	return out
}

func TestCheckNonce(t *testing.T) {
	enrollee := testNonce(0x10)
	registrar := testNonce(0x80)
	msg := buildMessage(t, tlv.MsgM2, func(b *tlv.Builder) {
		b.AddBytes(tlv.AttrEnrolleeNonce, enrollee[:])
		b.AddBytes(tlv.AttrRegistrarNonce, registrar[:])
	})

	tests := []struct {
		name     string
		msg      []byte
		expected Nonce
		id       tlv.AttrType
		wantErr  error
	}{
		{"match enrollee", msg, enrollee, tlv.AttrEnrolleeNonce, nil},
		{"match registrar", msg, registrar, tlv.AttrRegistrarNonce, nil},
		{"mismatch", msg, registrar, tlv.AttrEnrolleeNonce, ErrNonceMismatch},
		{"missing", msg, enrollee, tlv.AttrESNonce1, ErrRequiredAttributeMissing},
		{"empty message", nil, enrollee, tlv.AttrEnrolleeNonce, ErrRequiredAttributeMissing},
		{"zero id", msg, enrollee, 0, ErrInvalidParameters},
		{
			"short nonce",
			buildMessage(t, tlv.MsgM2, func(b *tlv.Builder) { b.AddBytes(tlv.AttrEnrolleeNonce, enrollee[:8]) }),
			enrollee, tlv.AttrEnrolleeNonce, ErrInvalidParameters,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := tlv.NewBufferFrom(tc.msg)
			err := CheckNonce(tc.expected, buf, tc.id)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	if err := CheckNonce(enrollee, nil, tlv.AttrEnrolleeNonce); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("nil message: err = %v", err)
	}
}

// The cursor is where the caller left it after every outcome.
func TestNonceScan_CursorDiscipline(t *testing.T) {
	n := testNonce(0x01)
	msg := buildMessage(t, tlv.MsgM3, func(b *tlv.Builder) {
		b.AddBytes(tlv.AttrRegistrarNonce, n[:])
		b.AddBytes(tlv.AttrEHash1, bytes.Repeat([]byte{1}, 32))
	})
	buf := tlv.NewBufferFrom(msg)

	for _, start := range []int{0, 5, 10, buf.Len()} {
		for _, id := range []tlv.AttrType{tlv.AttrRegistrarNonce, tlv.AttrEnrolleeNonce} {
			for _, expected := range []Nonce{n, testNonce(0x99)} {
				buf.SetPos(start)
				_ = CheckNonce(expected, buf, id)
				if buf.Pos() != start {
					t.Errorf("CheckNonce(%v) moved cursor %d -> %d", id, start, buf.Pos())
				}
			}
			buf.SetPos(start)
			_, _ = GetNonce(buf, id)
			if buf.Pos() != start {
				t.Errorf("GetNonce(%v) moved cursor %d -> %d", id, start, buf.Pos())
			}
		}
	}
}

func TestGetNonce(t *testing.T) {
	n := testNonce(0x40)
	buf := tlv.NewBufferFrom(buildMessage(t, tlv.MsgM4, func(b *tlv.Builder) {
		b.AddBytes(tlv.AttrEnrolleeNonce, n[:])
	}))
	got, err := GetNonce(buf, tlv.AttrEnrolleeNonce)
	if err != nil {
		t.Fatal(err)
	}
	if got != n {
		t.Errorf("nonce = %x, want %x", got, n)
	}
}

func TestGetMessageType(t *testing.T) {
	tests := []struct {
		name    string
		msg     []byte
		want    tlv.MsgType
		wantErr error
	}{
		{"M1", buildMessage(t, tlv.MsgM1, nil), tlv.MsgM1, nil},
		{"WSC_NACK", buildMessage(t, tlv.MsgWSCNack, nil), tlv.MsgWSCNack, nil},
		{"empty", nil, 0, ErrInvalidParameters},
		{"no version", []byte{0x10, 0x22, 0x00, 0x01, 0x04}, 0, ErrInvalidParameters},
		{"version only", []byte{0x10, 0x4a, 0x00, 0x01, 0x10}, 0, ErrInvalidParameters},
		{"swapped order", []byte{0x10, 0x22, 0x00, 0x01, 0x04, 0x10, 0x4a, 0x00, 0x01, 0x10}, 0, ErrInvalidParameters},
		{"long type", []byte{0x10, 0x4a, 0x00, 0x01, 0x10, 0x10, 0x22, 0x00, 0x02, 0x00, 0x04}, 0, ErrInvalidParameters},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := tlv.NewBufferFrom(tc.msg)
			got, err := GetMessageType(buf)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("type = %v, want %v", got, tc.want)
			}
			if buf.Pos() != 0 {
				t.Errorf("cursor left at %d", buf.Pos())
			}
		})
	}
}
