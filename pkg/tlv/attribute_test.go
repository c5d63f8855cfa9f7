package tlv

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestBuilder_Encoding(t *testing.T) {
	got, err := NewBuilder().
		AddUint8(AttrVersion, Version10).
		AddUint8(AttrMessageType, uint8(MsgM1)).
		AddUint16(AttrDevicePasswordID, 0x0004).
		AddUint32(AttrOSVersion, 0x80000001).
		AddString(AttrSSID, "home").
		Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	want := mustHex(t, ""+
		"104a000110"+
		"1022000104"+
		"101200020004"+
		"102d000480000001"+
		"10450004686f6d65")
	if !bytes.Equal(got, want) {
		t.Errorf("encoding mismatch\n got %x\nwant %x", got, want)
	}
}

func TestBuilder_ValueTooLong(t *testing.T) {
	_, err := NewBuilder().AddBytes(AttrVendorExtension, make([]byte, MaxValueLen+1)).Bytes()
	if !errors.Is(err, ErrValueTooLong) {
		t.Errorf("err = %v, want ErrValueTooLong", err)
	}
}

func TestParse(t *testing.T) {
	msg := mustHex(t, "104a000110"+"1022000105"+"10450000")
	attrs, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(attrs) != 3 {
		t.Fatalf("got %d attributes, want 3", len(attrs))
	}
	mt, ok := attrs.Get(AttrMessageType)
	if !ok {
		t.Fatal("message type missing")
	}
	if v, _ := mt.Uint8(); MsgType(v) != MsgM2 {
		t.Errorf("message type = %v, want M2", MsgType(v))
	}
	ssid, err := attrs.Value(AttrSSID)
	if err != nil || len(ssid) != 0 {
		t.Errorf("empty SSID: %x, %v", ssid, err)
	}
	if _, err := attrs.Fixed(AttrVersion, 2); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Fixed wrong length err = %v", err)
	}
	if _, err := attrs.Value(AttrUUIDE); !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("missing attribute err = %v", err)
	}
}

func TestParse_Truncated(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"short header", "104a00"},
		{"short value", "104a000210"},
		{"trailing byte", "104a00011010"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(mustHex(t, tc.in)); !errors.Is(err, ErrTruncated) {
				t.Errorf("err = %v, want ErrTruncated", err)
			}
		})
	}
}

func TestBuffer_NextAttribute(t *testing.T) {
	b := NewBufferFrom(mustHex(t, "104a000110"+"101a0002abcd"+"1022"))

	a, ok := b.NextAttribute()
	if !ok || a.Type != AttrVersion {
		t.Fatalf("first attribute = %v/%v", a.Type, ok)
	}
	if b.Pos() != 5 {
		t.Errorf("Pos = %d, want 5", b.Pos())
	}

	a, ok = b.NextAttribute()
	if !ok || a.Type != AttrEnrolleeNonce || !bytes.Equal(a.Value, []byte{0xab, 0xcd}) {
		t.Fatalf("second attribute = %v %x %v", a.Type, a.Value, ok)
	}

	// A truncated trailing header never moves the cursor.
	pos := b.Pos()
	if _, ok := b.NextAttribute(); ok {
		t.Error("truncated attribute decoded")
	}
	if b.Pos() != pos {
		t.Errorf("cursor moved on failure: %d -> %d", pos, b.Pos())
	}
}

func TestBuffer_Find(t *testing.T) {
	b := NewBufferFrom(mustHex(t, "104a000110"+"1022000104"+"1039000411223344"))
	a, ok := b.Find(AttrRegistrarNonce)
	if !ok {
		t.Fatal("registrar nonce not found")
	}
	if !bytes.Equal(a.Value, mustHex(t, "11223344")) {
		t.Errorf("value = %x", a.Value)
	}
	if b.Remaining() != 0 {
		t.Errorf("cursor not after match: remaining %d", b.Remaining())
	}

	b.Rewind()
	if _, ok := b.Find(AttrEnrolleeNonce); ok {
		t.Error("found absent attribute")
	}
}

func TestTypeStrings(t *testing.T) {
	if AttrPublicKey.String() != "Public Key" {
		t.Errorf("AttrPublicKey = %q", AttrPublicKey.String())
	}
	if AttrType(0x2000).String() != "0x2000" {
		t.Errorf("unknown attr = %q", AttrType(0x2000).String())
	}
	if MsgWSCDone.String() != "WSC_Done" {
		t.Errorf("MsgWSCDone = %q", MsgWSCDone.String())
	}
	if MsgType(0x42).String() != "Unknown(0x42)" {
		t.Errorf("unknown msg = %q", MsgType(0x42).String())
	}
}
