package monitor

import (
	"errors"
	"testing"

	"github.com/backkem/wps/pkg/tlv"
)

// fakeTransport queues packets for CheckForPacket and records sends.
type fakeTransport struct {
	kind    Kind
	queue   [][]byte
	sent    [][]byte
	sendErr error

	// peer, when set, receives everything sent.
	peer *fakeTransport

	onCheck func()
}

func newFake(kind Kind, packets ...[]byte) *fakeTransport {
	return &fakeTransport{kind: kind, queue: packets}
}

func (f *fakeTransport) Kind() Kind { return f.kind }

func (f *fakeTransport) CheckForPacket(buf *tlv.Buffer) bool {
	if f.onCheck != nil {
		f.onCheck()
	}
	if len(f.queue) == 0 {
		return false
	}
	buf.Reset()
	buf.Append(f.queue[0])
	f.queue = f.queue[1:]
	return true
}

func (f *fakeTransport) Send(msg []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	msg = append([]byte(nil), msg...)
	f.sent = append(f.sent, msg)
	if f.peer != nil {
		f.peer.queue = append(f.peer.queue, msg)
	}
	return nil
}

func TestRegistry_PollFairness(t *testing.T) {
	r := NewRegistry()
	var handles []*Handle
	for _, p := range []string{"a", "b", "c"} {
		h, err := r.Add(newFake(KindUI, []byte(p)))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		handles = append(handles, h)
	}

	buf := tlv.NewBuffer()
	for i, want := range []string{"a", "b", "c"} {
		h := r.Poll(buf)
		if h != handles[i] {
			t.Fatalf("poll %d: got handle %v, want %v", i, h, handles[i])
		}
		if got := string(buf.Bytes()); got != want {
			t.Errorf("poll %d: packet = %q, want %q", i, got, want)
		}
	}
	if h := r.Poll(buf); h != nil {
		t.Errorf("Poll on drained registry returned handle %d", h.ID())
	}
}

func TestRegistry_PollStartsAfterLastServed(t *testing.T) {
	r := NewRegistry()
	busy := newFake(KindEAP, []byte("1"), []byte("2"), []byte("3"))
	quiet := newFake(KindUI)
	hb, _ := r.Add(busy)
	hq, _ := r.Add(quiet)

	buf := tlv.NewBuffer()
	if h := r.Poll(buf); h != hb {
		t.Fatalf("first poll served %v", h)
	}
	quiet.queue = append(quiet.queue, []byte("ui"))
	if h := r.Poll(buf); h != hq {
		t.Fatalf("second poll should serve the waiting handle first")
	}
	if h := r.Poll(buf); h != hb || string(buf.Bytes()) != "2" {
		t.Fatalf("third poll = %v %q", h, buf.Bytes())
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	a := newFake(KindUI, []byte("a"))
	b := newFake(KindUI, []byte("b"))
	ha, _ := r.Add(a)
	hb, _ := r.Add(b)

	if ha.ID() == hb.ID() {
		t.Fatal("handle ids must be unique")
	}
	if err := r.Remove(ha); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := r.Remove(ha); !errors.Is(err, ErrHandleNotFound) {
		t.Errorf("second Remove error = %v, want ErrHandleNotFound", err)
	}
	if r.Len() != 1 || r.Handles()[0] != hb {
		t.Fatalf("registry = %v, want only b", r.Handles())
	}

	// Identity, not value, selects the handle.
	if err := r.Remove(&Handle{id: hb.ID(), t: b}); !errors.Is(err, ErrHandleNotFound) {
		t.Errorf("Remove by copy error = %v, want ErrHandleNotFound", err)
	}

	buf := tlv.NewBuffer()
	if h := r.Poll(buf); h != hb {
		t.Errorf("Poll after Remove = %v, want b", h)
	}
}

func TestRegistry_BusyDuringPoll(t *testing.T) {
	r := NewRegistry()
	f := newFake(KindUI, []byte("x"))
	h, _ := r.Add(f)

	var addErr, removeErr error
	f.onCheck = func() {
		_, addErr = r.Add(newFake(KindNFC))
		removeErr = r.Remove(h)
	}
	r.Poll(tlv.NewBuffer())

	if !errors.Is(addErr, ErrBusy) {
		t.Errorf("Add during poll error = %v, want ErrBusy", addErr)
	}
	if !errors.Is(removeErr, ErrBusy) {
		t.Errorf("Remove during poll error = %v, want ErrBusy", removeErr)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_Empty(t *testing.T) {
	if h := NewRegistry().Poll(tlv.NewBuffer()); h != nil {
		t.Errorf("Poll on empty registry = %v", h)
	}
}
