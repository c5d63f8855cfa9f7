package monitor

import "github.com/backkem/wps/pkg/tlv"

// Transport is one packet source the monitor polls.
type Transport interface {
	// Kind selects the sub-handler for packets from this transport.
	Kind() Kind

	// CheckForPacket copies one pending packet into buf, replacing its
	// contents, and reports whether there was one. It must not block.
	CheckForPacket(buf *tlv.Buffer) bool

	// Send writes a reply to the peer of the last packet.
	Send(msg []byte) error
}

// Handle is a registered transport.
type Handle struct {
	id uint64
	t  Transport
}

// ID returns the registration id, unique within its registry.
func (h *Handle) ID() uint64 { return h.id }

// Transport returns the registered transport.
func (h *Handle) Transport() Transport { return h.t }

// Kind returns the transport kind.
func (h *Handle) Kind() Kind { return h.t.Kind() }

// Registry keeps transport handles in insertion order and polls them round
// robin, starting after the handle that delivered the last packet.
//
// A Registry is not safe for concurrent use; it belongs to the loop.
type Registry struct {
	handles []*Handle
	next    int
	lastID  uint64
	polling bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers t and returns its handle.
func (r *Registry) Add(t Transport) (*Handle, error) {
	if r.polling {
		return nil, ErrBusy
	}
	r.lastID++
	h := &Handle{id: r.lastID, t: t}
	r.handles = append(r.handles, h)
	return h, nil
}

// Remove unregisters h.
func (r *Registry) Remove(h *Handle) error {
	if r.polling {
		return ErrBusy
	}
	for i, cur := range r.handles {
		if cur != h {
			continue
		}
		r.handles = append(r.handles[:i], r.handles[i+1:]...)
		if i < r.next {
			r.next--
		}
		if r.next >= len(r.handles) {
			r.next = 0
		}
		return nil
	}
	return ErrHandleNotFound
}

// Handles returns the registered handles in insertion order.
func (r *Registry) Handles() []*Handle {
	return append([]*Handle(nil), r.handles...)
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	return len(r.handles)
}

// Poll asks each handle once, in order, for a pending packet and returns the
// first one that had one, with the packet in buf. It returns nil when no
// handle had a packet.
func (r *Registry) Poll(buf *tlv.Buffer) *Handle {
	n := len(r.handles)
	if n == 0 {
		return nil
	}
	r.polling = true
	defer func() { r.polling = false }()

	for i := 0; i < n; i++ {
		idx := (r.next + i) % n
		h := r.handles[idx]
		if h.t.CheckForPacket(buf) {
			r.next = (idx + 1) % n
			return h
		}
	}
	return nil
}
