package transport

import (
	"sync"

	"github.com/backkem/wps/pkg/monitor"
	"github.com/backkem/wps/pkg/tlv"
)

// Queue is an in-process packet source for events raised by other
// goroutines, such as a push-button press or a token read by an NFC reader.
// It never replies.
type Queue struct {
	kind    monitor.Kind
	packets chan []byte

	mu     sync.Mutex
	closed bool
}

// NewQueue returns a queue of the given kind holding up to size pending
// packets (DefaultQueueSize when size is not positive).
func NewQueue(kind monitor.Kind, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{kind: kind, packets: make(chan []byte, size)}
}

// Push queues a copy of data. Safe for concurrent use.
func (q *Queue) Push(data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.packets <- append([]byte(nil), data...):
		return nil
	default:
		return ErrQueueFull
	}
}

// Close makes further pushes fail. Queued packets can still be polled.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Kind implements monitor.Transport.
func (q *Queue) Kind() monitor.Kind {
	return q.kind
}

// CheckForPacket implements monitor.Transport.
func (q *Queue) CheckForPacket(buf *tlv.Buffer) bool {
	select {
	case p := <-q.packets:
		buf.Reset()
		buf.Append(p)
		return true
	default:
		return false
	}
}

// Send implements monitor.Transport.
func (q *Queue) Send([]byte) error {
	return ErrSendUnsupported
}

var _ monitor.Transport = (*Queue)(nil)
