package transport

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// Impairment degrades frames written to a Link.
type Impairment struct {
	// Loss is the probability a frame is lost (0.0 - 1.0).
	Loss float64

	// Duplication is the probability a frame arrives twice (0.0 - 1.0).
	Duplication float64
}

// LinkConfig configures a Link.
type LinkConfig struct {
	// Manual disables background delivery; frames then move only on Flush.
	Manual bool

	// Interval is the background delivery period. Default: 1ms
	Interval time.Duration

	// Seed seeds the impairment decisions. Zero picks a time-based seed.
	Seed int64
}

// LinkStats counts frames written to a Link.
type LinkStats struct {
	Frames     uint64
	Lost       uint64
	Duplicated uint64
}

// Link is an in-memory datagram link between two stations, such as an
// enrollee and the registrar behind an EAP proxy. Each end is a
// net.PacketConn, so a UDP transport runs over it unchanged.
type Link struct {
	bridge *test.Bridge

	mu       sync.Mutex
	imp      Impairment
	dropNext int
	stats    LinkStats
	rng      *rand.Rand
	closed   bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewLink creates a link. Unless cfg.Manual is set, frames are delivered
// in the background every cfg.Interval.
func NewLink(cfg LinkConfig) *Link {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	l := &Link{
		bridge: test.NewBridge(),
		rng:    rand.New(rand.NewSource(seed)),
		stopCh: make(chan struct{}),
	}
	if !cfg.Manual {
		interval := cfg.Interval
		if interval <= 0 {
			interval = time.Millisecond
		}
		l.wg.Add(1)
		go l.deliver(interval)
	}
	return l
}

func (l *Link) deliver(interval time.Duration) {
	defer l.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.Flush()
		}
	}
}

// Impair sets the impairment for both directions.
func (l *Link) Impair(imp Impairment) {
	l.mu.Lock()
	l.imp = imp
	l.mu.Unlock()
}

// DropNext loses the next n frames written in either direction, whatever
// the impairment.
func (l *Link) DropNext(n int) {
	l.mu.Lock()
	l.dropNext = n
	l.mu.Unlock()
}

// Stats returns the frame counters.
func (l *Link) Stats() LinkStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Flush delivers every queued frame and returns how many moved.
func (l *Link) Flush() int {
	count := 0
	for {
		n := l.bridge.Tick()
		if n == 0 {
			return count
		}
		count += n
	}
}

// Station returns end 0 or 1 of the link.
func (l *Link) Station(end int) *Station {
	conn := l.bridge.GetConn0()
	if end == 1 {
		conn = l.bridge.GetConn1()
	}
	return &Station{conn: conn, local: LinkAddr(end), peer: LinkAddr(1 - end), link: l}
}

// Close stops delivery and closes both ends.
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.stopCh)
	l.wg.Wait()

	err0 := l.bridge.GetConn0().Close()
	if err1 := l.bridge.GetConn1().Close(); err0 == nil {
		err0 = err1
	}
	return err0
}

// fate decides how many copies of a frame to deliver.
func (l *Link) fate() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.Frames++
	if l.dropNext > 0 {
		l.dropNext--
		l.stats.Lost++
		return 0
	}
	if l.imp.Loss > 0 && l.rng.Float64() < l.imp.Loss {
		l.stats.Lost++
		return 0
	}
	if l.imp.Duplication > 0 && l.rng.Float64() < l.imp.Duplication {
		l.stats.Duplicated++
		return 2
	}
	return 1
}

// LinkAddr addresses a link end.
type LinkAddr int

// Network implements net.Addr.
func (a LinkAddr) Network() string { return "wps-link" }

func (a LinkAddr) String() string { return fmt.Sprintf("link:%d", int(a)) }

// Station is one end of a Link. Every frame it reads comes from the other
// end and every frame it writes goes there, whatever the address.
type Station struct {
	conn  net.Conn
	local LinkAddr
	peer  LinkAddr
	link  *Link
}

// ReadFrom implements net.PacketConn.
func (s *Station) ReadFrom(b []byte) (int, net.Addr, error) {
	n, err := s.conn.Read(b)
	return n, s.peer, err
}

// WriteTo implements net.PacketConn. A lost frame still reports success.
func (s *Station) WriteTo(b []byte, _ net.Addr) (int, error) {
	copies := s.link.fate()
	for i := 0; i < copies; i++ {
		if _, err := s.conn.Write(b); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

func (s *Station) Close() error                       { return s.conn.Close() }
func (s *Station) LocalAddr() net.Addr                { return s.local }
func (s *Station) SetDeadline(t time.Time) error      { return s.conn.SetDeadline(t) }
func (s *Station) SetReadDeadline(t time.Time) error  { return s.conn.SetReadDeadline(t) }
func (s *Station) SetWriteDeadline(t time.Time) error { return s.conn.SetWriteDeadline(t) }

var _ net.PacketConn = (*Station)(nil)
