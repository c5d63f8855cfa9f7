// Package transport provides the packet sources the monitor polls: a UDP
// transport for the local UI socket and the EAP and UPnP proxies, an
// in-process queue for push-button and NFC events, and an impairable
// in-memory link that stands in for the radio path.
package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/backkem/wps/pkg/monitor"
	"github.com/backkem/wps/pkg/tlv"
	"github.com/pion/logging"
)

// MaxPacketSize bounds a single registration datagram.
const MaxPacketSize = 4096

// DefaultQueueSize is the number of received datagrams buffered until the
// monitor polls them.
const DefaultQueueSize = 16

// Packet is a received datagram.
type Packet struct {
	Data []byte
	Addr net.Addr
}

// UDP is a datagram transport. A read loop queues incoming datagrams and
// CheckForPacket hands them to the monitor one at a time without blocking.
// Replies go to the fixed peer when one is configured and otherwise to the
// sender of the last polled packet.
type UDP struct {
	conn    net.PacketConn
	kind    monitor.Kind
	peer    net.Addr
	packets chan Packet
	closeCh chan struct{}
	wg      sync.WaitGroup
	dropped atomic.Uint64
	log     logging.LeveledLogger

	mu       sync.RWMutex
	lastPeer net.Addr
	started  bool
	closed   bool
}

// UDPConfig configures the UDP transport.
type UDPConfig struct {
	// Conn is an optional pre-existing PacketConn to use.
	// If nil, a new connection will be created using ListenAddr.
	Conn net.PacketConn

	// ListenAddr is the address to listen on (e.g., "127.0.0.1:38000").
	// Ignored if Conn is provided.
	ListenAddr string

	// Kind selects the monitor sub-handler for packets from this transport.
	Kind monitor.Kind

	// Peer, when set, receives every reply.
	Peer net.Addr

	// QueueSize defaults to DefaultQueueSize.
	QueueSize int

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewUDP creates a new UDP transport with the given configuration.
func NewUDP(config UDPConfig) (*UDP, error) {
	size := config.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	u := &UDP{
		conn:    config.Conn,
		kind:    config.Kind,
		peer:    config.Peer,
		packets: make(chan Packet, size),
		closeCh: make(chan struct{}),
	}

	if config.LoggerFactory != nil {
		u.log = config.LoggerFactory.NewLogger("transport-udp")
	}

	if u.conn == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = "127.0.0.1:0"
		}
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return nil, err
		}
		u.conn = conn
	}

	return u, nil
}

// Start begins the read loop.
func (u *UDP) Start() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}
	if u.started {
		u.mu.Unlock()
		return ErrAlreadyStarted
	}
	u.started = true
	u.mu.Unlock()

	if u.log != nil {
		u.log.Infof("starting %v transport on %s", u.kind, u.conn.LocalAddr())
	}

	u.wg.Add(1)
	go u.readLoop()

	return nil
}

// Stop closes the transport and waits for the read loop to exit.
func (u *UDP) Stop() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}
	u.closed = true
	u.mu.Unlock()

	if u.log != nil {
		u.log.Infof("stopping %v transport", u.kind)
	}

	close(u.closeCh)

	// Unblock a pending read.
	u.conn.SetReadDeadline(time.Now())
	u.conn.Close()
	u.wg.Wait()

	return nil
}

// Kind implements monitor.Transport.
func (u *UDP) Kind() monitor.Kind {
	return u.kind
}

// CheckForPacket implements monitor.Transport.
func (u *UDP) CheckForPacket(buf *tlv.Buffer) bool {
	select {
	case p := <-u.packets:
		buf.Reset()
		buf.Append(p.Data)
		u.mu.Lock()
		u.lastPeer = p.Addr
		u.mu.Unlock()
		return true
	default:
		return false
	}
}

// Send implements monitor.Transport.
func (u *UDP) Send(msg []byte) error {
	u.mu.RLock()
	addr := u.peer
	if addr == nil {
		addr = u.lastPeer
	}
	u.mu.RUnlock()

	if addr == nil {
		return ErrNoPeer
	}
	return u.SendTo(msg, addr)
}

// SendTo sends a datagram to addr.
func (u *UDP) SendTo(data []byte, addr net.Addr) error {
	u.mu.RLock()
	if u.closed {
		u.mu.RUnlock()
		return ErrClosed
	}
	u.mu.RUnlock()

	if addr == nil {
		return ErrInvalidAddress
	}

	if len(data) > MaxPacketSize {
		return ErrMessageTooLarge
	}

	if u.log != nil {
		u.log.Debugf("sending %d bytes to %v", len(data), addr)
	}

	_, err := u.conn.WriteTo(data, addr)
	if err != nil {
		if u.log != nil {
			u.log.Warnf("send failed: %v", err)
		}
		return err
	}

	return nil
}

// LocalAddr returns the local address the transport is listening on.
func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// Dropped returns the number of datagrams discarded because the queue was
// full.
func (u *UDP) Dropped() uint64 {
	return u.dropped.Load()
}

func (u *UDP) readLoop() {
	defer u.wg.Done()

	buf := make([]byte, MaxPacketSize)

	for {
		select {
		case <-u.closeCh:
			return
		default:
		}

		n, addr, err := u.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-u.closeCh:
				return
			default:
				if u.log != nil {
					u.log.Warnf("%v read error: %v", u.kind, err)
				}
				continue
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		if u.log != nil {
			u.log.Debugf("received %d bytes from %v", n, addr)
		}

		select {
		case u.packets <- Packet{Data: data, Addr: addr}:
		default:
			u.dropped.Add(1)
			if u.log != nil {
				u.log.Warnf("%v queue full, dropped %d bytes from %v", u.kind, n, addr)
			}
		}
	}
}

var _ monitor.Transport = (*UDP)(nil)
