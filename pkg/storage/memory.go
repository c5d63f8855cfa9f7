package storage

import (
	"sync"
	"time"

	"github.com/backkem/wps/pkg/regproto"
)

// Memory is a Store kept in process memory. Records still go through the
// CBOR encoding so both backends behave alike.
type Memory struct {
	mu         sync.Mutex
	credential []byte
	state      []byte
	closed     bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadCredential() (*regproto.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.credential == nil {
		return nil, ErrNotFound
	}
	return decodeCredential(m.credential)
}

func (m *Memory) SaveCredential(c *regproto.Credential) error {
	data, err := encodeCredential(c, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.credential = data
	return nil
}

func (m *Memory) LoadState() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.state == nil {
		return nil, ErrNotFound
	}
	return decodeState(m.state)
}

func (m *Memory) SaveState(s *State) error {
	data, err := encodeState(s, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.state = data
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
