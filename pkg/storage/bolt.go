package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/backkem/wps/pkg/regproto"
	"github.com/pion/logging"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketName    = []byte("wps")
	credentialKey = []byte("credential")
	stateKey      = []byte("state")
)

// BoltConfig configures a bolt-backed store.
type BoltConfig struct {
	// Path is the database file.
	Path string

	// Timeout bounds waiting for the file lock. Defaults to one second.
	Timeout time.Duration

	LoggerFactory logging.LoggerFactory
}

// Bolt is a Store in a bbolt database file.
type Bolt struct {
	db  *bolt.DB
	log logging.LeveledLogger

	mu     sync.Mutex
	closed bool
}

// OpenBolt opens (or creates) the database at cfg.Path.
func OpenBolt(cfg BoltConfig) (*Bolt, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	db, err := bolt.Open(cfg.Path, 0600, &bolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.Path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create bucket: %w", err)
	}

	b := &Bolt{db: db}
	if cfg.LoggerFactory != nil {
		b.log = cfg.LoggerFactory.NewLogger("storage")
		b.log.Debugf("opened %s", cfg.Path)
	}
	return b, nil
}

func (b *Bolt) get(key []byte) ([]byte, error) {
	if b.isClosed() {
		return nil, ErrClosed
	}
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (b *Bolt) put(key, value []byte) error {
	if b.isClosed() {
		return ErrClosed
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

func (b *Bolt) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Bolt) LoadCredential() (*regproto.Credential, error) {
	data, err := b.get(credentialKey)
	if err != nil {
		return nil, err
	}
	return decodeCredential(data)
}

func (b *Bolt) SaveCredential(c *regproto.Credential) error {
	data, err := encodeCredential(c, time.Now())
	if err != nil {
		return err
	}
	if err := b.put(credentialKey, data); err != nil {
		return err
	}
	if b.log != nil {
		b.log.Infof("saved credential for SSID %q", c.SSID)
	}
	return nil
}

func (b *Bolt) LoadState() (*State, error) {
	data, err := b.get(stateKey)
	if err != nil {
		return nil, err
	}
	return decodeState(data)
}

func (b *Bolt) SaveState(s *State) error {
	data, err := encodeState(s, time.Now())
	if err != nil {
		return err
	}
	return b.put(stateKey, data)
}

func (b *Bolt) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.db.Close()
}
