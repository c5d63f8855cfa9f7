// Package storage persists what the monitor must remember across restarts:
// the network credential learned or configured through registration and a
// small state record (last outcome and add-client failure tag).
//
// Records are CBOR encoded. Two backends exist: an in-memory store for tests
// and a bbolt file store for the daemon.
package storage

import (
	"fmt"
	"time"

	"github.com/backkem/wps/pkg/regproto"
	"github.com/fxamacker/cbor/v2"
)

// RecordVersion is the current version of stored records.
const RecordVersion = 1

// State is the persisted monitor state.
type State struct {
	Version int `cbor:"1,keyasint"`

	// FailureTag is the remembered add-client window failure tag.
	FailureTag uint8 `cbor:"2,keyasint"`

	// LastMode, LastStatus and LastCode describe the last terminal outcome.
	LastMode   uint8 `cbor:"3,keyasint"`
	LastStatus uint8 `cbor:"4,keyasint"`
	LastCode   uint8 `cbor:"5,keyasint"`

	// Configured is set once a credential was stored.
	Configured bool `cbor:"6,keyasint"`

	SavedAt time.Time `cbor:"7,keyasint"`
}

// credentialRecord wraps the Credential attribute value as sent on the wire.
type credentialRecord struct {
	Version int       `cbor:"1,keyasint"`
	Value   []byte    `cbor:"2,keyasint"`
	SavedAt time.Time `cbor:"3,keyasint"`
}

// Store loads and saves the persisted records.
type Store interface {
	LoadCredential() (*regproto.Credential, error)
	SaveCredential(c *regproto.Credential) error
	LoadState() (*State, error)
	SaveState(s *State) error
	Close() error
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}
	if encMode, err = encOpts.EncMode(); err != nil {
		panic(fmt.Sprintf("storage: CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}
	if decMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("storage: CBOR decoder mode: %v", err))
	}
}

func encodeCredential(c *regproto.Credential, now time.Time) ([]byte, error) {
	value, err := c.Value()
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(credentialRecord{Version: RecordVersion, Value: value, SavedAt: now})
}

func decodeCredential(data []byte) (*regproto.Credential, error) {
	var rec credentialRecord
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("storage: decode credential: %w", err)
	}
	return regproto.ParseCredential(rec.Value)
}

func encodeState(s *State, now time.Time) ([]byte, error) {
	rec := *s
	rec.Version = RecordVersion
	if rec.SavedAt.IsZero() {
		rec.SavedAt = now
	}
	return encMode.Marshal(&rec)
}

func decodeState(data []byte) (*State, error) {
	var s State
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("storage: decode state: %w", err)
	}
	return &s, nil
}
