package storage

import (
	"bytes"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/backkem/wps/pkg/regproto"
)

var testCredential = &regproto.Credential{
	SSID:       []byte("home"),
	AuthType:   regproto.AuthWPA2PSK,
	EncrType:   regproto.EncrAES,
	NetworkKey: []byte("secret-passphrase"),
	MACAddress: net.HardwareAddr{0x02, 0x01, 0x02, 0x03, 0x04, 0x05},
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBolt(BoltConfig{Path: filepath.Join(t.TempDir(), "wps.db")})
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"bolt":   b,
	}
}

func TestStore_Credential(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.LoadCredential(); !errors.Is(err, ErrNotFound) {
				t.Fatalf("empty store: err = %v, want ErrNotFound", err)
			}
			if err := s.SaveCredential(testCredential); err != nil {
				t.Fatalf("SaveCredential failed: %v", err)
			}
			got, err := s.LoadCredential()
			if err != nil {
				t.Fatalf("LoadCredential failed: %v", err)
			}
			if !bytes.Equal(got.SSID, testCredential.SSID) || !bytes.Equal(got.NetworkKey, testCredential.NetworkKey) ||
				got.AuthType != testCredential.AuthType || got.MACAddress.String() != testCredential.MACAddress.String() {
				t.Errorf("credential = %+v", got)
			}

			bad := *testCredential
			bad.SSID = nil
			if err := s.SaveCredential(&bad); !errors.Is(err, regproto.ErrInvalidCredential) {
				t.Errorf("invalid credential: err = %v", err)
			}
		})
	}
}

func TestStore_State(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.LoadState(); !errors.Is(err, ErrNotFound) {
				t.Fatalf("empty store: err = %v, want ErrNotFound", err)
			}
			saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			in := &State{FailureTag: 1, LastMode: 2, LastStatus: 3, LastCode: 2, Configured: true, SavedAt: saved}
			if err := s.SaveState(in); err != nil {
				t.Fatalf("SaveState failed: %v", err)
			}
			out, err := s.LoadState()
			if err != nil {
				t.Fatalf("LoadState failed: %v", err)
			}
			if out.Version != RecordVersion {
				t.Errorf("version = %d", out.Version)
			}
			if out.FailureTag != 1 || out.LastMode != 2 || out.LastStatus != 3 || out.LastCode != 2 || !out.Configured {
				t.Errorf("state = %+v", out)
			}
			if !out.SavedAt.Equal(saved) {
				t.Errorf("saved at = %v, want %v", out.SavedAt, saved)
			}
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Close(); err != nil {
				t.Fatal(err)
			}
			if _, err := s.LoadState(); !errors.Is(err, ErrClosed) {
				t.Errorf("LoadState after Close: err = %v", err)
			}
			if err := s.SaveCredential(testCredential); !errors.Is(err, ErrClosed) {
				t.Errorf("SaveCredential after Close: err = %v", err)
			}
		})
	}
}

func TestBolt_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wps.db")
	b, err := OpenBolt(BoltConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SaveCredential(testCredential); err != nil {
		t.Fatal(err)
	}
	b.Close()

	b, err = OpenBolt(BoltConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	got, err := b.LoadCredential()
	if err != nil {
		t.Fatalf("LoadCredential after reopen: %v", err)
	}
	if !bytes.Equal(got.SSID, testCredential.SSID) {
		t.Errorf("SSID = %q", got.SSID)
	}
}

func TestDecode_Corrupt(t *testing.T) {
	if _, err := decodeState([]byte{0xff, 0x00}); err == nil {
		t.Error("decodeState accepted garbage")
	}
	if _, err := decodeCredential([]byte{0xa1}); err == nil {
		t.Error("decodeCredential accepted garbage")
	}
}
