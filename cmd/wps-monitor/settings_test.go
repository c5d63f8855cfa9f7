package main

import (
	"errors"
	"net"
	"testing"

	"github.com/backkem/wps/pkg/config"
	"github.com/backkem/wps/pkg/monitor"
	"github.com/backkem/wps/pkg/regproto"
	"github.com/backkem/wps/pkg/storage"
	"github.com/google/uuid"
)

func confStore(t *testing.T, entries ...string) *config.Store {
	t.Helper()
	s, err := config.NewStore(entries...)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestLoadIdentity(t *testing.T) {
	conf := confStore(t,
		"wps_mac=02:11:22:33:44:55",
		"wps_device_name=office-ap",
		"wps_ssid=home",
		"wps_psk=secretpassphrase",
	)
	cfg := monitor.Config{PushButton: true}

	id, err := loadIdentity(conf.Get, &cfg, storage.NewMemory())
	if err != nil {
		t.Fatalf("loadIdentity failed: %v", err)
	}
	if id.MAC.String() != "02:11:22:33:44:55" {
		t.Errorf("MAC = %v", id.MAC)
	}
	if id.UUID != uuid.NewSHA1(uuid.NameSpaceOID, id.MAC) {
		t.Errorf("UUID = %v, want the MAC-derived UUID", id.UUID)
	}
	if id.Device.DeviceName != "office-ap" || id.Device.SerialNumber != "02:11:22:33:44:55" {
		t.Errorf("Device = %+v", id.Device)
	}
	if id.Device.ConfigMethods&regproto.ConfigMethodPushButton == 0 {
		t.Error("push button not advertised")
	}
	if id.Device.ConfigMethods&regproto.ConfigMethodNFCToken != 0 {
		t.Error("NFC advertised without a token file")
	}

	c := id.Credential
	if c == nil {
		t.Fatal("no credential")
	}
	if string(c.SSID) != "home" || string(c.NetworkKey) != "secretpassphrase" {
		t.Errorf("credential = %+v", c)
	}
	if c.AuthType != regproto.AuthWPA2PSK || c.EncrType != regproto.EncrAES {
		t.Errorf("auth/encr = %#x/%#x", c.AuthType, c.EncrType)
	}
}

func TestLoadIdentity_OpenNetwork(t *testing.T) {
	conf := confStore(t, "wps_mac=02:11:22:33:44:55", "wps_ssid=guest", "wps_uuid=12345678-9abc-def0-1234-56789abcdef0")
	id, err := loadIdentity(conf.Get, &monitor.Config{}, nil)
	if err != nil {
		t.Fatalf("loadIdentity failed: %v", err)
	}
	if id.Credential.AuthType != regproto.AuthOpen || id.Credential.EncrType != regproto.EncrNone {
		t.Errorf("auth/encr = %#x/%#x", id.Credential.AuthType, id.Credential.EncrType)
	}
	if id.UUID.String() != "12345678-9abc-def0-1234-56789abcdef0" {
		t.Errorf("UUID = %v", id.UUID)
	}
	if id.Device.ConfigMethods&regproto.ConfigMethodPushButton != 0 {
		t.Error("push button advertised while disabled")
	}
}

func TestLoadIdentity_StoredCredential(t *testing.T) {
	store := storage.NewMemory()
	saved := &regproto.Credential{
		NetworkIndex: 1,
		SSID:         []byte("learned"),
		AuthType:     regproto.AuthWPA2PSK,
		EncrType:     regproto.EncrAES,
		NetworkKey:   []byte("0123456789"),
		MACAddress:   net.HardwareAddr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55},
	}
	if err := store.SaveCredential(saved); err != nil {
		t.Fatalf("SaveCredential failed: %v", err)
	}

	conf := confStore(t, "wps_mac=02:11:22:33:44:55")
	id, err := loadIdentity(conf.Get, &monitor.Config{}, store)
	if err != nil {
		t.Fatalf("loadIdentity failed: %v", err)
	}
	if id.Credential == nil || string(id.Credential.SSID) != "learned" {
		t.Errorf("credential = %+v, want the stored one", id.Credential)
	}

	// Nothing stored and nothing configured.
	id, err = loadIdentity(conf.Get, &monitor.Config{}, storage.NewMemory())
	if err != nil {
		t.Fatalf("loadIdentity failed: %v", err)
	}
	if id.Credential != nil {
		t.Errorf("credential = %+v, want none", id.Credential)
	}
}

func TestLoadIdentity_InterfaceMAC(t *testing.T) {
	orig := lookupMAC
	defer func() { lookupMAC = orig }()

	var asked string
	lookupMAC = func(name string) (net.HardwareAddr, error) {
		asked = name
		return net.HardwareAddr{0x02, 0, 0, 0, 0, 0x07}, nil
	}

	cfg := monitor.Config{Interfaces: []string{"wlan1", "wlan0"}}
	id, err := loadIdentity(confStore(t).Get, &cfg, nil)
	if err != nil {
		t.Fatalf("loadIdentity failed: %v", err)
	}
	if asked != "wlan1" {
		t.Errorf("looked up %q, want wlan1", asked)
	}
	if id.MAC.String() != "02:00:00:00:00:07" {
		t.Errorf("MAC = %v", id.MAC)
	}

	lookupMAC = func(string) (net.HardwareAddr, error) { return nil, errors.New("no such interface") }
	if _, err := loadIdentity(confStore(t).Get, &cfg, nil); err == nil {
		t.Error("expected lookup error")
	}
}

func TestLoadIdentity_Errors(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
	}{
		{"no mac", nil},
		{"bad mac", []string{"wps_mac=zz"}},
		{"long mac", []string{"wps_mac=02:00:00:00:00:00:00:01"}},
		{"bad uuid", []string{"wps_mac=02:11:22:33:44:55", "wps_uuid=nope"}},
		{"long ssid", []string{"wps_mac=02:11:22:33:44:55", "wps_ssid=0123456789012345678901234567890123456789"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadIdentity(confStore(t, tt.entries...).Get, &monitor.Config{}, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}
