package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/backkem/wps/pkg/monitor"
	"github.com/backkem/wps/pkg/registration"
	"github.com/backkem/wps/pkg/regproto"
	"github.com/backkem/wps/pkg/storage"
	"github.com/google/uuid"
)

// Device identity and network configuration names.
const (
	confUUID         = "wps_uuid"
	confMAC          = "wps_mac"
	confDeviceName   = "wps_device_name"
	confManufacturer = "wps_manufacturer"
	confModelName    = "wps_model_name"
	confModelNumber  = "wps_model_number"
	confSerial       = "wps_serial"
	confSSID         = "wps_ssid"
	confPSK          = "wps_psk"
	confNFCToken     = "wps_nfc_token"
	confLogLevel     = "wps_log_level"
)

// Network infrastructure / access point, WFA OUI.
var apDeviceType = [8]byte{0x00, 0x06, 0x00, 0x50, 0xf2, 0x04, 0x00, 0x01}

// identity is the device half of the daemon settings.
type identity struct {
	UUID       uuid.UUID
	MAC        net.HardwareAddr
	Device     registration.DeviceInfo
	Credential *regproto.Credential
}

// lookupMAC returns the hardware address of an interface.
var lookupMAC = func(name string) (net.HardwareAddr, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return ifi.HardwareAddr, nil
}

// loadIdentity reads the device identity and the network credential. The
// MAC address defaults to the first configured interface and the UUID is
// derived from the MAC address so it is stable across restarts. Without
// wps_ssid the credential learned in an earlier enrollee run is used.
func loadIdentity(get monitor.GetConf, cfg *monitor.Config, store storage.Store) (*identity, error) {
	value := func(name, def string) string {
		if v, ok := get(name); ok {
			return strings.TrimSpace(v)
		}
		return def
	}

	var id identity

	mac := value(confMAC, "")
	switch {
	case mac != "":
		hw, err := net.ParseMAC(mac)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", confMAC, err)
		}
		id.MAC = hw
	case len(cfg.Interfaces) > 0:
		hw, err := lookupMAC(cfg.Interfaces[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", confMAC, err)
		}
		id.MAC = hw
	}
	if len(id.MAC) != regproto.MACAddrLen {
		return nil, fmt.Errorf("%s: need a %d byte address, got %q", confMAC, regproto.MACAddrLen, id.MAC)
	}

	if s := value(confUUID, ""); s != "" {
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", confUUID, err)
		}
		id.UUID = u
	} else {
		id.UUID = uuid.NewSHA1(uuid.NameSpaceOID, id.MAC)
	}

	methods := regproto.ConfigMethodLabel | regproto.ConfigMethodDisplay | regproto.ConfigMethodKeypad
	if cfg.PushButton {
		methods |= regproto.ConfigMethodPushButton
	}
	if value(confNFCToken, "") != "" {
		methods |= regproto.ConfigMethodNFCToken
	}
	id.Device = registration.DeviceInfo{
		Manufacturer:      value(confManufacturer, "backkem"),
		ModelName:         value(confModelName, "wps-monitor"),
		ModelNumber:       value(confModelNumber, "1"),
		SerialNumber:      value(confSerial, id.MAC.String()),
		DeviceName:        value(confDeviceName, "wps-ap"),
		PrimaryDeviceType: apDeviceType,
		ConfigMethods:     methods,
		RFBands:           0x01,
	}

	if ssid := value(confSSID, ""); ssid != "" {
		cred := &regproto.Credential{
			NetworkIndex: 1,
			SSID:         []byte(ssid),
			AuthType:     regproto.AuthOpen,
			EncrType:     regproto.EncrNone,
			MACAddress:   id.MAC,
		}
		if psk := value(confPSK, ""); psk != "" {
			cred.AuthType = regproto.AuthWPA2PSK
			cred.EncrType = regproto.EncrAES
			cred.NetworkKey = []byte(psk)
		}
		if err := cred.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", confSSID, err)
		}
		id.Credential = cred
	} else if store != nil {
		cred, err := store.LoadCredential()
		switch {
		case err == nil:
			id.Credential = cred
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}
	return &id, nil
}

// readToken loads a password token file written by the NFC reader.
func readToken(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := regproto.ParsePasswordToken(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
