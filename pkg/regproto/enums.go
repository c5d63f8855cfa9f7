// Package regproto is the registration protocol engine of Wi-Fi Simple
// Configuration: nonce and message-type scanning over attribute buffers,
// session key derivation, message authenticators, Encrypted Settings,
// device password commitments, OOB password tokens and credentials.
//
// Like the primitives in pkg/crypto, every function here is stateless and
// works only on its explicit inputs.
package regproto

import "fmt"

// ConfigError is the value of the Configuration Error attribute.
type ConfigError uint16

// Configuration error values.
const (
	ConfigErrorNone                 ConfigError = 0
	ConfigErrorOOBReadError         ConfigError = 1
	ConfigErrorDecryptionCRCFailure ConfigError = 2
	ConfigErrorNetworkAuthFailure   ConfigError = 6
	ConfigErrorNetworkAssocFailure  ConfigError = 7
	ConfigErrorMultiplePBCSessions  ConfigError = 12
	ConfigErrorRogueSuspected       ConfigError = 13
	ConfigErrorDeviceBusy           ConfigError = 14
	ConfigErrorSetupLocked          ConfigError = 15
	ConfigErrorMessageTimeout       ConfigError = 16
	ConfigErrorSessionTimeout       ConfigError = 17
	ConfigErrorDevicePasswordAuth   ConfigError = 18
)

// String returns the configuration error name.
func (c ConfigError) String() string {
	switch c {
	case ConfigErrorNone:
		return "NoError"
	case ConfigErrorOOBReadError:
		return "OOBInterfaceReadError"
	case ConfigErrorDecryptionCRCFailure:
		return "DecryptionCRCFailure"
	case ConfigErrorNetworkAuthFailure:
		return "NetworkAuthFailure"
	case ConfigErrorNetworkAssocFailure:
		return "NetworkAssociationFailure"
	case ConfigErrorMultiplePBCSessions:
		return "MultiplePBCSessionsDetected"
	case ConfigErrorRogueSuspected:
		return "RogueActivitySuspected"
	case ConfigErrorDeviceBusy:
		return "DeviceBusy"
	case ConfigErrorSetupLocked:
		return "SetupLocked"
	case ConfigErrorMessageTimeout:
		return "MessageTimeout"
	case ConfigErrorSessionTimeout:
		return "RegistrationSessionTimeout"
	case ConfigErrorDevicePasswordAuth:
		return "DevicePasswordAuthFailure"
	default:
		return fmt.Sprintf("ConfigError(%d)", uint16(c))
	}
}

// DevicePasswordID identifies how the device password was obtained.
type DevicePasswordID uint16

// Device password IDs.
const (
	PasswordIDDefault       DevicePasswordID = 0x0000
	PasswordIDUserSpecified DevicePasswordID = 0x0001
	PasswordIDMachineSpec   DevicePasswordID = 0x0002
	PasswordIDRekey         DevicePasswordID = 0x0003
	PasswordIDPushButton    DevicePasswordID = 0x0004
	PasswordIDRegistrarSpec DevicePasswordID = 0x0005

	// PasswordIDOOBMin is the first ID usable for an OOB password token.
	PasswordIDOOBMin DevicePasswordID = 0x0010
)

// Authentication type flags.
const (
	AuthOpen    uint16 = 0x0001
	AuthWPAPSK  uint16 = 0x0002
	AuthShared  uint16 = 0x0004
	AuthWPA     uint16 = 0x0008
	AuthWPA2    uint16 = 0x0010
	AuthWPA2PSK uint16 = 0x0020
)

// Encryption type flags.
const (
	EncrNone uint16 = 0x0001
	EncrWEP  uint16 = 0x0002
	EncrTKIP uint16 = 0x0004
	EncrAES  uint16 = 0x0008
)

// Config methods.
const (
	ConfigMethodLabel      uint16 = 0x0004
	ConfigMethodDisplay    uint16 = 0x0008
	ConfigMethodNFCToken   uint16 = 0x0020
	ConfigMethodPushButton uint16 = 0x0080
	ConfigMethodKeypad     uint16 = 0x0100
)

// WPS state values.
const (
	WPSStateNotConfigured uint8 = 0x01
	WPSStateConfigured    uint8 = 0x02
)
