// Package tlv implements the Wi-Fi Simple Configuration attribute encoding.
//
// Every WSC message is a flat sequence of attributes, each encoded as a
// 2-byte big-endian type, a 2-byte big-endian length and length bytes of
// value. Some attributes (Credential, Encrypted Settings plaintext) nest
// further attribute sequences inside their value.
//
// Buffer provides the cursor-based scanning used by the protocol engine;
// Builder and Parse provide whole-message encoding and decoding.
package tlv

import "fmt"

// HeaderSize is the size of an attribute header (type + length).
const HeaderSize = 4

// AttrType identifies a WSC attribute.
type AttrType uint16

// WSC attribute types used by the registration protocol.
const (
	AttrAPChannel            AttrType = 0x1001
	AttrAssociationState     AttrType = 0x1002
	AttrAuthType             AttrType = 0x1003
	AttrAuthTypeFlags        AttrType = 0x1004
	AttrAuthenticator        AttrType = 0x1005
	AttrConfigMethods        AttrType = 0x1008
	AttrConfigError          AttrType = 0x1009
	AttrConnTypeFlags        AttrType = 0x100D
	AttrCredential           AttrType = 0x100E
	AttrEncrType             AttrType = 0x100F
	AttrEncrTypeFlags        AttrType = 0x1010
	AttrDeviceName           AttrType = 0x1011
	AttrDevicePasswordID     AttrType = 0x1012
	AttrEHash1               AttrType = 0x1014
	AttrEHash2               AttrType = 0x1015
	AttrESNonce1             AttrType = 0x1016
	AttrESNonce2             AttrType = 0x1017
	AttrEncryptedSettings    AttrType = 0x1018
	AttrEnrolleeNonce        AttrType = 0x101A
	AttrKeyWrapAuthenticator AttrType = 0x101E
	AttrMACAddress           AttrType = 0x1020
	AttrManufacturer         AttrType = 0x1021
	AttrMessageType          AttrType = 0x1022
	AttrModelName            AttrType = 0x1023
	AttrModelNumber          AttrType = 0x1024
	AttrNetworkIndex         AttrType = 0x1026
	AttrNetworkKey           AttrType = 0x1027
	AttrNetworkKeyIndex      AttrType = 0x1028
	AttrOOBDevicePassword    AttrType = 0x102C
	AttrOSVersion            AttrType = 0x102D
	AttrPublicKey            AttrType = 0x1032
	AttrRegistrarNonce       AttrType = 0x1039
	AttrRFBands              AttrType = 0x103C
	AttrRHash1               AttrType = 0x103D
	AttrRHash2               AttrType = 0x103E
	AttrRSNonce1             AttrType = 0x103F
	AttrRSNonce2             AttrType = 0x1040
	AttrSelectedRegistrar    AttrType = 0x1041
	AttrSerialNumber         AttrType = 0x1042
	AttrWPSState             AttrType = 0x1044
	AttrSSID                 AttrType = 0x1045
	AttrUUIDE                AttrType = 0x1047
	AttrUUIDR                AttrType = 0x1048
	AttrVendorExtension      AttrType = 0x1049
	AttrVersion              AttrType = 0x104A
	AttrPrimaryDeviceType    AttrType = 0x1054
)

var attrNames = map[AttrType]string{
	AttrAPChannel:            "AP Channel",
	AttrAssociationState:     "Association State",
	AttrAuthType:             "Authentication Type",
	AttrAuthTypeFlags:        "Authentication Type Flags",
	AttrAuthenticator:        "Authenticator",
	AttrConfigMethods:        "Config Methods",
	AttrConfigError:          "Configuration Error",
	AttrConnTypeFlags:        "Connection Type Flags",
	AttrCredential:           "Credential",
	AttrEncrType:             "Encryption Type",
	AttrEncrTypeFlags:        "Encryption Type Flags",
	AttrDeviceName:           "Device Name",
	AttrDevicePasswordID:     "Device Password ID",
	AttrEHash1:               "E-Hash1",
	AttrEHash2:               "E-Hash2",
	AttrESNonce1:             "E-SNonce1",
	AttrESNonce2:             "E-SNonce2",
	AttrEncryptedSettings:    "Encrypted Settings",
	AttrEnrolleeNonce:        "Enrollee Nonce",
	AttrKeyWrapAuthenticator: "Key Wrap Authenticator",
	AttrMACAddress:           "MAC Address",
	AttrManufacturer:         "Manufacturer",
	AttrMessageType:          "Message Type",
	AttrModelName:            "Model Name",
	AttrModelNumber:          "Model Number",
	AttrNetworkIndex:         "Network Index",
	AttrNetworkKey:           "Network Key",
	AttrNetworkKeyIndex:      "Network Key Index",
	AttrOOBDevicePassword:    "OOB Device Password",
	AttrOSVersion:            "OS Version",
	AttrPublicKey:            "Public Key",
	AttrRegistrarNonce:       "Registrar Nonce",
	AttrRFBands:              "RF Bands",
	AttrRHash1:               "R-Hash1",
	AttrRHash2:               "R-Hash2",
	AttrRSNonce1:             "R-SNonce1",
	AttrRSNonce2:             "R-SNonce2",
	AttrSelectedRegistrar:    "Selected Registrar",
	AttrSerialNumber:         "Serial Number",
	AttrWPSState:             "Wi-Fi Protected Setup State",
	AttrSSID:                 "SSID",
	AttrUUIDE:                "UUID-E",
	AttrUUIDR:                "UUID-R",
	AttrVendorExtension:      "Vendor Extension",
	AttrVersion:              "Version",
	AttrPrimaryDeviceType:    "Primary Device Type",
}

// String returns the attribute name, or its hex value when unknown.
func (t AttrType) String() string {
	if name, ok := attrNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint16(t))
}

// MsgType is the value carried by the Message Type attribute.
type MsgType uint8

// WSC message types.
const (
	MsgBeacon        MsgType = 0x01
	MsgProbeRequest  MsgType = 0x02
	MsgProbeResponse MsgType = 0x03
	MsgM1            MsgType = 0x04
	MsgM2            MsgType = 0x05
	MsgM2D           MsgType = 0x06
	MsgM3            MsgType = 0x07
	MsgM4            MsgType = 0x08
	MsgM5            MsgType = 0x09
	MsgM6            MsgType = 0x0A
	MsgM7            MsgType = 0x0B
	MsgM8            MsgType = 0x0C
	MsgWSCAck        MsgType = 0x0D
	MsgWSCNack       MsgType = 0x0E
	MsgWSCDone       MsgType = 0x0F
)

// String returns the message type name.
func (m MsgType) String() string {
	switch m {
	case MsgBeacon:
		return "Beacon"
	case MsgProbeRequest:
		return "ProbeRequest"
	case MsgProbeResponse:
		return "ProbeResponse"
	case MsgM1:
		return "M1"
	case MsgM2:
		return "M2"
	case MsgM2D:
		return "M2D"
	case MsgM3:
		return "M3"
	case MsgM4:
		return "M4"
	case MsgM5:
		return "M5"
	case MsgM6:
		return "M6"
	case MsgM7:
		return "M7"
	case MsgM8:
		return "M8"
	case MsgWSCAck:
		return "WSC_ACK"
	case MsgWSCNack:
		return "WSC_NACK"
	case MsgWSCDone:
		return "WSC_Done"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(m))
	}
}

// Version10 is the Version attribute value carried by every message.
const Version10 = 0x10
