package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/backkem/wps/pkg/regproto"
	"github.com/backkem/wps/pkg/storage"
	"github.com/pion/logging"
)

// DefaultPollInterval is how long Run sleeps after an idle iteration.
const DefaultPollInterval = 50 * time.Millisecond

// Configuration names read by ConfigFromStore.
const (
	ConfIfNames      = "wps_ifnames"
	ConfPushButton   = "wps_pbc"
	ConfMode         = "wps_mode"
	ConfNFCMode      = "wps_nfc_mode"
	ConfWalkTime     = "wps_walk_time"
	ConfPollInterval = "wps_poll_ms"
	ConfDevicePIN    = "wps_device_pin"
)

// Config configures a Dispatcher.
type Config struct {
	// Interfaces are the configured wireless interfaces. Open fails when
	// there are none.
	Interfaces []string

	// PushButton records whether push-button configuration is available.
	PushButton bool

	// DefaultMode is used by push-button presses and commands without a
	// mode. Defaults to ModeAPRegistrar.
	DefaultMode Mode

	// NFCMode is the mode of sessions opened from a password token.
	// Defaults to ModeAPRegistrar.
	NFCMode Mode

	// DevicePIN is the device's own PIN, used when an external registrar
	// configures the access point over UPnP.
	DevicePIN string

	WalkTime     time.Duration
	PollInterval time.Duration

	Factory   AppFactory
	Store     storage.Store
	Indicator Indicator
	IECache   IECache
	Override  Override

	// OnOutcome, if set, is called on the loop goroutine when a session
	// ends. configured reports whether a network credential is stored.
	OnOutcome func(o Outcome, configured bool)

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	LoggerFactory logging.LoggerFactory
}

func (c *Config) setDefaults() {
	if c.DefaultMode == ModeNone {
		c.DefaultMode = ModeAPRegistrar
	}
	if c.NFCMode == ModeNone {
		c.NFCMode = ModeAPRegistrar
	}
	if c.WalkTime <= 0 {
		c.WalkTime = DefaultWalkTime
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Indicator == nil {
		c.Indicator = nopIndicator{}
	}
	if c.IECache == nil {
		c.IECache = nopIECache{}
	}
	if c.Override == nil {
		c.Override = nopOverride{}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// ConfigFromStore reads the monitor settings through get. Collaborators
// (Factory, Store, Indicator, ...) are left for the caller to fill in.
func ConfigFromStore(get GetConf) (Config, error) {
	var cfg Config
	value := func(name, def string) string {
		if v, ok := get(name); ok {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg.Interfaces = strings.Fields(value(ConfIfNames, ""))

	pbc, err := strconv.ParseBool(value(ConfPushButton, "1"))
	if err != nil {
		return cfg, fmt.Errorf("monitor: %s: %w", ConfPushButton, err)
	}
	cfg.PushButton = pbc

	if cfg.DefaultMode, err = ParseMode(value(ConfMode, ModeAPRegistrar.String())); err != nil {
		return cfg, fmt.Errorf("monitor: %s: %w", ConfMode, err)
	}
	if cfg.NFCMode, err = ParseMode(value(ConfNFCMode, ModeAPRegistrar.String())); err != nil {
		return cfg, fmt.Errorf("monitor: %s: %w", ConfNFCMode, err)
	}

	walk, err := strconv.Atoi(value(ConfWalkTime, "120"))
	if err != nil || walk <= 0 {
		return cfg, fmt.Errorf("monitor: %s: invalid seconds %q", ConfWalkTime, value(ConfWalkTime, ""))
	}
	cfg.WalkTime = time.Duration(walk) * time.Second

	poll, err := strconv.Atoi(value(ConfPollInterval, "50"))
	if err != nil || poll <= 0 {
		return cfg, fmt.Errorf("monitor: %s: invalid milliseconds %q", ConfPollInterval, value(ConfPollInterval, ""))
	}
	cfg.PollInterval = time.Duration(poll) * time.Millisecond

	if pin := value(ConfDevicePIN, ""); pin != "" {
		if err := regproto.ValidatePIN(pin); err != nil {
			return cfg, fmt.Errorf("monitor: %s: %w", ConfDevicePIN, err)
		}
		cfg.DevicePIN = pin
	}
	return cfg, nil
}
