// wps-monitor runs the registration monitor of an access point.
//
// It listens for UI commands, EAP and UPnP registration traffic on local
// UDP sockets and runs one registration session at a time. SIGUSR1
// presses the push button, SIGUSR2 loads the NFC password token named by
// wps_nfc_token, SIGHUP restarts with a fresh read of the configuration and
// SIGINT/SIGTERM stop the daemon.
//
// Example:
//
//	wps-monitor --config /etc/wps.yaml --state /var/lib/wps/state.db --advertise
//	echo "cmd=addclient pin=12345670" | nc -u -w0 127.0.0.1 38000
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/backkem/wps/pkg/discovery"
	"github.com/jessevdk/go-flags"
	"github.com/pion/logging"
)

type options struct {
	Config   string `short:"c" long:"config" description:"Configuration file (.yaml/.yml or name=value lines)"`
	State    string `long:"state" description:"State database; empty keeps state in memory"`
	Bind     string `long:"bind" default:"127.0.0.1" description:"Address the UDP sockets listen on"`
	UIPort   int    `long:"ui-port" default:"38000" description:"UDP port for UI commands"`
	EAPPort  int    `long:"eap-port" default:"38001" description:"UDP port of the EAP proxy"`
	UPnPPort int    `long:"upnp-port" default:"38002" description:"UDP port of the UPnP proxy"`
	LogLevel string `long:"log-level" choice:"disabled" choice:"error" choice:"warn" choice:"info" choice:"debug" choice:"trace" description:"Log level; overrides wps_log_level"`

	Advertise     bool          `long:"advertise" description:"Publish the UPnP port over DNS-SD"`
	Browse        bool          `long:"browse" description:"List external registrars on the LAN and exit"`
	BrowseTimeout time.Duration `long:"browse-timeout" default:"3s" description:"How long --browse listens"`
}

func parseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(s) {
	case "disabled":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn":
		return logging.LogLevelWarn, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", s)
	}
}

func newLoggerFactory(level string) (*logging.DefaultLoggerFactory, error) {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}
	lf := logging.NewDefaultLoggerFactory()
	lf.DefaultLogLevel = lvl
	return lf, nil
}

func main() {
	var opts options
	if _, err := flags.ParseArgs(&opts, os.Args[1:]); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(&opts); err != nil {
		fmt.Fprintf(os.Stderr, "wps-monitor: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	if opts.Browse {
		lf, err := newLoggerFactory(opts.LogLevel)
		if err != nil {
			return err
		}
		return browse(opts, lf)
	}

	for {
		level := opts.LogLevel
		if level == "" {
			level = configLogLevel(opts.Config)
		}
		lf, err := newLoggerFactory(level)
		if err != nil {
			return err
		}

		d, err := newDaemon(opts, lf)
		if err != nil {
			return err
		}
		exit, err := d.run()
		d.close()
		if err != nil {
			return err
		}
		if !exit.Restart {
			return nil
		}
		d.log.Info("restarting")
	}
}

// configLogLevel peeks at wps_log_level so the logger exists before the
// rest of the configuration is validated.
func configLogLevel(path string) string {
	if path == "" {
		return ""
	}
	conf, err := loadConfig(path)
	if err != nil {
		return ""
	}
	return conf.GetDefault(confLogLevel, "")
}

func browse(opts *options, lf logging.LoggerFactory) error {
	r, err := discovery.NewResolver(discovery.ResolverConfig{
		BrowseTimeout: opts.BrowseTimeout,
		LoggerFactory: lf,
	})
	if err != nil {
		return err
	}
	regs := r.Collect(context.Background())
	if len(regs) == 0 {
		fmt.Println("no registrars found")
		return nil
	}
	for _, reg := range regs {
		state := "unconfigured"
		if reg.TXT.Configured() {
			state = "configured"
		}
		fmt.Printf("%-24s %-32s %-21v %s uuid=%s\n", reg.TXT.DeviceName, reg.Instance, reg.Addr(), state, reg.TXT.UUID)
	}
	return nil
}
