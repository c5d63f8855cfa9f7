package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/backkem/wps/pkg/config"
	"github.com/backkem/wps/pkg/discovery"
	"github.com/backkem/wps/pkg/monitor"
	"github.com/backkem/wps/pkg/storage"
	"github.com/backkem/wps/pkg/transport"
	"github.com/pion/logging"
)

// daemon is one generation of the monitor. A restart closes it and builds
// the next one from a fresh read of the configuration.
type daemon struct {
	opts *options
	conf *config.Store
	log  logging.LeveledLogger

	store      storage.Store
	dispatcher *monitor.Dispatcher
	advertiser *discovery.Advertiser
	id         *identity

	udps      []*transport.UDP
	pbc       *transport.Queue
	nfc       *transport.Queue
	tokenPath string
}

func newDaemon(opts *options, lf logging.LoggerFactory) (*daemon, error) {
	d := &daemon{opts: opts, log: lf.NewLogger("wps-monitor")}
	if err := d.open(lf); err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}

func (d *daemon) open(lf logging.LoggerFactory) (err error) {
	opts := d.opts

	if d.conf, err = loadConfig(opts.Config); err != nil {
		return err
	}

	cfg, err := monitor.ConfigFromStore(d.conf.Get)
	if err != nil {
		return err
	}

	if opts.State != "" {
		d.store, err = storage.OpenBolt(storage.BoltConfig{Path: opts.State, LoggerFactory: lf})
		if err != nil {
			return err
		}
	} else {
		d.store = storage.NewMemory()
	}

	if d.id, err = loadIdentity(d.conf.Get, &cfg, d.store); err != nil {
		return err
	}
	d.tokenPath = d.conf.GetDefault(confNFCToken, "")

	status := &logStatus{log: lf.NewLogger("status")}
	cfg.Factory = &monitor.SessionFactory{
		UUID:          d.id.UUID,
		MACAddress:    d.id.MAC,
		Device:        d.id.Device,
		Credential:    d.id.Credential,
		LoggerFactory: lf,
	}
	cfg.Store = d.store
	cfg.Indicator = status
	cfg.IECache = status
	cfg.Override = status
	cfg.OnOutcome = d.onOutcome
	cfg.LoggerFactory = lf

	if d.dispatcher, err = monitor.New(cfg); err != nil {
		return err
	}

	ports := []struct {
		kind monitor.Kind
		port int
	}{
		{monitor.KindUI, opts.UIPort},
		{monitor.KindEAP, opts.EAPPort},
		{monitor.KindUPnP, opts.UPnPPort},
	}
	for _, p := range ports {
		u, err := transport.NewUDP(transport.UDPConfig{
			ListenAddr:    net.JoinHostPort(opts.Bind, strconv.Itoa(p.port)),
			Kind:          p.kind,
			LoggerFactory: lf,
		})
		if err != nil {
			return fmt.Errorf("%v transport: %w", p.kind, err)
		}
		d.udps = append(d.udps, u)
		if err := u.Start(); err != nil {
			return fmt.Errorf("%v transport: %w", p.kind, err)
		}
		if _, err := d.dispatcher.Registry().Add(u); err != nil {
			return err
		}
	}

	if cfg.PushButton {
		d.pbc = transport.NewQueue(monitor.KindPushButton, 1)
		if _, err := d.dispatcher.Registry().Add(d.pbc); err != nil {
			return err
		}
	}
	if d.tokenPath != "" {
		d.nfc = transport.NewQueue(monitor.KindNFC, 1)
		if _, err := d.dispatcher.Registry().Add(d.nfc); err != nil {
			return err
		}
	}

	if opts.Advertise {
		d.advertiser, err = discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Port:          opts.UPnPPort,
			LoggerFactory: lf,
		})
		if err != nil {
			return err
		}
		if err = d.advertiser.Start(d.txt(d.id.Credential != nil)); err != nil {
			return err
		}
	}

	if err = d.dispatcher.Open(); err != nil {
		return err
	}
	return nil
}

// loadConfig reads path into a new store. An empty path yields an empty
// store, so every setting takes its default.
func loadConfig(path string) (*config.Store, error) {
	conf, err := config.NewStore()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return conf, nil
	}
	if err := conf.Load(path); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return conf, nil
}

func (d *daemon) txt(configured bool) discovery.RegistrarTXT {
	txt := discovery.RegistrarTXT{
		UUID:          d.id.UUID,
		DeviceName:    d.id.Device.DeviceName,
		State:         discovery.StateNotConfigured,
		ConfigMethods: d.id.Device.ConfigMethods,
	}
	if configured {
		txt.State = discovery.StateConfigured
	}
	return txt
}

// onOutcome runs on the loop goroutine after every session.
func (d *daemon) onOutcome(o monitor.Outcome, configured bool) {
	if d.advertiser == nil || !configured {
		return
	}
	if current := d.advertiser.TXT(); current.Configured() {
		return
	}
	if err := d.advertiser.Update(d.txt(true)); err != nil {
		d.log.Warnf("advertise configured state: %v", err)
	}
}

// run drives the dispatcher until shutdown or restart. Signals are mapped
// onto the dispatcher's request flags and the push-button/NFC queues.
func (d *daemon) run() (monitor.Exit, error) {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				d.handleSignal(sig)
			case <-done:
				return
			}
		}
	}()

	for _, u := range d.udps {
		d.log.Infof("%v transport on %v", u.Kind(), u.LocalAddr())
	}
	return d.dispatcher.Run()
}

func (d *daemon) handleSignal(sig os.Signal) {
	d.log.Debugf("received %v", sig)
	switch sig {
	case syscall.SIGINT, syscall.SIGTERM:
		d.dispatcher.RequestShutdown()
	case syscall.SIGHUP:
		d.dispatcher.RequestRestart()
	case syscall.SIGUSR1:
		if d.pbc == nil {
			d.log.Warn("push button disabled")
			return
		}
		if err := d.pbc.Push([]byte(monitor.CommandPBC)); err != nil {
			d.log.Warnf("push button: %v", err)
		}
	case syscall.SIGUSR2:
		if d.nfc == nil {
			d.log.Warnf("%s not set", confNFCToken)
			return
		}
		token, err := readToken(d.tokenPath)
		if err != nil {
			d.log.Warnf("nfc token: %v", err)
			return
		}
		if err := d.nfc.Push(token); err != nil {
			d.log.Warnf("nfc token: %v", err)
		}
	}
}

// close releases everything newDaemon opened. The dispatcher itself is
// closed by Run.
func (d *daemon) close() {
	if d.advertiser != nil {
		if err := d.advertiser.Close(); err != nil {
			d.log.Debugf("close advertiser: %v", err)
		}
	}
	for _, u := range d.udps {
		if err := u.Stop(); err != nil {
			d.log.Debugf("stop %v transport: %v", u.Kind(), err)
		}
	}
	if d.pbc != nil {
		d.pbc.Close()
	}
	if d.nfc != nil {
		d.nfc.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.log.Warnf("close storage: %v", err)
		}
	}
}
