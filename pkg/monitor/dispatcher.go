package monitor

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/backkem/wps/pkg/regproto"
	"github.com/backkem/wps/pkg/storage"
	"github.com/backkem/wps/pkg/tlv"
	"github.com/pion/logging"
)

// Outcome records how the last session ended.
type Outcome struct {
	Mode   Mode
	Result Result
	At     time.Time
}

func (o Outcome) String() string {
	return fmt.Sprintf("%v: %v", o.Mode, o.Result)
}

// Exit tells the caller of Run whether to start again.
type Exit struct {
	Restart bool
}

// Dispatcher is the monitor loop. It polls the registry for one packet per
// iteration, routes it to the sub-handler of its transport kind and maps
// terminal results onto the session lifecycle.
type Dispatcher struct {
	cfg      Config
	registry *Registry
	window   *Window
	buf      *tlv.Buffer
	log      logging.LeveledLogger

	app        App
	appMode    Mode
	pending    []byte
	last       Outcome
	pushButton bool
	configured bool
	open       bool

	shutdown atomic.Bool
	restart  atomic.Bool
}

// New creates a dispatcher. Call Open before running it.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Factory == nil {
		return nil, ErrNoFactory
	}
	cfg.setDefaults()

	d := &Dispatcher{
		cfg:      cfg,
		registry: NewRegistry(),
		window:   NewWindow(cfg.WalkTime, cfg.Override),
		buf:      tlv.NewBuffer(),
	}
	if cfg.LoggerFactory != nil {
		d.log = cfg.LoggerFactory.NewLogger("monitor")
	}
	return d, nil
}

// Registry returns the handle registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Window returns the add-client window.
func (d *Dispatcher) Window() *Window { return d.window }

// ActiveApp returns the open app, or nil.
func (d *Dispatcher) ActiveApp() App { return d.app }

// LastOutcome returns how the last session ended.
func (d *Dispatcher) LastOutcome() Outcome { return d.last }

// Open checks the prerequisites and restores persisted state. It fails
// with ErrNoInterface when no wireless interface is configured.
func (d *Dispatcher) Open() error {
	if len(d.cfg.Interfaces) == 0 {
		return ErrNoInterface
	}
	d.pushButton = d.cfg.PushButton

	if d.cfg.Store != nil {
		st, err := d.cfg.Store.LoadState()
		switch {
		case err == nil:
			d.window.SetFailure(FailureTag(st.FailureTag))
			d.last = Outcome{
				Mode:   Mode(st.LastMode),
				Result: Result{Status: Status(st.LastStatus), Code: Code(st.LastCode)},
				At:     st.SavedAt,
			}
			d.configured = st.Configured
		case errors.Is(err, storage.ErrNotFound):
		default:
			return fmt.Errorf("monitor: load state: %w", err)
		}
	}

	d.open = true
	d.shutdown.Store(false)
	d.restart.Store(false)
	d.cfg.Indicator.SetState(IndicatorIdle)
	if d.log != nil {
		d.log.Infof("monitor open on %v (push button %v, default mode %v)", d.cfg.Interfaces, d.pushButton, d.cfg.DefaultMode)
	}
	return nil
}

// RequestShutdown asks the loop to stop after the current iteration. Safe
// to call from any goroutine.
func (d *Dispatcher) RequestShutdown() {
	d.shutdown.Store(true)
}

// RequestRestart asks the loop to stop and the caller to start again. Safe
// to call from any goroutine.
func (d *Dispatcher) RequestRestart() {
	d.restart.Store(true)
	d.shutdown.Store(true)
}

// ShutdownRequested reports whether the loop has been asked to stop.
func (d *Dispatcher) ShutdownRequested() bool {
	return d.shutdown.Load()
}

// Run iterates until shutdown is requested, then closes the dispatcher.
func (d *Dispatcher) Run() (Exit, error) {
	if !d.open {
		return Exit{}, ErrNotOpen
	}
	for !d.shutdown.Load() {
		if !d.RunOnce(d.cfg.Now()) {
			time.Sleep(d.cfg.PollInterval)
		}
	}
	exit := Exit{Restart: d.restart.Load()}
	d.Close()
	if d.log != nil {
		d.log.Infof("monitor stopped (restart %v)", exit.Restart)
	}
	return exit, nil
}

// RunOnce runs one loop iteration at now and reports whether a packet (or
// a replayed command) was handled.
func (d *Dispatcher) RunOnce(now time.Time) bool {
	if !d.open {
		return false
	}
	if d.window.Expired(now) {
		d.expireWindow(now)
	}

	res := resultContinue
	handled := false
	if cmd, ok := d.window.Replay(); ok && d.app == nil {
		res = d.handleCommand(cmd, now)
		handled = true
		if d.app == nil && !res.Terminal() {
			// A command that cannot open a session would otherwise be
			// replayed instead of polling until the walk time ends.
			d.closeWindow()
		}
	} else if h := d.registry.Poll(d.buf); h != nil {
		res = d.route(h, now)
		handled = true
	}

	if d.app != nil && res.Status == StatusContinue {
		res = d.app.CheckTimeout(now)
	}
	if res.Terminal() {
		d.finish(res, now)
	}
	return handled
}

// Close ends any active session and closes the window. Transports belong to
// the caller.
func (d *Dispatcher) Close() {
	if !d.open {
		return
	}
	d.closeSession()
	d.window.Close()
	d.persist()
	d.open = false
}

func (d *Dispatcher) route(h *Handle, now time.Time) Result {
	msg := d.buf.Bytes()
	switch h.Kind() {
	case KindPushButton:
		return d.handleCommand(Command{Name: CommandPBC}.Bytes(), now)
	case KindUI:
		return d.handleCommand(msg, now)
	case KindEAP:
		return d.handleEAP(msg, h)
	case KindUPnP:
		return d.handleUPnP(msg, h)
	case KindNFC:
		return d.handleNFC(msg)
	default:
		if d.log != nil {
			d.log.Warnf("packet from unknown transport kind %v", h.Kind())
		}
		return resultIgnored
	}
}

func (d *Dispatcher) openApp(req SessionRequest) Result {
	d.appMode = req.Mode
	app, err := d.cfg.Factory.NewApp(req)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("open %v session: %v", req.Mode, err)
		}
		return failure(CodeOpenSession)
	}
	d.app = app
	d.cfg.IECache.Update(req.Mode, req.Token == nil && req.PasswordID == regproto.PasswordIDPushButton)
	d.cfg.Indicator.SetState(IndicatorInProgress)
	if d.log != nil {
		d.log.Infof("opened %v session", req.Mode)
	}
	return resultContinue
}

// finish maps a terminal result onto the session lifecycle.
func (d *Dispatcher) finish(res Result, now time.Time) {
	mode := d.appMode
	d.last = Outcome{Mode: mode, Result: res, At: now}
	if d.log != nil {
		d.log.Infof("session ended: %v", d.last)
	}

	if res.Status != StatusFailure && !mode.IsRegistrar() {
		d.saveCredential()
	}
	if d.cfg.OnOutcome != nil {
		d.cfg.OnOutcome(d.last, d.configured)
	}

	reopen := mode == ModeAPRegistrar && res.Status == StatusFailure &&
		res.Code == CodePINFailure && !res.LastMessage
	d.closeSession()

	if reopen {
		// The remembered command opens the next attempt.
		if !d.window.Enabled() {
			d.window.Enable(now)
		}
		d.window.SetFailure(FailureMessageError)
		d.cfg.Indicator.SetState(IndicatorInProgress)
		d.persist()
		return
	}

	if d.window.Enabled() {
		d.window.Close()
	}
	if res.Status == StatusSuccessRestart {
		d.RequestRestart()
	}
	d.cfg.Indicator.SetState(IndicatorIdle)
	d.persist()
}

func (d *Dispatcher) closeWindow() {
	if d.log != nil {
		d.log.Warn("add-client window closed: remembered command did not open a session")
	}
	d.window.Close()
	d.cfg.Indicator.SetState(IndicatorIdle)
	d.persist()
}

func (d *Dispatcher) closeSession() {
	if d.app != nil {
		d.app.Close()
		d.app = nil
	}
	d.appMode = ModeNone
	d.pending = nil
	d.cfg.IECache.Clear()
}

// expireWindow closes the window after the walk time and resumes normal
// operation according to how the last attempt in it ended.
func (d *Dispatcher) expireWindow(now time.Time) {
	tag := d.window.Resume()
	d.window.Close()
	if d.log != nil {
		d.log.Infof("add-client window expired (last attempt %v)", tag)
	}
	if d.app != nil && d.appMode == ModeAPRegistrar {
		d.last = Outcome{Mode: d.appMode, Result: failure(CodeTimeout), At: now}
		d.closeSession()
	}
	if tag == FailureMessageError {
		d.cfg.Indicator.SetState(IndicatorError)
	} else {
		d.cfg.Indicator.SetState(IndicatorIdle)
	}
	d.persist()
}

func (d *Dispatcher) saveCredential() {
	src, ok := d.app.(CredentialSource)
	if !ok || d.cfg.Store == nil {
		return
	}
	cred := src.Credential()
	if cred == nil {
		return
	}
	if err := d.cfg.Store.SaveCredential(cred); err != nil {
		if d.log != nil {
			d.log.Errorf("save credential: %v", err)
		}
		return
	}
	d.configured = true
}

func (d *Dispatcher) persist() {
	if d.cfg.Store == nil {
		return
	}
	st := &storage.State{
		FailureTag: uint8(d.window.Failure()),
		LastMode:   uint8(d.last.Mode),
		LastStatus: uint8(d.last.Result.Status),
		LastCode:   uint8(d.last.Result.Code),
		Configured: d.configured,
		SavedAt:    d.cfg.Now(),
	}
	if err := d.cfg.Store.SaveState(st); err != nil && d.log != nil {
		d.log.Errorf("save state: %v", err)
	}
}
