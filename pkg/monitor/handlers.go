package monitor

import (
	"time"

	"github.com/backkem/wps/pkg/regproto"
)

var resultBusy = Result{Status: StatusProtocol, Code: CodeBusy}

// handleCommand runs a UI command. Push-button presses arrive here as
// "cmd=pbc".
func (d *Dispatcher) handleCommand(raw []byte, now time.Time) Result {
	cmd, err := ParseCommand(raw)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("ui: %v", err)
		}
		return resultIgnored
	}
	if cmd.Mode == ModeNone {
		cmd.Mode = d.cfg.DefaultMode
	}

	switch cmd.Name {
	case CommandStop:
		if d.log != nil {
			d.log.Info("ui: stop")
		}
		d.closeSession()
		d.window.Close()
		d.cfg.Indicator.SetState(IndicatorIdle)
		return resultIgnored

	case CommandAddClient:
		cmd.Mode = ModeAPRegistrar
		if cmd.PIN != "" {
			cmd.Name = CommandSet
		} else {
			cmd.Name = CommandPBC
		}
		if d.app != nil {
			return resultBusy
		}
		if !d.acceptable(cmd) {
			return resultIgnored
		}
		d.window.Remember(cmd.Bytes())
		d.window.Enable(now)
		d.window.SetFailure(FailureInit)
		if d.log != nil {
			d.log.Infof("ui: add-client window open for %v", d.cfg.WalkTime)
		}
		return d.startSession(cmd, cmd.Bytes())

	default:
		return d.startSession(cmd, raw)
	}
}

// acceptable reports whether cmd can open a session: push button must be
// available for pbc and the PIN of a set must carry a valid checksum.
func (d *Dispatcher) acceptable(cmd Command) bool {
	switch cmd.Name {
	case CommandPBC:
		if !d.pushButton {
			if d.log != nil {
				d.log.Warn("ui: push-button configuration not available")
			}
			return false
		}
	case CommandSet:
		if err := regproto.ValidatePIN(cmd.PIN); err != nil {
			if d.log != nil {
				d.log.Warnf("ui: %v", err)
			}
			return false
		}
	}
	return true
}

// startSession opens the app for a set or pbc command.
func (d *Dispatcher) startSession(cmd Command, raw []byte) Result {
	if d.app != nil {
		return resultBusy
	}
	if !d.acceptable(cmd) {
		return resultIgnored
	}
	req := SessionRequest{Mode: cmd.Mode}
	switch cmd.Name {
	case CommandPBC:
		req.Password = []byte(regproto.PBCPassword)
		req.PasswordID = regproto.PasswordIDPushButton
	case CommandSet:
		req.Password = []byte(cmd.PIN)
		req.PasswordID = regproto.PasswordIDDefault
	}

	d.window.Remember(raw)
	d.pending = append(d.pending[:0], raw...)
	return d.openApp(req)
}

// handleEAP forwards a registration message to the active app.
func (d *Dispatcher) handleEAP(msg []byte, h *Handle) Result {
	if d.app == nil {
		return resultIgnored
	}
	return d.app.Process(msg, h.Transport())
}

// handleUPnP serves an external registrar configuring this access point.
// With no session open it starts an AP enrollee session on the device PIN.
func (d *Dispatcher) handleUPnP(msg []byte, h *Handle) Result {
	if d.app == nil {
		if d.cfg.DevicePIN == "" {
			if d.log != nil {
				d.log.Warn("upnp: no device PIN configured")
			}
			return resultIgnored
		}
		res := d.openApp(SessionRequest{
			Mode:       ModeAPEnrollee,
			Password:   []byte(d.cfg.DevicePIN),
			PasswordID: regproto.PasswordIDDefault,
		})
		if res.Terminal() {
			return res
		}
	}
	return d.app.Process(msg, h.Transport())
}

// handleNFC opens a session from a password token read off a tag.
func (d *Dispatcher) handleNFC(msg []byte) Result {
	if d.app != nil {
		return resultBusy
	}
	tok, err := regproto.ParsePasswordToken(msg)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("nfc: %v", err)
		}
		return resultIgnored
	}
	return d.openApp(SessionRequest{Mode: d.cfg.NFCMode, Token: tok})
}
