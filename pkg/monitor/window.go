package monitor

import "time"

// DefaultWalkTime is how long the add-client window stays open.
const DefaultWalkTime = 120 * time.Second

// FailureTag remembers how the last attempt inside the window ended.
type FailureTag uint8

const (
	FailureInit FailureTag = iota
	FailureMessageError
)

// String returns the tag name.
func (t FailureTag) String() string {
	switch t {
	case FailureInit:
		return "Init"
	case FailureMessageError:
		return "MessageError"
	default:
		return "Unknown"
	}
}

// Window is the add-client window. While enabled, the most recent SET
// command is replayed whenever no session is active, so one PIN serves
// every attempt until the walk time runs out.
type Window struct {
	walkTime time.Duration
	override Override

	enabled   bool
	startedAt time.Time
	command   []byte
	tag       FailureTag
}

// NewWindow returns a disabled window. A nil override is ignored.
func NewWindow(walkTime time.Duration, override Override) *Window {
	if walkTime <= 0 {
		walkTime = DefaultWalkTime
	}
	if override == nil {
		override = nopOverride{}
	}
	return &Window{walkTime: walkTime, override: override}
}

// Enable opens the window at now and raises the override flag.
func (w *Window) Enable(now time.Time) {
	w.enabled = true
	w.startedAt = now
	w.override.SetOverride(true)
}

// Disable closes the window but keeps the remembered command.
func (w *Window) Disable() {
	if w.enabled {
		w.override.SetOverride(false)
	}
	w.enabled = false
}

// Close closes the window and forgets the remembered command.
func (w *Window) Close() {
	w.Disable()
	w.command = nil
}

// Enabled reports whether the window is open.
func (w *Window) Enabled() bool {
	return w.enabled
}

// StartedAt returns when the window was last enabled.
func (w *Window) StartedAt() time.Time {
	return w.startedAt
}

// Remember stores cmd as the command to replay.
func (w *Window) Remember(cmd []byte) {
	w.command = append(w.command[:0], cmd...)
}

// Replay returns a copy of the remembered command while the window is open.
func (w *Window) Replay() ([]byte, bool) {
	if !w.enabled || w.command == nil {
		return nil, false
	}
	return append([]byte(nil), w.command...), true
}

// Expired reports whether the open window has outlived its walk time.
func (w *Window) Expired(now time.Time) bool {
	return w.enabled && now.Sub(w.startedAt) >= w.walkTime
}

// SetFailure records how the last attempt ended.
func (w *Window) SetFailure(tag FailureTag) {
	w.tag = tag
}

// Failure returns the remembered tag.
func (w *Window) Failure() FailureTag {
	return w.tag
}

// Resume returns the remembered tag and resets it to FailureInit.
func (w *Window) Resume() FailureTag {
	tag := w.tag
	w.tag = FailureInit
	return tag
}
