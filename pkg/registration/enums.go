// Package registration runs the eight-message WSC registration exchange
// (M1..M8) on top of the stateless protocol engine in pkg/regproto.
//
// An Enrollee is the device being configured; a Registrar hands it a
// network credential once both sides proved knowledge of the device
// password. Both are single-owner state machines fed one message at a time.
package registration

// Role is the side of the exchange a session plays.
type Role int

const (
	RoleEnrollee Role = iota
	RoleRegistrar
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleEnrollee:
		return "Enrollee"
	case RoleRegistrar:
		return "Registrar"
	default:
		return "Unknown"
	}
}

// State is the position of a session in the exchange.
type State int

const (
	StateInit State = iota
	StateWaitingM2   // Enrollee: sent M1
	StateWaitingM3   // Registrar: sent M2
	StateWaitingM4   // Enrollee: sent M3
	StateWaitingM5   // Registrar: sent M4
	StateWaitingM6   // Enrollee: sent M5
	StateWaitingM7   // Registrar: sent M6
	StateWaitingM8   // Enrollee: sent M7
	StateWaitingDone // Registrar: sent M8
	StateComplete
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateWaitingM2:
		return "WaitingM2"
	case StateWaitingM3:
		return "WaitingM3"
	case StateWaitingM4:
		return "WaitingM4"
	case StateWaitingM5:
		return "WaitingM5"
	case StateWaitingM6:
		return "WaitingM6"
	case StateWaitingM7:
		return "WaitingM7"
	case StateWaitingM8:
		return "WaitingM8"
	case StateWaitingDone:
		return "WaitingDone"
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
