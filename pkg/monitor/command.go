package monitor

import (
	"fmt"
	"strings"
)

// UI command names.
const (
	CommandSet       = "set"
	CommandPBC       = "pbc"
	CommandStop      = "stop"
	CommandAddClient = "addclient"
)

// Command is a parsed UI command: space separated name=value pairs such as
// "cmd=set mode=sta_enrollee pin=12345670".
type Command struct {
	Name string
	Mode Mode
	PIN  string
}

// ParseCommand parses a UI command. Unknown names are ignored.
func ParseCommand(b []byte) (Command, error) {
	var c Command
	for _, field := range strings.Fields(string(b)) {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return c, fmt.Errorf("%w: %q", ErrInvalidCommand, field)
		}
		switch name {
		case "cmd":
			c.Name = value
		case "mode":
			m, err := ParseMode(value)
			if err != nil {
				return c, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
			}
			c.Mode = m
		case "pin":
			c.PIN = value
		}
	}
	switch c.Name {
	case CommandSet, CommandPBC, CommandStop, CommandAddClient:
	default:
		return c, fmt.Errorf("%w: cmd %q", ErrInvalidCommand, c.Name)
	}
	if c.Name == CommandSet && c.PIN == "" {
		return c, fmt.Errorf("%w: set without pin", ErrInvalidCommand)
	}
	return c, nil
}

// Bytes encodes the command in the form ParseCommand reads.
func (c Command) Bytes() []byte {
	parts := []string{"cmd=" + c.Name}
	if c.Mode != ModeNone {
		parts = append(parts, "mode="+c.Mode.String())
	}
	if c.PIN != "" {
		parts = append(parts, "pin="+c.PIN)
	}
	return []byte(strings.Join(parts, " "))
}
