// Package config holds the daemon's configuration as an ordered list of
// "name=value" strings, the form the monitor reads its settings in.
//
// A Store is filled from a "name=value" file or from a YAML document whose
// nested keys are flattened with '_' (wps: {mode: ap} becomes wps_mode=ap).
package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Store is an ordered set of name=value entries. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []string
}

// NewStore returns a store holding the given "name=value" entries.
func NewStore(entries ...string) (*Store, error) {
	s := &Store{}
	for _, e := range entries {
		name, value, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLine, e)
		}
		if err := s.Set(name, value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "= \t\r\n")
}

func (s *Store) index(name string) int {
	prefix := name + "="
	for i, e := range s.entries {
		if strings.HasPrefix(e, prefix) {
			return i
		}
	}
	return -1
}

// Get returns the value of name.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(name)
	if i < 0 {
		return "", false
	}
	return s.entries[i][len(name)+1:], true
}

// GetDefault returns the value of name, or def when unset.
func (s *Store) GetDefault(name, def string) string {
	if v, ok := s.Get(name); ok {
		return v
	}
	return def
}

// Set replaces the value of name in place, or appends it.
func (s *Store) Set(name, value string) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := name + "=" + value
	if i := s.index(name); i >= 0 {
		s.entries[i] = entry
		return nil
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Unset removes name. It reports whether it was present.
func (s *Store) Unset(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(name)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// List returns a copy of all entries in insertion order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ParseLines reads "name=value" lines into the store. Blank lines and lines
// starting with '#' are skipped; later entries override earlier ones.
func (s *Store) ParseLines(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("%w: line %d", ErrInvalidLine, lineNo)
		}
		if err := s.Set(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return sc.Err()
}
