package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML flattens a YAML mapping into the store, in document order.
// Nested mapping keys are joined with '_' and sequences of scalars become
// a space separated value.
func (s *Store) ParseYAML(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if doc.Kind == 0 {
		// Empty document.
		return nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("%w: top level is not a mapping", ErrInvalidDocument)
	}
	return s.flatten("", doc.Content[0])
}

func (s *Store) flatten(prefix string, m *yaml.Node) error {
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, value := m.Content[i], m.Content[i+1]
		name := key.Value
		if prefix != "" {
			name = prefix + "_" + name
		}

		switch value.Kind {
		case yaml.ScalarNode:
			if err := s.Set(name, value.Value); err != nil {
				return err
			}
		case yaml.SequenceNode:
			items := make([]string, 0, len(value.Content))
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("%w: %s: nested sequence", ErrInvalidDocument, name)
				}
				items = append(items, item.Value)
			}
			if err := s.Set(name, strings.Join(items, " ")); err != nil {
				return err
			}
		case yaml.MappingNode:
			if err := s.flatten(name, value); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s: unsupported node", ErrInvalidDocument, name)
		}
	}
	return nil
}

// Load reads a configuration file into the store. Files ending in .yaml or
// .yml are parsed as YAML, anything else as "name=value" lines.
func (s *Store) Load(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := s.ParseYAML(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := s.ParseLines(f); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}
}
