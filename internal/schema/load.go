package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Categories []Category `yaml:"categories"`
}

// LoadFile reads a YAML document with a top-level "categories" list.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories defined", ErrInvalidSchema)
	}
	return NewRegistry(cfg.Categories...)
}
