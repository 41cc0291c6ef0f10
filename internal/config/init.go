package config

import (
	_ "embed"
	"fmt"

	"github.com/dorcha-inc/pal/internal/core"
)

//go:embed example.toml
var exampleConfig []byte

// ExampleConfig returns the annotated example configuration.
func ExampleConfig() []byte {
	return exampleConfig
}

// WriteExample writes the example configuration to path. An existing file
// is only replaced when force is set.
func WriteExample(path string, force bool) error {
	if !force && core.Exists(path) {
		return fmt.Errorf("config already exists: %s (use --force to overwrite)", path)
	}
	if err := core.WriteFileAtomic(path, exampleConfig, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
