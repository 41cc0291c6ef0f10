// Package plugin resolves plugin locations to runnable handles and invokes
// them with the pal plugin protocol: `<command> <operation>` with input on
// standard input and output on standard output.
package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/dorcha-inc/pal/internal/core"
)

// ManifestFileName is the manifest every plugin directory carries.
const ManifestFileName = "plugin.toml"

// Manifest fields pal itself reads. Everything else is passed through to
// the plugin as configuration.
const (
	ManifestCommand       = "command"
	ManifestIcon          = "icon"
	ManifestAutoList      = "auto_list"
	ManifestAutoPick      = "auto_pick"
	ManifestDefaultAction = "default_action"
	ManifestActionKey     = "action_key"
)

// Manifest is a parsed plugin.toml.
type Manifest struct {
	// Command is argv: the executable relative to the plugin directory
	// followed by fixed arguments. Empty for builtin manifests.
	Command []string `validate:"required,min=1,dive,required"`
	Fields  map[string]any
}

var validate = validator.New()

// LoadManifest loads and parses plugin.toml from dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)

	// Open root directory for secure file access
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, NewManifestError(path, "cannot open plugin directory", err)
	}
	defer core.LogDeferredError(root.Close)

	data, err := root.ReadFile(ManifestFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewManifestError(path, "missing "+ManifestFileName, nil)
		}
		return nil, NewManifestError(path, "unreadable", err)
	}

	return ParseManifest(path, data)
}

// ParseManifest parses manifest contents. path is only used in errors.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	fields := map[string]any{}
	if err := toml.Unmarshal(data, &fields); err != nil {
		return nil, NewManifestError(path, "cannot parse", err)
	}

	command, err := commandArgv(fields[ManifestCommand])
	if err != nil {
		return nil, NewManifestError(path, err.Error(), nil)
	}

	m := &Manifest{Command: command, Fields: fields}
	if err := validate.Struct(m); err != nil {
		return nil, NewManifestError(path, "missing 'command'", err)
	}
	return m, nil
}

// BuiltinManifest wraps the compiled-in fields of a builtin plugin.
func BuiltinManifest(fields map[string]any) *Manifest {
	return &Manifest{Fields: maps.Clone(fields)}
}

// commandArgv accepts `command = "run.sh"` or `command = ["run.sh", "--flag"]`.
func commandArgv(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		return []string{t}, nil
	case []any:
		argv := make([]string, 0, len(t))
		for _, el := range t {
			s, ok := el.(string)
			if !ok {
				return nil, fmt.Errorf("'command' must contain only strings, got %T", el)
			}
			argv = append(argv, s)
		}
		return argv, nil
	default:
		return nil, fmt.Errorf("'command' must be a string or an array, got %T", v)
	}
}
