package plugin

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/invocation"
)

// BuiltinPrefix marks locations dispatched to in-process handlers.
const BuiltinPrefix = "builtin/"

// Handle is a resolved plugin: its effective configuration plus either an
// executable or a builtin key. Handles are rebuilt for every operation.
type Handle struct {
	Location   string
	Builtin    string // e.g. "palettes/combine"; empty for external plugins
	Dir        string
	Executable string
	Args       []string
	Config     map[string]any
}

// IsBuiltin reports whether the handle dispatches in process.
func (h *Handle) IsBuiltin() bool {
	return h.Builtin != ""
}

// ConfigJSON serializes the effective configuration.
func (h *Handle) ConfigJSON() (string, error) {
	data, err := core.MarshalJSON(h.Config)
	if err != nil {
		return "", fmt.Errorf("failed to serialize config of %s: %w", h.Location, err)
	}
	return string(data), nil
}

// BuiltinCatalog exposes the compiled-in manifest of each builtin plugin.
type BuiltinCatalog interface {
	Manifest(key string) (map[string]any, bool)
}

// RemoteFetcher materializes remote locators as local directories.
type RemoteFetcher interface {
	IsRemote(location string) bool
	Ensure(ctx context.Context, location string) (string, error)
}

// Resolver turns location strings into handles.
type Resolver struct {
	builtins BuiltinCatalog
	fetcher  RemoteFetcher
}

// NewResolver creates a resolver. fetcher may be nil, in which case remote
// locators do not resolve.
func NewResolver(builtins BuiltinCatalog, fetcher RemoteFetcher) *Resolver {
	return &Resolver{builtins: builtins, fetcher: fetcher}
}

// Resolve finds the plugin at location and overlays caller onto its manifest
// fields. Forms are tried in order: builtin/<category>/<name>, a local
// directory (as given, then relative to the config directory), a remote
// locator.
func (r *Resolver) Resolve(ctx context.Context, inv invocation.Context, location string, caller map[string]any) (*Handle, error) {
	if location == "" {
		return nil, NewLocationError(location, "empty location")
	}

	if key, ok := strings.CutPrefix(location, BuiltinPrefix); ok {
		fields, found := r.builtins.Manifest(key)
		if !found {
			return nil, NewLocationError(location, "unknown builtin")
		}
		return &Handle{
			Location: location,
			Builtin:  key,
			Config:   Overlay(BuiltinManifest(fields).Fields, caller),
		}, nil
	}

	dir, err := r.localDir(inv, location)
	if err != nil {
		return nil, err
	}
	if dir == "" && r.fetcher != nil && r.fetcher.IsRemote(location) {
		dir, err = r.fetcher.Ensure(ctx, location)
		if err != nil {
			return nil, err
		}
	}
	if dir == "" {
		return nil, NewLocationError(location, "not a builtin, a plugin directory or a remote locator")
	}

	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	executable, prefix, err := scriptArgv(executablePath(dir, manifest.Command[0]))
	if err != nil {
		return nil, NewManifestError(filepath.Join(dir, ManifestFileName), "command cannot be run", err)
	}
	handle := &Handle{
		Location:   location,
		Dir:        dir,
		Executable: executable,
		Args:       append(prefix, manifest.Command[1:]...),
		Config:     Overlay(manifest.Fields, caller),
	}
	zap.L().Debug("Resolved plugin",
		zap.String("location", location),
		zap.String("dir", dir),
		zap.String("executable", handle.Executable))
	return handle, nil
}

// localDir returns the first candidate directory holding a manifest. A
// candidate directory without one is a ManifestError; no candidate at all
// returns "".
func (r *Resolver) localDir(inv invocation.Context, location string) (string, error) {
	expanded := core.ExpandHome(location)
	candidates := []string{expanded}
	if !filepath.IsAbs(expanded) && inv.ConfigDir() != "" {
		candidates = append(candidates, filepath.Join(inv.ConfigDir(), expanded))
	}

	var bare string
	for _, c := range candidates {
		if !core.IsDir(c) {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			abs = c
		}
		if core.Exists(filepath.Join(abs, ManifestFileName)) {
			return abs, nil
		}
		if bare == "" {
			bare = abs
		}
	}
	if bare != "" {
		return "", NewManifestError(filepath.Join(bare, ManifestFileName), "missing "+ManifestFileName, nil)
	}
	return "", nil
}

// executablePath resolves argv[0] against the plugin directory. A bare
// command name that is not a file in the directory is looked up on PATH, so
// manifests may say `command = ["python3", "main.py"]`.
func executablePath(dir, command string) string {
	if filepath.IsAbs(command) {
		return command
	}
	local := filepath.Join(dir, command)
	if core.Exists(local) || strings.ContainsRune(command, filepath.Separator) || strings.ContainsRune(command, '/') {
		return local
	}
	if path, err := exec.LookPath(command); err == nil {
		return path
	}
	return local
}
