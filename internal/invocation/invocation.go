// Package invocation carries the state of one pal invocation: which config
// is active, which palette and frontend were chosen, and which palettes are
// currently being resolved. Values are immutable; every With method returns
// a copy.
package invocation

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dorcha-inc/pal/internal/core"
)

// CycleError is returned when a palette is entered while it is already
// being resolved further up the chain, e.g. a combine that includes itself.
type CycleError struct {
	Chain   []string `json:"chain"`
	Palette string   `json:"palette"`
}

// Error returns the error message for the CycleError
func (e *CycleError) Error() string {
	return fmt.Sprintf("palette cycle detected: %s -> %s", strings.Join(e.Chain, " -> "), e.Palette)
}

// NewCycleError creates a new CycleError
func NewCycleError(chain []string, palette string) *CycleError {
	return &CycleError{Chain: slices.Clone(chain), Palette: palette}
}

// Interface guard for CycleError
var _ error = &CycleError{}

// Context is the invocation context threaded through resolve, list, pick
// and prompt. The zero value is usable and describes an invocation with no
// config file.
type Context struct {
	configPath string
	configDir  string
	palette    string
	frontend   string
	chain      []string
	itemEnv    []string
}

// New returns a context for the given config path. The config directory is
// derived from the path.
func New(configPath, configDir string) Context {
	if configDir == "" && configPath != "" {
		configDir = filepath.Dir(configPath)
	}
	return Context{configPath: configPath, configDir: configDir}
}

// FromEnviron rebuilds the context a parent pal process exported. It is
// only used at process start; nothing else reads the environment.
func FromEnviron(environ []string) Context {
	path, _ := core.LookupEnv(environ, core.EnvConfig)
	dir, _ := core.LookupEnv(environ, core.EnvConfigDir)
	ctx := New(path, dir)
	ctx.palette, _ = core.LookupEnv(environ, core.EnvPalette)
	ctx.frontend, _ = core.LookupEnv(environ, core.EnvFrontend)
	if chain, ok := core.LookupEnv(environ, core.EnvChain); ok {
		for _, id := range strings.Split(chain, chainSeparator) {
			if id != "" {
				ctx.chain = append(ctx.chain, id)
			}
		}
	}
	return ctx
}

const chainSeparator = ","

func (c Context) ConfigPath() string { return c.configPath }
func (c Context) ConfigDir() string  { return c.configDir }
func (c Context) Palette() string    { return c.palette }
func (c Context) Frontend() string   { return c.frontend }

// Chain returns the palettes currently being resolved, outermost first.
func (c Context) Chain() []string {
	return slices.Clone(c.chain)
}

// WithConfig returns a copy with the config path and directory replaced.
func (c Context) WithConfig(configPath, configDir string) Context {
	n := New(configPath, configDir)
	c.configPath = n.configPath
	c.configDir = n.configDir
	return c
}

// WithPalette returns a copy with the active palette set.
func (c Context) WithPalette(id string) Context {
	c.palette = id
	return c
}

// WithFrontend returns a copy with the active frontend set.
func (c Context) WithFrontend(id string) Context {
	c.frontend = id
	return c
}

// WithItemEnv returns a copy that exports the given KEY=VALUE pairs to
// child processes, typically the fields of a picked item.
func (c Context) WithItemEnv(env []string) Context {
	c.itemEnv = slices.Clone(env)
	return c
}

// WithoutChain returns a copy that is not inside any palette resolution.
// Child processes spawned for anything but a listing get this view, so a
// pick that reruns its own palette is not mistaken for a cycle.
func (c Context) WithoutChain() Context {
	c.chain = nil
	return c
}

// NewSession returns a copy for a new top-level run started from inside
// this one, such as a palette picked from the pals palette. The chain and
// item environment are cleared; config and frontend are kept.
func (c Context) NewSession() Context {
	c.chain = nil
	c.itemEnv = nil
	return c
}

// Enter records that palette id is being resolved. It fails with a
// CycleError when id is already on the chain.
func (c Context) Enter(id string) (Context, error) {
	if slices.Contains(c.chain, id) {
		return c, NewCycleError(c.chain, id)
	}
	c.chain = append(slices.Clone(c.chain), id)
	c.palette = id
	return c, nil
}

// Environ returns the variables exported to child processes. pluginConfig
// is the JSON effective configuration of the plugin being spawned; it is
// omitted when empty.
func (c Context) Environ(pluginConfig string) []string {
	env := make([]string, 0, 6+len(c.itemEnv))
	if c.configPath != "" {
		env = append(env, core.EnvConfig+"="+c.configPath)
	}
	if c.configDir != "" {
		env = append(env, core.EnvConfigDir+"="+c.configDir)
	}
	if c.palette != "" {
		env = append(env, core.EnvPalette+"="+c.palette)
	}
	if c.frontend != "" {
		env = append(env, core.EnvFrontend+"="+c.frontend)
	}
	if len(c.chain) > 0 {
		env = append(env, core.EnvChain+"="+strings.Join(c.chain, chainSeparator))
	}
	if pluginConfig != "" {
		env = append(env, core.EnvPluginConfig+"="+pluginConfig)
	}
	return append(env, c.itemEnv...)
}
