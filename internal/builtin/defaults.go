package builtin

import (
	"context"

	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/invocation"
	"github.com/dorcha-inc/pal/internal/item"
)

// Host is what the builtin palettes need from the launcher to list, pick
// and run other palettes.
type Host interface {
	PaletteIDs() []string
	// PaletteConfig resolves a palette and returns its effective
	// configuration.
	PaletteConfig(ctx context.Context, inv invocation.Context, id string) (map[string]any, error)
	List(ctx context.Context, inv invocation.Context, id string, input *string) ([]item.Item, error)
	Pick(ctx context.Context, inv invocation.Context, id string, it item.Item) (string, error)
	Run(ctx context.Context, inv invocation.Context, frontend, palette string) (string, error)
}

// Options configures the default builtins.
type Options struct {
	Executor *core.ProcessExecutor
	// Self is the pal executable, used by frontends that call back into
	// pal while they are open.
	Self string
	// Terminal is where the stdin frontend talks to the user. When nil the
	// controlling terminal is opened on first use.
	Terminal *Terminal
}

// NewDefaultRegistry registers every builtin palette and frontend.
func NewDefaultRegistry(host Host, opts Options) *Registry {
	if opts.Executor == nil {
		opts.Executor = core.NewProcessExecutor()
	}
	if opts.Terminal == nil {
		opts.Terminal = NewTerminal(nil, nil)
	}

	r := NewRegistry()
	r.Register(KeyCombine, newCombine(host))
	r.Register(KeyPals, newPals(host))
	r.Register(KeyFzf, newFzf(opts.Executor, opts.Self))
	r.Register(KeyRofi, newRofi(opts.Executor, opts.Self))
	r.Register(KeyStdin, newStdin(opts.Terminal))
	return r
}
