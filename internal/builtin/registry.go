// Package builtin holds the in-process plugins addressed as
// builtin/<category>/<name>: the combine and pals palettes and the fzf,
// rofi and stdin frontends.
package builtin

import (
	"context"
	"time"

	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/invocation"
	"github.com/dorcha-inc/pal/internal/item"
	"github.com/dorcha-inc/pal/internal/plugin"
)

// Plugin operations.
const (
	OpList     = "list"
	OpPick     = "pick"
	OpRun      = "run"
	OpPrompt   = "prompt"
	OpInputRun = "input_run"
)

// Builtin keys, relative to plugin.BuiltinPrefix.
const (
	KeyCombine = "palettes/combine"
	KeyPals    = "palettes/pals"
	KeyFzf     = "frontends/fzf"
	KeyRofi    = "frontends/rofi"
	KeyStdin   = "frontends/stdin"
)

// Request is one builtin operation call.
type Request struct {
	Inv    invocation.Context
	Handle *plugin.Handle
	Input  *string
}

// Config returns the effective configuration of the handle.
func (r *Request) Config() map[string]any {
	return r.Handle.Config
}

// InputText returns the operation input, or "" when there is none.
func (r *Request) InputText() string {
	if r.Input == nil {
		return ""
	}
	return *r.Input
}

// OpFunc implements one operation of a builtin.
type OpFunc func(ctx context.Context, req *Request) (string, error)

// InputMode is how a frontend drives an input palette.
type InputMode int

const (
	// InputNone frontends get a prompt, then a list built from the answer.
	InputNone InputMode = iota
	// InputReload frontends re-list on every keystroke and return the
	// selected item from input_run.
	InputReload
	// InputScript frontends call back into pal for listing and picking;
	// input_run returns once the user is done.
	InputScript
)

// DisplayFrontend is a frontend that can select from a pre-rendered list,
// which is what the display cache stores.
type DisplayFrontend interface {
	FormatDisplay(items []item.Item) string
	// SelectDisplay shows display and returns the selected item as JSON,
	// or "" when the user cancelled.
	SelectDisplay(ctx context.Context, req *Request, display string, items []item.Item) (string, error)
}

// Handler is a registered builtin.
type Handler struct {
	Manifest map[string]any
	Ops      map[string]OpFunc
	Display  DisplayFrontend
	Input    InputMode
}

// Registry maps builtin keys to handlers. It is built once at startup.
type Registry struct {
	handlers map[string]*Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]*Handler{}}
}

// Register adds or replaces the handler for key.
func (r *Registry) Register(key string, h *Handler) {
	r.handlers[key] = h
}

// Lookup returns the handler for key.
func (r *Registry) Lookup(key string) (*Handler, bool) {
	h, ok := r.handlers[key]
	return h, ok
}

// Keys returns the registered keys in lexical order.
func (r *Registry) Keys() []string {
	return core.SortedKeys(r.handlers)
}

// Manifest implements plugin.BuiltinCatalog.
func (r *Registry) Manifest(key string) (map[string]any, bool) {
	h, ok := r.handlers[key]
	if !ok {
		return nil, false
	}
	return h.Manifest, true
}

// Dispatch implements plugin.Dispatcher.
func (r *Registry) Dispatch(ctx context.Context, inv invocation.Context, h *plugin.Handle, operation string, input *string) (string, error) {
	handler, ok := r.handlers[h.Builtin]
	if !ok {
		// the resolver and the dispatcher share this registry
		return "", plugin.NewLocationError(h.Location, "unknown builtin"+core.BugReportMessage())
	}
	op, ok := handler.Ops[operation]
	if !ok {
		return "", plugin.NewUnknownOperationError(h.Location, operation)
	}

	start := time.Now()
	out, err := op(ctx, &Request{Inv: inv, Handle: h, Input: input})
	core.LogPluginInvocation(h.Location, operation, time.Since(start).Seconds(), err)
	return out, err
}

// Interface guards
var (
	_ plugin.BuiltinCatalog = &Registry{}
	_ plugin.Dispatcher     = &Registry{}
)
