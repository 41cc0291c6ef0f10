// Package launcher composes resolution, execution, caching and prompts into
// pal's operations: list a palette, select through a frontend, resolve the
// item's prompts and pick it.
package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/builtin"
	"github.com/dorcha-inc/pal/internal/cache"
	"github.com/dorcha-inc/pal/internal/config"
	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/invocation"
	"github.com/dorcha-inc/pal/internal/item"
	"github.com/dorcha-inc/pal/internal/plugin"
)

// DefaultActionSource is where actions without a local directory are
// fetched from.
const DefaultActionSource = "github:zcag/pal/plugins/actions/"

// Effective configuration keys the launcher reads.
const (
	keyAutoList      = "auto_list"
	keyAutoPick      = "auto_pick"
	keyData          = "data"
	keyCache         = "cache"
	keyDefaultAction = "default_action"
	keyActionKey     = "action_key"
	keyInput         = "input"
	keyInputPrompt   = "input_prompt"
	keyItems         = "items"
)

// Detacher starts processes that outlive pal.
type Detacher interface {
	StartDetached(spec *core.ProcessSpec) error
}

// Options configures a Launcher.
type Options struct {
	Config   *config.Config
	Executor *core.ProcessExecutor
	// Fetcher resolves remote locators; nil disables them.
	Fetcher plugin.RemoteFetcher
	// Cache stores display caches; nil disables caching.
	Cache *cache.Manager
	// Detacher starts background cache regeneration. Defaults to Executor.
	Detacher Detacher
	// Self is the pal executable, re-run for regeneration and callbacks.
	Self string
	// ActionsDir holds local actions, one directory per action name.
	ActionsDir string
	Terminal   *builtin.Terminal
}

// Launcher runs palettes. It is built once per process from the merged
// configuration.
type Launcher struct {
	cfg        *config.Config
	resolver   *plugin.Resolver
	invoker    *plugin.Invoker
	registry   *builtin.Registry
	cache      *cache.Manager
	detacher   Detacher
	self       string
	actionsDir string
	environ    func() []string
}

var validate = validator.New()

// New creates a launcher.
func New(opts Options) *Launcher {
	if opts.Executor == nil {
		opts.Executor = core.NewProcessExecutor()
	}
	if opts.Detacher == nil {
		opts.Detacher = opts.Executor
	}
	l := &Launcher{
		cfg:        opts.Config,
		cache:      opts.Cache,
		detacher:   opts.Detacher,
		self:       opts.Self,
		actionsDir: opts.ActionsDir,
		environ:    os.Environ,
	}
	l.registry = builtin.NewDefaultRegistry(l, builtin.Options{
		Executor: opts.Executor,
		Self:     opts.Self,
		Terminal: opts.Terminal,
	})
	l.resolver = plugin.NewResolver(l.registry, opts.Fetcher)
	l.invoker = plugin.NewInvoker(opts.Executor, l.registry)
	return l
}

// Interface guard
var _ builtin.Host = &Launcher{}

// Config returns the configuration the launcher was built with.
func (l *Launcher) Config() *config.Config {
	return l.cfg
}

type resolvedPalette struct {
	id     string
	handle *plugin.Handle
	// dir is where relative paths of the palette spec resolve.
	dir string
}

type resolvedFrontend struct {
	id      string
	handle  *plugin.Handle
	builtin *builtin.Handler
}

func (p *resolvedPalette) flag(key string) bool {
	return boolValue(p.handle.Config[key])
}

func (p *resolvedPalette) str(key string) string {
	return core.StringValue(p.handle.Config[key])
}

// resolvePalette resolves id, or the default palette when id is empty. A
// palette without base is a combine when it has include, and data-only
// when it has auto_list.
func (l *Launcher) resolvePalette(ctx context.Context, inv invocation.Context, id string) (*resolvedPalette, error) {
	id = config.NormalizeID(id)
	if id == "" {
		id = config.NormalizeID(l.cfg.General.DefaultPalette)
	}
	spec, ok := l.cfg.PaletteSpec(id)
	if !ok {
		return nil, newUnknownError("palette", id, l.cfg.PaletteIDs())
	}

	fields := spec.Fields()
	dir := core.FirstNonEmpty(spec.Dir, inv.ConfigDir())
	base := spec.Base
	if base == "" && len(spec.Include) > 0 {
		base = plugin.BuiltinPrefix + builtin.KeyCombine
	}
	if base == "" {
		if !spec.AutoList {
			return nil, NewResolutionError("palette", id, "has no base")
		}
		return &resolvedPalette{id: id, handle: &plugin.Handle{Location: "palette." + id, Config: fields}, dir: dir}, nil
	}

	h, err := l.resolver.Resolve(ctx, inDir(inv, dir), base, fields)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", id, err)
	}
	return &resolvedPalette{id: id, handle: h, dir: dir}, nil
}

// inDir returns inv with relative plugin paths resolving against dir.
func inDir(inv invocation.Context, dir string) invocation.Context {
	if dir == "" || dir == inv.ConfigDir() {
		return inv
	}
	return inv.WithConfig(inv.ConfigPath(), dir)
}

// frontendID picks the explicit id, then the frontend of the invocation,
// then the configured default.
func (l *Launcher) frontendID(inv invocation.Context, explicit string) string {
	for _, id := range []string{explicit, inv.Frontend(), l.cfg.General.DefaultFrontend} {
		if id = config.NormalizeID(id); id != "" {
			return id
		}
	}
	return config.DefaultFrontendID
}

func (l *Launcher) resolveFrontend(ctx context.Context, inv invocation.Context, explicit string) (*resolvedFrontend, error) {
	id := l.frontendID(inv, explicit)
	spec, ok := l.cfg.FrontendSpec(id)
	if !ok {
		return nil, newUnknownError("frontend", id, l.cfg.FrontendIDs())
	}
	if spec.Base == "" {
		return nil, NewResolutionError("frontend", id, "has no base")
	}
	h, err := l.resolver.Resolve(ctx, inDir(inv, spec.Dir), spec.Base, spec.Fields())
	if err != nil {
		return nil, fmt.Errorf("frontend %s: %w", id, err)
	}
	f := &resolvedFrontend{id: id, handle: h}
	if h.IsBuiltin() {
		f.builtin, _ = l.registry.Lookup(h.Builtin)
	}
	return f, nil
}

// PaletteIDs returns the configured palette ids.
func (l *Launcher) PaletteIDs() []string {
	return l.cfg.PaletteIDs()
}

// PaletteConfig returns the effective configuration of a palette: its
// manifest overlaid by its spec.
func (l *Launcher) PaletteConfig(ctx context.Context, inv invocation.Context, id string) (map[string]any, error) {
	p, err := l.resolvePalette(ctx, inv, id)
	if err != nil {
		return nil, err
	}
	return p.handle.Config, nil
}

// List runs the list operation of a palette. input is sent instead of the
// palette configuration when set.
func (l *Launcher) List(ctx context.Context, inv invocation.Context, id string, input *string) ([]item.Item, error) {
	p, err := l.resolvePalette(ctx, inv, id)
	if err != nil {
		return nil, err
	}
	inv, err = inv.Enter(p.id)
	if err != nil {
		return nil, err
	}

	if p.flag(keyAutoList) {
		return l.readData(p)
	}
	out, err := l.invoker.Invoke(ctx, inv, p.handle, builtin.OpList, input)
	if err != nil {
		return nil, err
	}
	return item.ParseStream(out), nil
}

// readData reads the item file of an auto_list palette. Relative paths are
// resolved against the plugin directory, else the directory of the config
// file that defined the palette.
func (l *Launcher) readData(p *resolvedPalette) ([]item.Item, error) {
	path := core.ExpandHome(p.str(keyData))
	if path == "" {
		return nil, NewResolutionError("palette", p.id, "auto_list requires data")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(core.FirstNonEmpty(p.handle.Dir, p.dir), path)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the user's config
	if err != nil {
		return nil, fmt.Errorf("palette %s: failed to read data: %w", p.id, err)
	}
	return item.ParseStream(string(data)), nil
}

type autoPick struct {
	DefaultAction string `validate:"required"`
	ActionKey     string `validate:"required"`
}

// Pick runs the pick operation of a palette on it. The scalar fields of it
// are exported to the plugin as PAL_<KEY> variables. An auto_pick palette
// hands the action_key field of it to its default action instead.
func (l *Launcher) Pick(ctx context.Context, inv invocation.Context, id string, it item.Item) (string, error) {
	p, err := l.resolvePalette(ctx, inv, id)
	if err != nil {
		return "", err
	}
	inv, err = inv.Enter(p.id)
	if err != nil {
		return "", err
	}
	inv = inv.WithItemEnv(it.Env())

	if p.flag(keyAutoPick) {
		ap := autoPick{DefaultAction: p.str(keyDefaultAction), ActionKey: p.str(keyActionKey)}
		if err := validate.Struct(ap); err != nil {
			return "", NewResolutionError("palette", p.id, "auto_pick requires default_action and action_key")
		}
		return l.Action(ctx, inv, ap.DefaultAction, it.String(ap.ActionKey))
	}

	if !p.handle.IsBuiltin() && p.handle.Executable == "" {
		return "", NewResolutionError("palette", p.id, "has no base to pick with")
	}
	encoded, err := it.Encode()
	if err != nil {
		return "", err
	}
	return l.invoker.Invoke(ctx, inv, p.handle, builtin.OpPick, &encoded)
}

// Action runs the named action with value as input. A directory of that
// name under the actions directory wins over the default remote source.
func (l *Launcher) Action(ctx context.Context, inv invocation.Context, name, value string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", NewResolutionError("action", name, "invalid name")
	}
	location := DefaultActionSource + name
	if l.actionsDir != "" {
		dir := filepath.Join(l.actionsDir, name)
		if core.Exists(filepath.Join(dir, plugin.ManifestFileName)) {
			location = dir
		}
	}

	h, err := l.resolver.Resolve(ctx, inv, location, map[string]any{})
	if err != nil {
		return "", fmt.Errorf("action %s: %w", name, err)
	}
	zap.L().Debug("Running action", zap.String("action", name), zap.String("location", location))
	return l.invoker.Invoke(ctx, inv, h, builtin.OpRun, &value)
}

// Select shows items through a frontend and returns the selection.
func (l *Launcher) Select(ctx context.Context, inv invocation.Context, frontend string, items []item.Item) (item.Item, error) {
	f, err := l.resolveFrontend(ctx, inv, frontend)
	if err != nil {
		return nil, err
	}
	return l.selectWith(ctx, inv, f, items)
}

// selectWith sends the item stream to builtin frontends and a JSON
// {"items": [...]} document to external ones.
func (l *Launcher) selectWith(ctx context.Context, inv invocation.Context, f *resolvedFrontend, items []item.Item) (item.Item, error) {
	var input string
	if f.handle.IsBuiltin() {
		input = item.EncodeStream(items)
	} else {
		if items == nil {
			items = []item.Item{}
		}
		data, err := core.MarshalJSON(map[string]any{keyItems: items})
		if err != nil {
			return nil, fmt.Errorf("failed to encode items: %w", err)
		}
		input = string(data)
	}

	out, err := l.invoker.Invoke(ctx, inv, f.handle, builtin.OpRun, &input)
	if err != nil {
		return nil, err
	}
	return parseSelection(out)
}

func parseSelection(out string) (item.Item, error) {
	line := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if line == "" {
		return nil, ErrCancelled
	}
	return item.Parse(line)
}

// Run lists a palette, lets the user select through a frontend, resolves
// the item's prompts and picks it. Empty ids select the defaults.
func (l *Launcher) Run(ctx context.Context, inv invocation.Context, frontend, palette string) (string, error) {
	f, err := l.resolveFrontend(ctx, inv, frontend)
	if err != nil {
		return "", err
	}
	p, err := l.resolvePalette(ctx, inv, palette)
	if err != nil {
		return "", err
	}
	inv = inv.WithFrontend(f.id).WithPalette(p.id)
	zap.L().Debug("Running palette", zap.String("palette", p.id), zap.String("frontend", f.id))

	if p.flag(keyInput) {
		return l.runInput(ctx, inv, f, p)
	}

	var selected item.Item
	if l.cacheable(p, f) {
		selected, err = l.runCached(ctx, inv, f, p)
	} else {
		var items []item.Item
		items, err = l.List(ctx, inv, p.id, nil)
		if err != nil {
			return "", err
		}
		selected, err = l.selectWith(ctx, inv, f, items)
	}
	if err != nil {
		return "", err
	}
	return l.resolveAndPick(ctx, inv, f.id, p.id, selected)
}

func (l *Launcher) resolveAndPick(ctx context.Context, inv invocation.Context, frontend, palette string, it item.Item) (string, error) {
	resolved, err := l.ResolvePrompts(ctx, inv, frontend, it)
	if err != nil {
		return "", err
	}
	return l.Pick(ctx, inv, palette, resolved)
}

// runInput drives a palette that lists from a user query.
func (l *Launcher) runInput(ctx context.Context, inv invocation.Context, f *resolvedFrontend, p *resolvedPalette) (string, error) {
	message := core.FirstNonEmpty(p.str(keyInputPrompt), p.id)
	mode := builtin.InputNone
	if f.builtin != nil {
		mode = f.builtin.Input
	}

	switch mode {
	case builtin.InputReload:
		out, err := l.invoker.Invoke(ctx, inv, f.handle, builtin.OpInputRun, &message)
		if err != nil {
			return "", err
		}
		selected, err := parseSelection(out)
		if err != nil {
			return "", err
		}
		return l.resolveAndPick(ctx, inv, f.id, p.id, selected)
	case builtin.InputScript:
		_, err := l.invoker.Invoke(ctx, inv, f.handle, builtin.OpInputRun, &message)
		return "", err
	default:
		query, err := l.asker(inv, f.id).Text(ctx, message)
		if err != nil {
			return "", err
		}
		if query == "" {
			return "", ErrCancelled
		}
		items, err := l.List(ctx, inv, p.id, &query)
		if err != nil {
			return "", err
		}
		selected, err := l.selectWith(ctx, inv, f, items)
		if err != nil {
			return "", err
		}
		return l.resolveAndPick(ctx, inv, f.id, p.id, selected)
	}
}

// InputList lists an input palette for query and renders the items the way
// frontend displays them. It backs the live reload of input frontends.
func (l *Launcher) InputList(ctx context.Context, inv invocation.Context, palette, frontend, query string) (string, error) {
	items, err := l.List(ctx, inv, palette, &query)
	if err != nil {
		return "", err
	}
	f, err := l.resolveFrontend(ctx, inv, frontend)
	if err != nil {
		return "", err
	}
	if f.builtin != nil && f.builtin.Display != nil {
		return f.builtin.Display.FormatDisplay(items), nil
	}
	return item.EncodeStream(items), nil
}

// RofiInput implements the rofi script mode protocol for an input palette.
// retv is ROFI_RETV, query the entry typed by the user and info the
// ROFI_INFO of a selected row.
func (l *Launcher) RofiInput(ctx context.Context, inv invocation.Context, palette, retv, query, info string) (string, error) {
	p, err := l.resolvePalette(ctx, inv, palette)
	if err != nil {
		return "", err
	}
	inv = inv.WithPalette(p.id)
	message := core.FirstNonEmpty(p.str(keyInputPrompt), p.id)

	switch retv {
	case "", builtin.RofiRetvInitial:
		return builtin.RofiScriptHeader(message, false), nil
	case builtin.RofiRetvCustom:
		if query == "" {
			return "", nil
		}
		items, err := l.List(ctx, inv, p.id, &query)
		if err != nil {
			return "", err
		}
		return builtin.RofiScriptHeader(message, true) + builtin.RofiScriptRows(items), nil
	case builtin.RofiRetvSelected:
		it, err := item.Parse(info)
		if err != nil {
			return "", err
		}
		if _, err := l.resolveAndPick(ctx, inv, l.frontendID(inv, ""), p.id, it); err != nil {
			return "", err
		}
		return "", nil
	default:
		return "", nil
	}
}
