package launcher

import (
	"context"
	"errors"

	"github.com/dorcha-inc/pal/internal/builtin"
	"github.com/dorcha-inc/pal/internal/cache"
	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/invocation"
	"github.com/dorcha-inc/pal/internal/item"
)

// CacheRegenCommand is the hidden command a detached pal runs to refresh a
// display cache.
const CacheRegenCommand = "cache-regen"

// cacheable reports whether runs of p through f use the display cache: the
// palette asks for it and the frontend can select from a rendered list.
func (l *Launcher) cacheable(p *resolvedPalette, f *resolvedFrontend) bool {
	return l.cache != nil && p.flag(keyCache) && f.builtin != nil && f.builtin.Display != nil
}

func (l *Launcher) runCached(ctx context.Context, inv invocation.Context, f *resolvedFrontend, p *resolvedPalette) (item.Item, error) {
	entry, _, err := l.cache.Serve(ctx, cache.ServeRequest{
		Palette:  p.id,
		Frontend: f.id,
		Build: func(ctx context.Context) (*cache.Entry, error) {
			return l.buildEntry(ctx, inv, f, p.id)
		},
		Regenerate: func() error {
			return l.spawnRegeneration(inv, p.id, f.id)
		},
	})
	if err != nil {
		return nil, err
	}

	out, err := f.builtin.Display.SelectDisplay(ctx, &builtin.Request{Inv: inv, Handle: f.handle},
		entry.Display, item.ParseStream(entry.Items))
	if err != nil {
		return nil, err
	}
	return parseSelection(out)
}

func (l *Launcher) buildEntry(ctx context.Context, inv invocation.Context, f *resolvedFrontend, palette string) (*cache.Entry, error) {
	items, err := l.List(ctx, inv, palette, nil)
	if err != nil {
		return nil, err
	}
	return &cache.Entry{
		Items:   item.EncodeStream(items),
		Display: f.builtin.Display.FormatDisplay(items),
	}, nil
}

// spawnRegeneration starts `pal [--config <path>] cache-regen <palette>
// <frontend>` detached from this process.
func (l *Launcher) spawnRegeneration(inv invocation.Context, palette, frontend string) error {
	if l.self == "" {
		return errors.New("pal executable unknown")
	}
	var args []string
	if inv.ConfigPath() != "" {
		args = append(args, "--config", inv.ConfigPath())
	}
	args = append(args, CacheRegenCommand, palette, frontend)
	return l.detacher.StartDetached(&core.ProcessSpec{
		Path: l.self,
		Args: args,
		Env:  append(l.environ(), inv.Environ("")...),
	})
}

// RegenerateCache lists a palette and rewrites its display cache for a
// frontend.
func (l *Launcher) RegenerateCache(ctx context.Context, inv invocation.Context, palette, frontend string) error {
	f, err := l.resolveFrontend(ctx, inv, frontend)
	if err != nil {
		return err
	}
	p, err := l.resolvePalette(ctx, inv, palette)
	if err != nil {
		return err
	}
	if !l.cacheable(p, f) {
		return NewResolutionError("palette", p.id, "is not cached for frontend "+f.id)
	}
	inv = inv.WithFrontend(f.id).WithPalette(p.id)
	_, err = l.cache.Regenerate(ctx, p.id, f.id, func(ctx context.Context) (*cache.Entry, error) {
		return l.buildEntry(ctx, inv, f, p.id)
	})
	return err
}
