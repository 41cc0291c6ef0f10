package cache

import (
	"context"

	"go.uber.org/zap"
)

// ServeRequest describes a cached palette/frontend pair.
type ServeRequest struct {
	Palette  string
	Frontend string
	// Build lists the palette and renders it for the frontend.
	Build func(ctx context.Context) (*Entry, error)
	// Regenerate starts a detached refresh of the entry. Its failure is
	// logged and otherwise ignored.
	Regenerate func() error
}

// Serve returns the entry to select from. On a hit the cached entry is
// returned immediately after starting a background refresh. On a miss the
// entry is built and returned; a failure to store it is only logged. hit
// reports which case applied.
func (m *Manager) Serve(ctx context.Context, req ServeRequest) (entry *Entry, hit bool, err error) {
	if cached, ok := m.Load(req.Palette, req.Frontend); ok {
		zap.L().Debug("Serving palette from cache",
			zap.String("palette", req.Palette),
			zap.String("frontend", req.Frontend))
		if req.Regenerate != nil {
			if err := req.Regenerate(); err != nil {
				zap.L().Warn("Failed to start cache regeneration", zap.String("palette", req.Palette), zap.Error(err))
			}
		}
		return cached, true, nil
	}

	entry, err = req.Build(ctx)
	if err != nil {
		return nil, false, err
	}
	entry.Palette = req.Palette
	entry.Frontend = req.Frontend
	if err := m.Store(entry); err != nil {
		zap.L().Warn("Failed to write cache", zap.String("palette", req.Palette), zap.Error(err))
	}
	return entry, false, nil
}

// Regenerate builds a fresh entry and stores it.
func (m *Manager) Regenerate(ctx context.Context, palette, frontend string, build func(ctx context.Context) (*Entry, error)) (*Entry, error) {
	entry, err := build(ctx)
	if err != nil {
		return nil, err
	}
	entry.Palette = palette
	entry.Frontend = frontend
	if err := m.Store(entry); err != nil {
		return nil, err
	}
	zap.L().Debug("Cache regenerated", zap.String("palette", palette), zap.String("frontend", frontend))
	return entry, nil
}
