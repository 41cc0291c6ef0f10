// Package cache persists the last item list of a palette together with its
// frontend rendering, so an interactive frontend can open on stale data
// while a detached process refreshes it.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/core"
)

// File suffixes of the two blobs of an entry.
const (
	ItemsSuffix   = ".items"
	DisplaySuffix = ".display"
)

// Entry is the cached state of one palette for one frontend.
type Entry struct {
	Palette  string
	Frontend string
	Items    string // newline-delimited JSON
	Display  string // frontend-rendered
}

// Manager reads and writes cache entries under a directory.
type Manager struct {
	dir   string
	clock clockwork.Clock
}

// NewManager creates a manager for dir. The directory is created on the
// first write.
func NewManager(dir string, clock clockwork.Clock) *Manager {
	return &Manager{dir: dir, clock: clock}
}

// Dir returns the cache directory.
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) path(palette, frontend, suffix string) (string, error) {
	for _, id := range []string{palette, frontend} {
		if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
			return "", fmt.Errorf("invalid cache key %q", id)
		}
	}
	return filepath.Join(m.dir, palette+"."+frontend+suffix), nil
}

// Load returns the entry for palette and frontend. It reports false unless
// both blobs exist.
func (m *Manager) Load(palette, frontend string) (*Entry, bool) {
	itemsPath, err := m.path(palette, frontend, ItemsSuffix)
	if err != nil {
		return nil, false
	}
	displayPath, _ := m.path(palette, frontend, DisplaySuffix)

	items, err := os.ReadFile(itemsPath) // #nosec G304 -- path is built from validated ids
	if err != nil {
		return nil, false
	}
	display, err := os.ReadFile(displayPath) // #nosec G304 -- path is built from validated ids
	if err != nil {
		return nil, false
	}
	return &Entry{Palette: palette, Frontend: frontend, Items: string(items), Display: string(display)}, true
}

// Store writes both blobs of e. Each file is replaced atomically, so a
// concurrent reader sees either the old or the new content. A blob whose
// content is unchanged is not rewritten.
func (m *Manager) Store(e *Entry) error {
	itemsPath, err := m.path(e.Palette, e.Frontend, ItemsSuffix)
	if err != nil {
		return err
	}
	displayPath, _ := m.path(e.Palette, e.Frontend, DisplaySuffix)

	// #nosec G301 -- per-user cache directory
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	for _, blob := range []struct{ path, data string }{
		{itemsPath, e.Items},
		{displayPath, e.Display},
	} {
		if unchanged(blob.path, blob.data) {
			zap.L().Debug("Cache blob unchanged", zap.String("path", blob.path))
			continue
		}
		if err := core.WriteFileAtomic(blob.path, []byte(blob.data), 0644); err != nil {
			return fmt.Errorf("failed to write cache: %w", err)
		}
	}
	return nil
}

func unchanged(path, data string) bool {
	current, err := os.ReadFile(path) // #nosec G304 -- path is built from validated ids
	if err != nil || len(current) != len(data) {
		return false
	}
	return blake3.Sum256(current) == blake3.Sum256([]byte(data))
}

// EntryStatus describes one cached palette/frontend pair on disk.
type EntryStatus struct {
	Palette  string
	Frontend string
	Size     int64
	Age      time.Duration
	Complete bool // both blobs present
}

// Status lists the entries in the cache directory, sorted by palette and
// frontend. Age is measured from the newest blob.
func (m *Manager) Status() ([]EntryStatus, error) {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	type acc struct {
		status EntryStatus
		blobs  int
		newest time.Time
	}
	byKey := map[string]*acc{}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		key, ok := entryKey(f.Name())
		if !ok {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		a := byKey[key]
		if a == nil {
			palette, frontend, _ := strings.Cut(key, ".")
			a = &acc{status: EntryStatus{Palette: palette, Frontend: frontend}}
			byKey[key] = a
		}
		a.blobs++
		a.status.Size += info.Size()
		if info.ModTime().After(a.newest) {
			a.newest = info.ModTime()
		}
	}

	statuses := make([]EntryStatus, 0, len(byKey))
	for _, key := range core.SortedKeys(byKey) {
		a := byKey[key]
		a.status.Complete = a.blobs == 2
		a.status.Age = m.clock.Since(a.newest)
		statuses = append(statuses, a.status)
	}
	return statuses, nil
}

// entryKey strips a blob suffix, returning "<palette>.<frontend>".
func entryKey(name string) (string, bool) {
	for _, suffix := range []string{ItemsSuffix, DisplaySuffix} {
		if key, ok := strings.CutSuffix(name, suffix); ok && strings.Contains(key, ".") {
			return key, true
		}
	}
	return "", false
}

// Clear removes the entries of the given palettes, or every entry when
// none are given. It returns the number of files removed.
func (m *Manager) Clear(palettes ...string) (int, error) {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, f := range files {
		key, ok := entryKey(f.Name())
		if !ok || f.IsDir() {
			continue
		}
		palette, _, _ := strings.Cut(key, ".")
		if len(palettes) > 0 && !slices.Contains(palettes, palette) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, f.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove cache file: %w", err)
		}
		removed++
	}
	return removed, nil
}
