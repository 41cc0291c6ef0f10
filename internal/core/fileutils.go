// Package core implements the functionality shared across all pal components.
package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// IsExecutable checks if a file mode has any executable bits set.
// It checks the executable bits for owner, group, and others (0111).
func IsExecutable(info fs.FileInfo) bool {
	permissions := info.Mode().Perm()
	return permissions&0111 != 0
}

// LogDeferredError runs f and logs its error, for use with defer.
func LogDeferredError(f func() error) {
	if err := f(); err != nil {
		zap.L().Error("Deferred error", zap.Error(err), zap.Stack("stack"))
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		zap.L().Debug("Failed to resolve home directory", zap.Error(err))
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Exists reports whether path exists. Any stat error other than
// "not exist" is treated as existing so callers do not clobber state they
// cannot inspect.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so concurrent readers see either the old or the new contents.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	// #nosec G301 -- user cache/data directories
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
