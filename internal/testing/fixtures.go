package testing

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dorcha-inc/pal/internal/core"
)

// SkipOnWindows skips tests that rely on /bin/sh scripts.
func SkipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == core.GOOSWindows {
		t.Skip("Skipping shell script test on Windows")
	}
}

// WriteScript writes an executable /bin/sh script named name into dir and
// returns its path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	// #nosec G301 -- test directory permissions are acceptable for temporary test files
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	// #nosec G306 -- test file permissions are acceptable for temporary test files
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

// WritePlugin creates a plugin directory holding plugin.toml with the given
// extra manifest lines and a run.sh script as its command. body is a shell
// case over the operation in $1.
func WritePlugin(t *testing.T, dir, manifest, body string) string {
	t.Helper()
	WriteScript(t, dir, "run.sh", body)
	// #nosec G306 -- test file permissions are acceptable for temporary test files
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.toml"), []byte("command = \"run.sh\"\n"+manifest), 0644))
	return dir
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}
