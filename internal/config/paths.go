package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dorcha-inc/pal/internal/core"
)

// UserConfigDir returns the per-user pal config directory, e.g. ~/.config/pal.
func UserConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, core.AppName), nil
}

// UserConfigFile returns the path of the per-user config file.
func UserConfigFile() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, UserFileName), nil
}

// UserCacheDir returns the per-user pal cache directory, e.g. ~/.cache/pal.
func UserCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(dir, core.AppName), nil
}

// UserDataDir returns the per-user pal data directory, e.g.
// ~/.local/share/pal. The standard library has no equivalent of
// os.UserCacheDir for data, so the platform conventions are spelled out.
func UserDataDir() (string, error) {
	dir, err := userDataBase()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, core.AppName), nil
}

func userDataBase() (string, error) {
	if runtime.GOOS == core.GOOSWindows {
		if dir := os.Getenv("LocalAppData"); dir != "" {
			return dir, nil
		}
		return "", fmt.Errorf("%%LocalAppData%% is not defined")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if runtime.GOOS == core.GOOSDarwin {
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	if dir := os.Getenv("XDG_DATA_HOME"); filepath.IsAbs(dir) {
		return dir, nil
	}
	return filepath.Join(home, ".local", "share"), nil
}
