package core

import (
	"os"
	"strings"
)

// Environment variables that carry the invocation context to child processes.
// The leading underscore keeps them out of the PAL_ configuration namespace.
const (
	EnvConfig       = "_PAL_CONFIG"
	EnvConfigDir    = "_PAL_CONFIG_DIR"
	EnvPalette      = "_PAL_PALETTE"
	EnvFrontend     = "_PAL_FRONTEND"
	EnvPluginConfig = "_PAL_PLUGIN_CONFIG"
	// EnvChain lists the palettes being listed by the parent, comma
	// separated, so a nested pal can detect cycles through external plugins.
	EnvChain = "_PAL_CHAIN"
)

// EnvPrefix is the prefix for configuration overrides and picked item fields.
const EnvPrefix = "PAL_"

// envConfigSections are the PAL_<SECTION>_ namespaces read back as
// configuration overrides.
var envConfigSections = []string{"GENERAL_", "PALETTE_", "FRONTEND_"}

// IsConfigEnvKey reports whether key, the part of a variable after PAL_,
// would be read as a configuration override.
func IsConfigEnvKey(key string) bool {
	for _, section := range envConfigSections {
		if strings.HasPrefix(key, section) {
			return true
		}
	}
	return false
}

// GetEnv retrieves an environment variable, checking both the standard name
// and a PAL-prefixed version. Returns the first non-empty value found.
func GetEnv(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return os.Getenv(EnvPrefix + key)
}

// LookupEnv finds key in an environ slice of KEY=VALUE pairs. The last
// occurrence wins, matching how exec.Cmd treats duplicates.
func LookupEnv(environ []string, key string) (string, bool) {
	for i := len(environ) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(environ[i], "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}

// EnvKey turns an arbitrary field name into an upper-case environment
// variable suffix. Characters outside [A-Z0-9_] become underscores.
func EnvKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
