package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/core"
)

// applyEnv overlays PAL_<SECTION>_<...> variables onto v. Underscores are
// ambiguous because ids and keys contain them too, so palette and frontend
// ids are matched greedily against the ids already in the merged tree.
// Variables outside the general, palette and frontend sections are ignored;
// this keeps item fields exported as PAL_<KEY> from leaking into a nested
// pal's configuration.
func applyEnv(v *viper.Viper, raw rawTree, environ []string) {
	settings := v.AllSettings()
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, core.EnvPrefix) {
			continue
		}
		key, ok := envKeyPath(settings, strings.TrimPrefix(name, core.EnvPrefix))
		if !ok {
			continue
		}
		zap.L().Debug("Config override from environment", zap.String("variable", name), zap.String("key", key))
		coerced := coerce(v.Get(key), value)
		v.Set(key, coerced)
		raw.set(key, coerced)
	}
}

// envKeyPath maps the part of a variable after PAL_ to a dotted config key.
func envKeyPath(settings map[string]any, name string) (string, bool) {
	segments := strings.Split(strings.ToLower(name), "_")
	if len(segments) < 2 {
		return "", false
	}
	section, rest := segments[0], segments[1:]

	switch section {
	case SectionGeneral:
		return section + "." + strings.Join(rest, "_"), true
	case SectionPalette, SectionFrontend:
		if len(rest) < 2 {
			return "", false
		}
		known, _ := settings[section].(map[string]any)
		split := 1
		for i := len(rest) - 1; i >= 1; i-- {
			if _, ok := known[strings.Join(rest[:i], "_")]; ok {
				split = i
				break
			}
		}
		return section + "." + strings.Join(rest[:split], "_") + "." + strings.Join(rest[split:], "_"), true
	default:
		return "", false
	}
}

// coerce parses an environment string into the type of the value it
// replaces, so plugins see the same JSON types either way.
func coerce(current any, raw string) any {
	switch current.(type) {
	case bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case int, int64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case float64:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case []any, []string:
		var out []any
		for part := range strings.SplitSeq(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return raw
}
