package builtin

import (
	"strings"

	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/item"
)

// ConfigBin overrides the executable of the fzf and rofi frontends.
const ConfigBin = "bin"

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			if s := core.StringValue(el); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

func stringMap(v any) map[string]string {
	out := map[string]string{}
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			out[k] = core.StringValue(val)
		}
	case map[string]string:
		for k, val := range t {
			out[k] = val
		}
	}
	return out
}

func bin(config map[string]any, fallback string) string {
	return core.FirstNonEmpty(core.StringValue(config[ConfigBin]), fallback)
}

// isIconName reports whether s looks like an XDG icon name rather than a
// glyph: only ASCII letters, digits, '-' and '_'.
func isIconName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// glyph returns the character icon of an item, if it has one.
func glyph(it item.Item) string {
	icon := core.FirstNonEmpty(it.String(item.FieldIconUTF), it.String(item.FieldIcon))
	if icon == "" || isIconName(icon) {
		return ""
	}
	return icon
}

// iconName returns the named icon of an item, if it has one.
func iconName(it item.Item) string {
	if xdg := it.String(item.FieldIconXDG); xdg != "" {
		return xdg
	}
	if icon := it.String(item.FieldIcon); isIconName(icon) {
		return icon
	}
	return ""
}

func label(it item.Item) string {
	return core.FirstNonEmpty(it.String(item.FieldName), it.String(item.FieldID))
}

// firstLine returns the first line of s without its line terminator.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r")
}

// shellQuote quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
