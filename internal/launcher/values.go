package launcher

import "strconv"

// boolValue reads a flag from effective configuration, where manifests and
// environment overrides may leave it as a string.
func boolValue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}
