package plugin

// Overlay merges flat key-value layers. Later layers win, but a nil value
// never overrides: null means absent. Nested maps are replaced, not merged.
// The inputs are not modified.
func Overlay(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, layer := range layers {
		for k, v := range layer {
			if v == nil {
				continue
			}
			out[k] = v
		}
	}
	return out
}
