package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// rawTree mirrors the merged configuration with keys spelled as written.
// Viper folds every key to lower case, which would change the unknown keys
// handed to plugins, so palette and frontend fields are taken from here.
// Section names and ids are folded like viper folds them; field keys are
// matched case-insensitively and keep the spelling of the last writer.
type rawTree map[string]any

func newRawTree() rawTree {
	t := rawTree{}
	t.merge(Defaults())
	return t
}

// decodeRaw parses a config file without folding its keys.
func decodeRaw(path string, data []byte) (map[string]any, error) {
	out := map[string]any{}
	var err error
	switch configType(path) {
	case "yaml":
		err = yaml.Unmarshal(data, &out)
	case "json":
		err = json.Unmarshal(data, &out)
	default:
		err = toml.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return out, nil
}

// merge overlays one decoded file onto the tree.
func (t rawTree) merge(file map[string]any) {
	for name, value := range file {
		table, ok := value.(map[string]any)
		if !ok {
			continue
		}
		section := strings.ToLower(name)
		switch section {
		case SectionGeneral:
			mergeFields(t.table(section), table)
		case SectionPalette, SectionFrontend:
			specs := t.table(section)
			for id, spec := range table {
				fields, ok := spec.(map[string]any)
				if !ok {
					continue
				}
				id = strings.ToLower(id)
				dst, _ := specs[id].(map[string]any)
				if dst == nil {
					dst = map[string]any{}
					specs[id] = dst
				}
				mergeFields(dst, fields)
			}
		}
	}
}

func (t rawTree) table(section string) map[string]any {
	m, _ := t[section].(map[string]any)
	if m == nil {
		m = map[string]any{}
		t[section] = m
	}
	return m
}

// set stores value at a dotted key such as palette.ssh.cache. The section
// and id are folded; the remaining segments reuse an existing spelling.
func (t rawTree) set(key string, value any) {
	segments := strings.Split(key, ".")
	if len(segments) < 2 {
		return
	}
	section := strings.ToLower(segments[0])
	m := t.table(section)
	rest := segments[1:]
	if section == SectionPalette || section == SectionFrontend {
		if len(rest) < 2 {
			return
		}
		id := strings.ToLower(rest[0])
		next, _ := m[id].(map[string]any)
		if next == nil {
			next = map[string]any{}
			m[id] = next
		}
		m, rest = next, rest[1:]
	}
	for i, segment := range rest {
		name := spelling(m, segment)
		if i == len(rest)-1 {
			m[name] = value
			return
		}
		next, _ := m[name].(map[string]any)
		if next == nil {
			next = map[string]any{}
			m[name] = next
		}
		m = next
	}
}

// specs returns the field tables of a section by id.
func (t rawTree) specs(section string) map[string]map[string]any {
	out := map[string]map[string]any{}
	table, _ := t[section].(map[string]any)
	for id, spec := range table {
		if fields, ok := spec.(map[string]any); ok {
			out[id] = fields
		}
	}
	return out
}

// mergeFields merges src into dst. Tables merge recursively and anything
// else replaces, under the spelling src uses.
func mergeFields(dst, src map[string]any) {
	for key, value := range src {
		existing := spelling(dst, key)
		current, hasCurrent := dst[existing]
		if existing != key {
			delete(dst, existing)
		}
		srcTable, srcIsTable := value.(map[string]any)
		dstTable, dstIsTable := current.(map[string]any)
		if hasCurrent && srcIsTable && dstIsTable {
			merged := maps.Clone(dstTable)
			mergeFields(merged, srcTable)
			dst[key] = merged
			continue
		}
		dst[key] = cloneValue(value)
	}
}

// spelling returns the key of m that equals key ignoring case, or key.
func spelling(m map[string]any, key string) string {
	if _, ok := m[key]; ok {
		return key
	}
	for k := range m {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return key
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = cloneValue(el)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = cloneValue(el)
		}
		return out
	default:
		return v
	}
}

// declaredKeys returns the mapstructure keys of a spec struct.
func declaredKeys(spec any) map[string]struct{} {
	keys := map[string]struct{}{}
	typ := reflect.TypeOf(spec)
	for i := range typ.NumField() {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("mapstructure"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}

var (
	generalKeys  = declaredKeys(General{})
	paletteKeys  = declaredKeys(Palette{})
	frontendKeys = declaredKeys(Frontend{})
)

// splitFields folds the declared keys of raw to their canonical spelling
// and returns the fields plus the undeclared remainder.
func splitFields(raw map[string]any, declared map[string]struct{}) (fields, extra map[string]any) {
	fields = make(map[string]any, len(raw))
	extra = map[string]any{}
	for key, value := range raw {
		if _, ok := declared[strings.ToLower(key)]; ok {
			fields[strings.ToLower(key)] = value
			continue
		}
		fields[key] = value
		extra[key] = value
	}
	return fields, extra
}
