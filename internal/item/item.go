// Package item implements the newline-delimited JSON item stream that
// palettes produce and frontends consume.
package item

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/core"
)

// Conventional item fields.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldIcon     = "icon"
	FieldIconXDG  = "icon_xdg"
	FieldIconUTF  = "icon_utf"
	FieldDesc     = "desc"
	FieldKeywords = "keywords"
	FieldPrompts  = "prompts"

	// FieldSource is reserved for combine: it names the palette an item
	// came from.
	FieldSource = "_source"
)

// IconFields are the icon variants a frontend may choose from.
var IconFields = []string{FieldIcon, FieldIconXDG, FieldIconUTF}

// Item is one JSON object of an item stream.
type Item map[string]any

// Parse decodes one line of an item stream and normalizes it. Numbers are
// kept as json.Number so they re-encode exactly.
func Parse(line string) (Item, error) {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()

	var it Item
	if err := dec.Decode(&it); err != nil {
		return nil, fmt.Errorf("invalid item: %w", err)
	}
	if it == nil {
		return nil, fmt.Errorf("invalid item: not a JSON object")
	}
	it.Normalize()
	return it, nil
}

// ParseStream decodes an item stream. Blank lines are skipped, as are lines
// that are not JSON objects.
func ParseStream(text string) []Item {
	var items []Item
	for _, line := range core.NonEmptyLines(text) {
		it, err := Parse(line)
		if err != nil {
			zap.L().Warn("Skipping malformed item", zap.String("line", line), zap.Error(err))
			continue
		}
		items = append(items, it)
	}
	return items
}

// Normalize fills in id from name when the item has none.
func (it Item) Normalize() {
	if _, ok := it[FieldID]; ok {
		return
	}
	if name, ok := it[FieldName]; ok {
		it[FieldID] = name
	}
}

// Encode renders the item as a single line of JSON.
func (it Item) Encode() (string, error) {
	data, err := core.MarshalJSON(map[string]any(it))
	if err != nil {
		return "", fmt.Errorf("failed to encode item: %w", err)
	}
	return string(data), nil
}

// EncodeStream renders items as a newline-delimited stream with a trailing
// newline. Items that cannot be encoded are dropped.
func EncodeStream(items []Item) string {
	var b strings.Builder
	for _, it := range items {
		line, err := it.Encode()
		if err != nil {
			zap.L().Warn("Dropping unencodable item", zap.Error(err))
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// String returns a field as text. Numbers and booleans are formatted;
// anything else, including a missing field, yields "".
func (it Item) String(key string) string {
	s, _ := scalar(it[key])
	return s
}

// Strings returns the string elements of an array field such as keywords.
func (it Item) Strings(key string) []string {
	arr, ok := it[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Source returns the palette a combined item came from.
func (it Item) Source() string {
	return it.String(FieldSource)
}

// Clone returns a shallow copy.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// Env exports every scalar field as PAL_<KEY>=value, in key order. Arrays,
// objects and nulls are not exported, nor are fields that a nested pal
// would read back as configuration, such as general_*.
func (it Item) Env() []string {
	keys := core.SortedKeys(it)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		v, ok := scalar(it[k])
		if !ok {
			continue
		}
		key := core.EnvKey(k)
		if core.IsConfigEnvKey(key) {
			zap.L().Debug("Not exporting item field", zap.String("field", k))
			continue
		}
		env = append(env, core.EnvPrefix+key+"="+v)
	}
	return env
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case float64, int, int64:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}
