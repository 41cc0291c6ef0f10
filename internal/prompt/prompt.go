// Package prompt resolves the prompt chain an item may declare before it is
// picked: every prompt is asked in order, then the answers are substituted
// into the item.
package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/item"
)

// ErrCancelled is returned when the user dismisses a prompt or a selection.
var ErrCancelled = core.ErrCancelled

type Type string

const (
	TypeText   Type = "text"
	TypeChoice Type = "choice"
)

// Spec is one prompt of a chain. A missing key answers to "" and a
// repeated key keeps the last answer.
type Spec struct {
	Key     string `json:"key"`
	Message string `json:"message,omitempty"`
	Type    Type   `json:"type,omitempty" validate:"omitempty,oneof=text choice"`
	Options []any  `json:"options,omitempty" validate:"required_if=Type choice"`
}

// Asker asks the user. An empty answer means the user cancelled.
type Asker interface {
	Text(ctx context.Context, message string) (string, error)
	Choose(ctx context.Context, message string, options []item.Item) (string, error)
}

var validate = validator.New()

// ParseSpecs decodes a JSON prompt spec or array of specs.
func ParseSpecs(raw string) ([]Spec, error) {
	raw = strings.TrimSpace(raw)
	var specs []Spec
	var err error
	if strings.HasPrefix(raw, "[") {
		err = json.Unmarshal([]byte(raw), &specs)
	} else {
		var s Spec
		err = json.Unmarshal([]byte(raw), &s)
		specs = []Spec{s}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid prompt spec: %w", err)
	}
	if err := validateSpecs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func validateSpecs(specs []Spec) error {
	for i := range specs {
		if err := validate.Struct(&specs[i]); err != nil {
			return fmt.Errorf("invalid prompt %d: %w", i, err)
		}
	}
	return nil
}

// Keys returns the distinct prompt keys in declaration order.
func Keys(specs []Spec) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	keys := make([]string, 0, len(specs))
	for _, spec := range specs {
		if seen.Add(spec.Key) {
			keys = append(keys, spec.Key)
		}
	}
	return keys
}

// FormatAnswers renders the answers of a chain for output: the bare answer
// of a single prompt, else a JSON object with keys in declaration order.
func FormatAnswers(specs []Spec, answers map[string]string) string {
	if len(specs) == 1 {
		return answers[specs[0].Key]
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range Keys(specs) {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := core.MarshalJSON(key)
		v, _ := core.MarshalJSON(answers[key])
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.String()
}

// Options converts choice options to items. A string option becomes
// {"id": s, "name": s}; an object option is used as an item.
func Options(options []any) []item.Item {
	items := make([]item.Item, 0, len(options))
	for _, opt := range options {
		switch o := opt.(type) {
		case string:
			items = append(items, item.Item{item.FieldID: o, item.FieldName: o})
		case map[string]any:
			it := item.Item(o).Clone()
			it.Normalize()
			items = append(items, it)
		default:
			s := fmt.Sprint(o)
			items = append(items, item.Item{item.FieldID: s, item.FieldName: s})
		}
	}
	return items
}

// Run asks every prompt in order and returns the answers by key. The first
// empty answer cancels the chain and no answers are returned.
func Run(ctx context.Context, asker Asker, specs []Spec) (map[string]string, error) {
	answers := make(map[string]string, len(specs))
	for _, spec := range specs {
		var (
			answer string
			err    error
		)
		message := spec.Message
		if message == "" {
			message = spec.Key
		}
		switch spec.Type {
		case TypeChoice:
			answer, err = asker.Choose(ctx, message, Options(spec.Options))
		default:
			answer, err = asker.Text(ctx, message)
		}
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				return nil, ErrCancelled
			}
			return nil, fmt.Errorf("prompt %q failed: %w", spec.Key, err)
		}
		if answer == "" {
			zap.L().Debug("Prompt chain cancelled", zap.String("key", spec.Key))
			return nil, ErrCancelled
		}
		answers[spec.Key] = answer
	}
	return answers, nil
}

// Specs extracts the prompt chain of an item.
func Specs(it item.Item) ([]Spec, error) {
	raw, ok := it[item.FieldPrompts]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid prompts: %w", err)
	}
	var specs []Spec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("invalid prompts: %w", err)
	}
	if err := validateSpecs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// Resolve runs the prompt chain of it and returns the item with the
// answers substituted. An item without prompts is returned as is. On
// cancellation it returns ErrCancelled and it is left untouched.
func Resolve(ctx context.Context, asker Asker, it item.Item) (item.Item, error) {
	specs, err := Specs(it)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return it, nil
	}
	answers, err := Run(ctx, asker, specs)
	if err != nil {
		return nil, err
	}
	return Substitute(it, answers)
}

// Substitute replaces every {{key}} in the serialized item with its answer,
// drops the prompts field and adds each answer whose key is not already a
// top-level field. Replacement is textual, so answers reach nested strings.
func Substitute(it item.Item, answers map[string]string) (item.Item, error) {
	stripped := it.Clone()
	delete(stripped, item.FieldPrompts)

	encoded, err := stripped.Encode()
	if err != nil {
		return nil, err
	}
	pairs := make([]string, 0, 2*len(answers))
	for key, answer := range answers {
		pairs = append(pairs, "{{"+key+"}}", escape(answer))
	}
	replaced := strings.NewReplacer(pairs...).Replace(encoded)

	dec := json.NewDecoder(bytes.NewReader([]byte(replaced)))
	dec.UseNumber()
	var out item.Item
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("item is not valid JSON after substitution: %w", err)
	}
	for key, answer := range answers {
		if _, exists := out[key]; !exists {
			out[key] = answer
		}
	}
	return out, nil
}

// escape makes s safe inside a JSON string literal.
func escape(s string) string {
	data, _ := core.MarshalJSON(s)
	return string(data[1 : len(data)-1])
}
