package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlay_CallerWins(t *testing.T) {
	manifest := map[string]any{"icon": "a", "command": []any{"run.sh"}}
	caller := map[string]any{"icon": "b"}

	got := Overlay(manifest, caller)
	assert.Equal(t, "b", got["icon"])
	assert.Equal(t, []any{"run.sh"}, got["command"])
}

func TestOverlay_NullMeansAbsent(t *testing.T) {
	manifest := map[string]any{"icon": "a"}
	caller := map[string]any{"icon": nil, "extra": "x"}

	got := Overlay(manifest, caller)
	assert.Equal(t, "a", got["icon"])
	assert.Equal(t, "x", got["extra"])
}

func TestOverlay_FalseAndEmptyOverride(t *testing.T) {
	got := Overlay(map[string]any{"auto_list": true, "icon": "a"}, map[string]any{"auto_list": false, "icon": ""})
	assert.Equal(t, false, got["auto_list"])
	assert.Equal(t, "", got["icon"])
}

func TestOverlay_DoesNotMutateInputs(t *testing.T) {
	manifest := map[string]any{"icon": "a"}
	caller := map[string]any{"icon": "b"}
	_ = Overlay(manifest, caller)
	assert.Equal(t, map[string]any{"icon": "a"}, manifest)
	assert.Equal(t, map[string]any{"icon": "b"}, caller)
}

func TestOverlay_Layers(t *testing.T) {
	got := Overlay(nil, map[string]any{"a": 1, "b": 1}, map[string]any{"b": 2, "c": nil}, map[string]any{"c": 3})
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, got)
	assert.Empty(t, Overlay())
}
