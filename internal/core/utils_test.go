package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinMapKeys(t *testing.T) {
	assert.Equal(t, "fzf, rofi, stdin", JoinMapKeys(map[string]struct{}{"stdin": {}, "fzf": {}, "rofi": {}}))
	assert.Equal(t, "", JoinMapKeys(map[string]struct{}{}))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	assert.Empty(t, SortedKeys(map[string]int(nil)))
}

func TestMarshalJSON(t *testing.T) {
	data, err := MarshalJSON(map[string]any{"b": 1, "a": "<&>"})
	assert.NoError(t, err)
	assert.Equal(t, `{"a":"<&>","b":1}`, string(data))

	data, err = MarshalJSON("x")
	assert.NoError(t, err)
	assert.Equal(t, `"x"`, string(data))

	_, err = MarshalJSON(func() {})
	assert.Error(t, err)
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "", StringValue(nil))
	assert.Equal(t, "x", StringValue("x"))
	assert.Equal(t, "40", StringValue(int64(40)))
	assert.Equal(t, "true", StringValue(true))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
	assert.Equal(t, "", FirstNonEmpty())
}

func TestNonEmptyLines(t *testing.T) {
	assert.Equal(t, []string{"one", "two", "  three"}, NonEmptyLines("one\n\n  \r\ntwo\r\n  three"))
	assert.Nil(t, NonEmptyLines(""))
	assert.Nil(t, NonEmptyLines("\n\n"))
}
