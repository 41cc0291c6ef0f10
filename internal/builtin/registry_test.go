package builtin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorcha-inc/pal/internal/invocation"
	"github.com/dorcha-inc/pal/internal/plugin"
)

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	var got *Request
	r.Register("palettes/echo", &Handler{
		Manifest: map[string]any{"icon": "e"},
		Ops: map[string]OpFunc{
			OpList: func(_ context.Context, req *Request) (string, error) {
				got = req
				return "out:" + req.InputText(), nil
			},
		},
	})

	h := &plugin.Handle{Location: "builtin/palettes/echo", Builtin: "palettes/echo", Config: map[string]any{"k": "v"}}
	input := "in"
	inv := invocation.New("/c/pal.toml", "").WithPalette("echo")

	out, err := r.Dispatch(context.Background(), inv, h, OpList, &input)
	require.NoError(t, err)
	assert.Equal(t, "out:in", out)
	require.NotNil(t, got)
	assert.Equal(t, "echo", got.Inv.Palette())
	assert.Equal(t, map[string]any{"k": "v"}, got.Config())
}

func TestRegistry_UnknownOperation(t *testing.T) {
	r := NewRegistry()
	r.Register("palettes/x", &Handler{Ops: map[string]OpFunc{}})

	_, err := r.Dispatch(context.Background(), invocation.Context{}, &plugin.Handle{Location: "builtin/palettes/x", Builtin: "palettes/x"}, "explode", nil)
	var opErr *plugin.UnknownOperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "explode", opErr.Operation)
}

func TestRegistry_UnknownBuiltin(t *testing.T) {
	_, err := NewRegistry().Dispatch(context.Background(), invocation.Context{}, &plugin.Handle{Location: "builtin/palettes/nope", Builtin: "palettes/nope"}, OpList, nil)
	var locErr *plugin.LocationError
	require.True(t, errors.As(err, &locErr))
	assert.Contains(t, locErr.Reason, "bug in pal")
}

func TestRegistry_Manifest(t *testing.T) {
	r := NewDefaultRegistry(&fakeHost{}, Options{})

	fields, ok := r.Manifest(KeyFzf)
	require.True(t, ok)
	assert.Equal(t, "fzf", fields[ConfigBin])

	_, ok = r.Manifest("frontends/dmenu")
	assert.False(t, ok)

	assert.Equal(t, []string{KeyFzf, KeyRofi, KeyStdin, KeyCombine, KeyPals}, r.Keys())
}

func TestRegistry_Capabilities(t *testing.T) {
	r := NewDefaultRegistry(&fakeHost{}, Options{})

	fzf, _ := r.Lookup(KeyFzf)
	assert.NotNil(t, fzf.Display)
	assert.Equal(t, InputReload, fzf.Input)

	rofi, _ := r.Lookup(KeyRofi)
	assert.NotNil(t, rofi.Display)
	assert.Equal(t, InputScript, rofi.Input)

	stdin, _ := r.Lookup(KeyStdin)
	assert.Nil(t, stdin.Display)
	assert.Equal(t, InputNone, stdin.Input)
}
