package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PAL_TEST_ONLY_PREFIXED", "prefixed")
	assert.Equal(t, "prefixed", GetEnv("TEST_ONLY_PREFIXED"))

	t.Setenv("TEST_BOTH", "plain")
	t.Setenv("PAL_TEST_BOTH", "prefixed")
	assert.Equal(t, "plain", GetEnv("TEST_BOTH"))

	assert.Empty(t, GetEnv("TEST_NEITHER_SET"))
}

func TestLookupEnv(t *testing.T) {
	environ := []string{"A=1", "B=two=parts", "A=3", "MALFORMED"}

	v, ok := LookupEnv(environ, "A")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	v, ok = LookupEnv(environ, "B")
	assert.True(t, ok)
	assert.Equal(t, "two=parts", v)

	_, ok = LookupEnv(environ, "MALFORMED")
	assert.False(t, ok)

	_, ok = LookupEnv(nil, "A")
	assert.False(t, ok)
}

func TestIsConfigEnvKey(t *testing.T) {
	assert.True(t, IsConfigEnvKey("GENERAL_DEFAULT_PALETTE"))
	assert.True(t, IsConfigEnvKey("PALETTE_SSH_CACHE"))
	assert.True(t, IsConfigEnvKey("FRONTEND_FZF_BIN"))
	assert.False(t, IsConfigEnvKey("GENERAL"))
	assert.False(t, IsConfigEnvKey("NAME"))
	assert.False(t, IsConfigEnvKey("GENERALIST"))
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"name":      "NAME",
		"host_name": "HOST_NAME",
		"icon-xdg":  "ICON_XDG",
		"a.b c":     "A_B_C",
		"Port2":     "PORT2",
		"x/y":       "X_Y",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, EnvKey(in))
		})
	}
}
