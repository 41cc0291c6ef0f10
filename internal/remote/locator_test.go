package remote

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		raw  string
		want Locator
	}{
		{
			raw:  "github:zcag/pal/plugins/palettes/ssh",
			want: Locator{Source: "github", Host: "github.com", User: "zcag", Repo: "pal", Path: "plugins/palettes/ssh", Ref: "main"},
		},
		{
			raw:  "github:zcag/pal/plugins/actions/copy@v1.2.0",
			want: Locator{Source: "github", Host: "github.com", User: "zcag", Repo: "pal", Path: "plugins/actions/copy", Ref: "v1.2.0"},
		},
		{
			raw:  "codeberg:me/tools/x/@dev",
			want: Locator{Source: "codeberg", Host: "codeberg.org", User: "me", Repo: "tools", Path: "x", Ref: "dev"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocator(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLocator_Errors(t *testing.T) {
	for _, raw := range []string{
		"zcag/pal/plugins",
		"sourceforge:a/b/c",
		"github:a/b",
		"github:a/b/",
		"github:a//c",
		"github:a/b/c@",
		"github:a/b/c@feature/x",
		"github:a/b/../../etc",
		"github:../b/c",
		"github:a/b/c@..",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseLocator(raw)
			var locErr *LocatorError
			require.True(t, errors.As(err, &locErr), "got %v", err)
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("github:a/b/c"))
	assert.True(t, IsRemote("gitlab:a/b/c"))
	assert.False(t, IsRemote("builtin/palettes/combine"))
	assert.False(t, IsRemote("./plugins/x"))
	assert.False(t, IsRemote("C:/plugins/x"))
}

func TestLocatorPaths(t *testing.T) {
	loc, err := ParseLocator("github:zcag/pal/plugins/palettes/ssh@v1")
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/zcag/pal.git", loc.CloneURL())
	assert.Equal(t, filepath.Join("/data", "github.com", "zcag", "pal", "v1"), loc.RepoDir("/data"))
	assert.Equal(t, filepath.Join("/data", "github.com", "zcag", "pal", "v1", "plugins", "palettes", "ssh"), loc.PluginDir("/data"))
	assert.Equal(t, "github:zcag/pal/plugins/palettes/ssh@v1", loc.String())
}

func TestLocatorMappingIsInjective(t *testing.T) {
	raws := []string{
		"github:a/b/c",
		"github:a/b/c@main",
		"github:a/b/c@dev",
		"github:a/b/d",
		"github:a/bc/d",
		"gitlab:a/b/c",
	}
	seen := map[string]string{}
	for _, raw := range raws {
		loc, err := ParseLocator(raw)
		require.NoError(t, err)
		dir := loc.PluginDir("/base")
		if prev, ok := seen[dir]; ok {
			// only the explicit and implicit default ref may share a directory
			assert.Equal(t, loc.String(), mustCanonical(t, prev), "%s aliases %s", raw, prev)
			continue
		}
		seen[dir] = raw
	}
}

func mustCanonical(t *testing.T, raw string) string {
	t.Helper()
	loc, err := ParseLocator(raw)
	require.NoError(t, err)
	return loc.String()
}
