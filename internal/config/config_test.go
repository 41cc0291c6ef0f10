package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorcha-inc/pal/internal/core"
)

// newTestLoader returns a loader rooted in a fresh temporary directory with
// no environment.
func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	return &Loader{
		WorkDir:     t.TempDir(),
		DefaultFile: DefaultFileName,
		UserFile:    filepath.Join(t.TempDir(), UserFileName),
		ProjectFile: ProjectFileName,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	// #nosec G301 -- test directory permissions are acceptable for temporary test files
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	// #nosec G306 -- test file permissions are acceptable for temporary test files
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	loader := newTestLoader(t)

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPaletteID, cfg.General.DefaultPalette)
	assert.Equal(t, DefaultFrontendID, cfg.General.DefaultFrontend)
	assert.Equal(t, []string{"combine", "pals"}, cfg.PaletteIDs())
	assert.Equal(t, []string{"fzf", "rofi", "stdin"}, cfg.FrontendIDs())

	fzf, ok := cfg.FrontendSpec("fzf")
	require.True(t, ok)
	assert.Equal(t, "builtin/frontends/fzf", fzf.Base)

	assert.Empty(t, cfg.Path)
	assert.Equal(t, loader.WorkDir, cfg.Dir)
}

func TestLoad_ProjectOverridesPackagedDefault(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, DefaultFileName), `
[general]
default_frontend = "fzf"
default_palette = "apps"
`)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[general]
default_frontend = "rofi"
`)

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "rofi", cfg.General.DefaultFrontend)
	assert.Equal(t, "apps", cfg.General.DefaultPalette)
	assert.Equal(t, filepath.Join(loader.WorkDir, ProjectFileName), cfg.Path)
	assert.Equal(t, loader.WorkDir, cfg.Dir)
}

func TestLoad_Precedence(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, DefaultFileName), `
[general]
default_palette = "from-default"
default_frontend = "from-default"
log_level = "info"
`)
	writeFile(t, loader.UserFile, `
[general]
default_palette = "from-user"
default_frontend = "from-user"
`)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[general]
default_palette = "from-project"
`)
	explicit := filepath.Join(t.TempDir(), "explicit.toml")
	writeFile(t, explicit, `
[general]
log_level = "error"
`)

	cfg, err := loader.Load(explicit, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-project", cfg.General.DefaultPalette)
	assert.Equal(t, "from-user", cfg.General.DefaultFrontend)
	assert.Equal(t, "error", cfg.General.LogLevel)
	assert.Equal(t, explicit, cfg.Path)
	assert.Equal(t, filepath.Dir(explicit), cfg.Dir)

	loader.Environ = []string{"PAL_GENERAL_LOG_LEVEL=warn"}
	cfg, err = loader.Load(explicit, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.General.LogLevel)

	cfg, err = loader.Load(explicit, map[string]any{"general.log_level": "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.General.LogLevel)
}

func TestLoad_MapsMergeKeyByKey(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, DefaultFileName), `
[palette.ssh]
base = "github:zcag/pal/plugins/palettes/ssh"
cache = true
`)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[palette.ssh]
icon = "network-server"

[palette.notes]
base = "./plugins/notes"
`)

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)

	ssh, ok := cfg.PaletteSpec("ssh")
	require.True(t, ok)
	assert.Equal(t, "github:zcag/pal/plugins/palettes/ssh", ssh.Base)
	assert.True(t, ssh.Cache)
	assert.Equal(t, "network-server", ssh.Icon)

	_, ok = cfg.PaletteSpec("notes")
	assert.True(t, ok)
	// compiled-in palettes survive
	_, ok = cfg.PaletteSpec("combine")
	assert.True(t, ok)
}

func TestLoad_ExtraFieldsPreserved(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[palette.psg]
base = "./psg"
auto_pick = true
default_action = "kill"
action_key = "pid"
signal = "TERM"

[palette.psg.columns]
width = 40

[frontend.fzf]
height = "40%"
`)

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)

	psg, ok := cfg.PaletteSpec("psg")
	require.True(t, ok)
	assert.Equal(t, "TERM", psg.Extra["signal"])
	assert.Contains(t, psg.Extra, "columns")
	assert.True(t, psg.AutoPick)
	assert.Equal(t, "kill", psg.DefaultAction)

	fields := psg.Fields()
	assert.Equal(t, "./psg", fields["base"])
	assert.Equal(t, true, fields["auto_pick"])
	assert.Equal(t, "TERM", fields["signal"])
	// unset keys stay absent
	assert.NotContains(t, fields, "cache")
	assert.NotContains(t, fields, "icon")

	fzf, ok := cfg.FrontendSpec("fzf")
	require.True(t, ok)
	assert.Equal(t, "40%", fzf.Extra["height"])
	assert.Equal(t, "builtin/frontends/fzf", fzf.Fields()["base"])
}

func TestLoad_PreservesKeyCase(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, DefaultFileName), `
[palette.bm]
browserpath = "/usr/bin/lynx"
`)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[palette.bm]
base = "./bm"
browserPath = "/usr/bin/firefox"
Cache = true

[palette.bm.Columns]
Width = 40

[frontend.fzf]
extraArgs = ["--ansi"]
`)
	loader.Environ = []string{"PAL_FRONTEND_FZF_EXTRAARGS=--ansi,--cycle"}

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)

	bm, ok := cfg.PaletteSpec("bm")
	require.True(t, ok)
	assert.True(t, bm.Cache)

	fields := bm.Fields()
	assert.Equal(t, "/usr/bin/firefox", fields["browserPath"])
	assert.NotContains(t, fields, "browserpath")
	assert.Equal(t, map[string]any{"Width": int64(40)}, fields["Columns"])
	assert.Equal(t, true, fields["cache"], "declared keys use their canonical spelling")
	assert.NotContains(t, fields, "Cache")

	assert.Equal(t, "/usr/bin/firefox", bm.Extra["browserPath"])
	assert.Contains(t, bm.Extra, "Columns")
	assert.NotContains(t, bm.Extra, "Cache")
	assert.NotContains(t, bm.Extra, "base")

	fzf, ok := cfg.FrontendSpec("fzf")
	require.True(t, ok)
	assert.Equal(t, []any{"--ansi", "--cycle"}, fzf.Fields()["extraArgs"])
	assert.NotContains(t, fzf.Fields(), "extraargs")
}

func TestLoad_EnvKeepsConfiguredSpelling(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[palette.bm]
base = "./bm"
browserPath = "/usr/bin/firefox"
`)
	loader.Environ = []string{"PAL_PALETTE_BM_BROWSERPATH=/usr/bin/chromium"}

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)
	bm, ok := cfg.PaletteSpec("bm")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/chromium", bm.Fields()["browserPath"])
	assert.NotContains(t, bm.Fields(), "browserpath")
}

func TestLoad_PaletteDirFollowsDefiningFile(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, loader.UserFile, `
[palette.notes]
base = "plugins/notes"
`)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[palette.notes]
cache = true

[palette.local]
base = "./local"
`)
	explicit := filepath.Join(t.TempDir(), "explicit.toml")
	writeFile(t, explicit, `
[palette.local]
icon = "x"

[frontend.ext]
base = "./ext"
`)

	cfg, err := loader.Load(explicit, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(explicit), cfg.Dir)

	notes, ok := cfg.PaletteSpec("notes")
	require.True(t, ok)
	assert.Equal(t, filepath.Dir(loader.UserFile), notes.Dir, "a later file without base does not move the palette")

	local, ok := cfg.PaletteSpec("local")
	require.True(t, ok)
	assert.Equal(t, loader.WorkDir, local.Dir)

	ext, ok := cfg.FrontendSpec("ext")
	require.True(t, ok)
	assert.Equal(t, filepath.Dir(explicit), ext.Dir)

	combine, ok := cfg.PaletteSpec("combine")
	require.True(t, ok)
	assert.Equal(t, cfg.Dir, combine.Dir, "compiled-in palettes resolve against the config directory")
}

func TestLoad_FieldsAreCopies(t *testing.T) {
	cfg, err := newTestLoader(t).Load("", nil)
	require.NoError(t, err)

	combine, ok := cfg.PaletteSpec("combine")
	require.True(t, ok)
	fields := combine.Fields()
	fields["base"] = "changed"
	assert.Equal(t, "builtin/palettes/combine", combine.Fields()["base"])
}

func TestLoad_CaseInsensitiveIDs(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[palette.MyApps]
base = "./apps"
`)

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)

	spec, ok := cfg.PaletteSpec("MYAPPS")
	require.True(t, ok)
	assert.Equal(t, "./apps", spec.Base)
	_, ok = cfg.PaletteSpec("myapps")
	assert.True(t, ok)
}

func TestLoad_YAMLFile(t *testing.T) {
	loader := newTestLoader(t)
	explicit := filepath.Join(t.TempDir(), "pal.yaml")
	writeFile(t, explicit, `
general:
  default_palette: bookmarks
palette:
  bookmarks:
    base: ./bookmarks
    include: [a, b]
`)

	cfg, err := loader.Load(explicit, nil)
	require.NoError(t, err)
	assert.Equal(t, "bookmarks", cfg.General.DefaultPalette)
	spec, ok := cfg.PaletteSpec("bookmarks")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, spec.Include)
	assert.Equal(t, []any{"a", "b"}, spec.Fields()["include"])
}

func TestLoad_MissingExplicitFileIsSkipped(t *testing.T) {
	loader := newTestLoader(t)
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, err := loader.Load(missing, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPaletteID, cfg.General.DefaultPalette)
	assert.Equal(t, missing, cfg.Path)
}

func TestLoad_InvalidFile(t *testing.T) {
	loader := newTestLoader(t)
	projectPath := filepath.Join(loader.WorkDir, ProjectFileName)
	writeFile(t, projectPath, "[general\ndefault_palette = ")

	_, err := loader.Load("", nil)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, projectPath, cfgErr.Path)
	assert.Contains(t, err.Error(), "config error in "+projectPath)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[general]
log_level = "chatty"
`)

	_, err := loader.Load("", nil)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EmptyDefaultPaletteRejected(t *testing.T) {
	loader := newTestLoader(t)
	loader.Environ = []string{"PAL_GENERAL_DEFAULT_PALETTE="}

	_, err := loader.Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DefaultPalette")
}

func TestConfigError(t *testing.T) {
	inner := errors.New("boom")
	err := NewConfigError("", inner)
	assert.Equal(t, "config error: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	err = NewConfigError("/x.toml", inner)
	assert.Equal(t, "config error in /x.toml: boom", err.Error())
}

func TestYAML(t *testing.T) {
	loader := newTestLoader(t)
	writeFile(t, filepath.Join(loader.WorkDir, ProjectFileName), `
[palette.ssh]
base = "./ssh"
user = "root"
`)
	cfg, err := loader.Load("", nil)
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "default_palette: combine")
	assert.Contains(t, text, "base: ./ssh")
	assert.Contains(t, text, "user: root")
	assert.NotContains(t, text, "fields")
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "ssh", NormalizeID(" SSH "))
	assert.Equal(t, "", NormalizeID(""))
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pal", UserFileName)

	require.NoError(t, WriteExample(path, false))
	assert.FileExists(t, path)

	err := WriteExample(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, WriteExample(path, true))

	// the example must itself be a loadable config
	cfg, err := newTestLoader(t).Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "combine", cfg.General.DefaultPalette)
	combine, ok := cfg.PaletteSpec("combine")
	require.True(t, ok)
	assert.Equal(t, []string{"pals", "bookmarks"}, combine.Include)
	assert.Equal(t, "view-list", combine.Icons["pals"])
	bookmarks, ok := cfg.PaletteSpec("bookmarks")
	require.True(t, ok)
	assert.True(t, bookmarks.Cache)
}

func TestUserDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	if runtime.GOOS == core.GOOSLinux {
		dataDir, err := UserDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/pal", dataDir)
	}

	cacheDir, err := UserCacheDir()
	require.NoError(t, err)
	assert.Equal(t, "pal", filepath.Base(cacheDir))

	configFile, err := UserConfigFile()
	require.NoError(t, err)
	assert.Equal(t, UserFileName, filepath.Base(configFile))
	assert.Equal(t, "pal", filepath.Base(filepath.Dir(configFile)))
}
