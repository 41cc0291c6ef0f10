package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/core"
)

const (
	// DefaultFileName is the packaged default config, read from the working directory.
	DefaultFileName = "pal.default.toml"
	// ProjectFileName is the project-local config, read from the working directory.
	ProjectFileName = "pal.toml"
	// UserFileName is the config file inside the per-user config directory.
	UserFileName = "config.toml"
)

var validate = validator.New()

// Loader merges the configuration sources. The zero value reads nothing but
// the compiled-in defaults; NewLoader fills in the standard locations.
type Loader struct {
	WorkDir     string
	DefaultFile string
	UserFile    string
	ProjectFile string
	Environ     []string
}

// NewLoader returns a loader for the standard file locations and the
// process environment.
func NewLoader() *Loader {
	l := &Loader{
		DefaultFile: DefaultFileName,
		ProjectFile: ProjectFileName,
		Environ:     os.Environ(),
	}
	if wd, err := os.Getwd(); err == nil {
		l.WorkDir = wd
	}
	if userFile, err := UserConfigFile(); err == nil {
		l.UserFile = userFile
	} else {
		zap.L().Debug("No user config directory", zap.Error(err))
	}
	return l
}

// Load merges, in increasing precedence: compiled-in defaults, the packaged
// default file, the user file, the project file, the explicit path, PAL_
// environment variables and overrides. Maps merge key by key and scalars
// replace. Missing files are skipped; files that exist but do not parse are
// a ConfigError.
//
// Viper decodes the typed fields. The keys handed to plugins come from a
// second, case-preserving decode of the same sources.
func (l *Loader) Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	if err := v.MergeConfigMap(Defaults()); err != nil {
		return nil, NewConfigError("", fmt.Errorf("failed to apply defaults: %w", err))
	}
	raw := newRawTree()
	dirs := map[string]map[string]string{SectionPalette: {}, SectionFrontend: {}}

	var loadedFrom string
	for _, file := range []string{l.DefaultFile, l.UserFile, l.ProjectFile, path} {
		if file == "" {
			continue
		}
		resolved := l.resolve(file)
		ok, err := mergeFile(v, raw, dirs, resolved)
		if err != nil {
			return nil, err
		}
		if ok {
			loadedFrom = resolved
		}
	}
	if path != "" {
		loadedFrom = l.resolve(path)
	}

	applyEnv(v, raw, l.Environ)
	for key, value := range overrides {
		v.Set(key, value)
		raw.set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, NewConfigError(loadedFrom, fmt.Errorf("failed to decode config: %w", err))
	}

	cfg.Path = loadedFrom
	cfg.Dir = l.WorkDir
	if loadedFrom != "" {
		cfg.Dir = filepath.Dir(loadedFrom)
	}
	cfg.attachFields(raw, dirs)

	if err := validate.Struct(cfg); err != nil {
		return nil, NewConfigError(loadedFrom, fmt.Errorf("validation failed: %w", err))
	}

	zap.L().Debug("Loaded configuration",
		zap.String("path", cfg.Path),
		zap.Int("palettes", len(cfg.Palette)),
		zap.Int("frontends", len(cfg.Frontend)))
	return cfg, nil
}

func (l *Loader) resolve(path string) string {
	path = core.ExpandHome(path)
	if !filepath.IsAbs(path) && l.WorkDir != "" {
		path = filepath.Join(l.WorkDir, path)
	}
	return filepath.Clean(path)
}

// mergeFile merges one config file into v and raw, and records it in dirs
// as the origin of the palettes and frontends it defines. It reports false
// when the file does not exist.
func mergeFile(v *viper.Viper, raw rawTree, dirs map[string]map[string]string, path string) (bool, error) {
	// #nosec G304 -- config paths are chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Debug("Config file not present", zap.String("path", path))
			return false, nil
		}
		return false, NewConfigError(path, fmt.Errorf("failed to read config file: %w", err))
	}

	v.SetConfigType(configType(path))
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return false, NewConfigError(path, err)
	}
	file, err := decodeRaw(path, data)
	if err != nil {
		return false, NewConfigError(path, err)
	}
	raw.merge(file)
	recordDirs(dirs, file, filepath.Dir(path))
	zap.L().Debug("Merged config file", zap.String("path", path))
	return true, nil
}

// recordDirs notes dir as the origin of every palette and frontend file
// defines. A later file takes an id over only when it sets base or data,
// the keys that hold relative paths.
func recordDirs(dirs map[string]map[string]string, file map[string]any, dir string) {
	for name, value := range file {
		byID, ok := dirs[strings.ToLower(name)]
		if !ok {
			continue
		}
		table, _ := value.(map[string]any)
		for id, spec := range table {
			fields, ok := spec.(map[string]any)
			if !ok {
				continue
			}
			id = strings.ToLower(id)
			if _, seen := byID[id]; !seen || hasField(fields, "base") || hasField(fields, "data") {
				byID[id] = dir
			}
		}
	}
}

func hasField(fields map[string]any, key string) bool {
	_, ok := fields[spelling(fields, key)]
	return ok
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "toml"
	}
}
