// Package config loads the pal configuration: general settings plus the
// palette and frontend tables, merged from compiled-in defaults, config
// files, PAL_ environment variables and command line overrides.
package config

import (
	"fmt"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dorcha-inc/pal/internal/core"
)

const (
	DefaultPaletteID  = "combine"
	DefaultFrontendID = "fzf"
)

// Section names of the configuration tree.
const (
	SectionGeneral  = "general"
	SectionPalette  = "palette"
	SectionFrontend = "frontend"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

func ValidLogLevels() map[LogLevel]struct{} {
	return map[LogLevel]struct{}{
		LogLevelDebug: {},
		LogLevelInfo:  {},
		LogLevelWarn:  {},
		LogLevelError: {},
		LogLevelFatal: {},
	}
}

// Config is the merged configuration. It is built once per process and not
// modified afterwards.
type Config struct {
	General  General              `mapstructure:"general" yaml:"general"`
	Palette  map[string]*Palette  `mapstructure:"palette" yaml:"palette" validate:"dive"`
	Frontend map[string]*Frontend `mapstructure:"frontend" yaml:"frontend" validate:"dive"`

	// Path is the highest precedence config file that was read, or the
	// --config path. Dir is where relative plugin paths are resolved.
	Path string `mapstructure:"-" yaml:"-"`
	Dir  string `mapstructure:"-" yaml:"-"`
}

type General struct {
	DefaultPalette  string         `mapstructure:"default_palette" yaml:"default_palette" validate:"required"`
	DefaultFrontend string         `mapstructure:"default_frontend" yaml:"default_frontend" validate:"required"`
	LogLevel        string         `mapstructure:"log_level" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error fatal"`
	Extra           map[string]any `mapstructure:",remain" yaml:",inline"`
}

// Palette is a palette spec. Unknown keys land in Extra and are handed to
// the palette plugin untouched.
type Palette struct {
	Base          string            `mapstructure:"base" yaml:"base,omitempty"`
	Cache         bool              `mapstructure:"cache" yaml:"cache,omitempty"`
	AutoList      bool              `mapstructure:"auto_list" yaml:"auto_list,omitempty"`
	AutoPick      bool              `mapstructure:"auto_pick" yaml:"auto_pick,omitempty"`
	Data          string            `mapstructure:"data" yaml:"data,omitempty"`
	Include       []string          `mapstructure:"include" yaml:"include,omitempty"`
	Icon          string            `mapstructure:"icon" yaml:"icon,omitempty"`
	IconXDG       string            `mapstructure:"icon_xdg" yaml:"icon_xdg,omitempty"`
	IconUTF       string            `mapstructure:"icon_utf" yaml:"icon_utf,omitempty"`
	Icons         map[string]string `mapstructure:"icons" yaml:"icons,omitempty"`
	DefaultAction string            `mapstructure:"default_action" yaml:"default_action,omitempty"`
	ActionKey     string            `mapstructure:"action_key" yaml:"action_key,omitempty"`
	Input         bool              `mapstructure:"input" yaml:"input,omitempty"`
	InputPrompt   string            `mapstructure:"input_prompt" yaml:"input_prompt,omitempty"`
	Extra         map[string]any    `mapstructure:",remain" yaml:",inline"`

	// Dir is the directory of the config file that defined the palette's
	// base or data, against which relative paths resolve.
	Dir string `mapstructure:"-" yaml:"-"`

	fields map[string]any
}

// Fields returns the keys that were actually set for this palette, in the
// shape and spelling they had in the config files. Keys left at their zero
// value are absent, so they never override plugin manifest defaults.
func (p *Palette) Fields() map[string]any {
	return maps.Clone(p.fields)
}

// Frontend is a frontend spec.
type Frontend struct {
	Base  string         `mapstructure:"base" yaml:"base,omitempty"`
	Extra map[string]any `mapstructure:",remain" yaml:",inline"`

	// Dir is where a relative base resolves, as for Palette.
	Dir string `mapstructure:"-" yaml:"-"`

	fields map[string]any
}

// Fields returns the keys that were set for this frontend.
func (f *Frontend) Fields() map[string]any {
	return maps.Clone(f.fields)
}

// Defaults returns the compiled-in configuration tree, the lowest
// precedence layer.
func Defaults() map[string]any {
	return map[string]any{
		SectionGeneral: map[string]any{
			"default_palette":  DefaultPaletteID,
			"default_frontend": DefaultFrontendID,
		},
		SectionPalette: map[string]any{
			"combine": map[string]any{"base": "builtin/palettes/combine"},
			"pals":    map[string]any{"base": "builtin/palettes/pals"},
		},
		SectionFrontend: map[string]any{
			"fzf":   map[string]any{"base": "builtin/frontends/fzf"},
			"rofi":  map[string]any{"base": "builtin/frontends/rofi"},
			"stdin": map[string]any{"base": "builtin/frontends/stdin"},
		},
	}
}

// NormalizeID folds a palette or frontend id. Ids are case-insensitive
// because the config keys they come from are.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// PaletteSpec looks up a palette by id.
func (c *Config) PaletteSpec(id string) (*Palette, bool) {
	p, ok := c.Palette[NormalizeID(id)]
	return p, ok && p != nil
}

// FrontendSpec looks up a frontend by id.
func (c *Config) FrontendSpec(id string) (*Frontend, bool) {
	f, ok := c.Frontend[NormalizeID(id)]
	return f, ok && f != nil
}

// PaletteIDs returns all palette ids in lexical order.
func (c *Config) PaletteIDs() []string {
	return core.SortedKeys(c.Palette)
}

// FrontendIDs returns all frontend ids in lexical order.
func (c *Config) FrontendIDs() []string {
	return core.SortedKeys(c.Frontend)
}

// YAML renders the merged configuration for show-config.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}

// attachFields records the explicitly set keys of every palette and
// frontend from the case-preserving tree, and replaces the folded Extra
// maps viper decoded with the keys as written. dirs holds the defining
// directory by section and id; anything else resolves against c.Dir.
func (c *Config) attachFields(raw rawTree, dirs map[string]map[string]string) {
	_, c.General.Extra = splitFields(raw.table(SectionGeneral), generalKeys)
	c.General.Extra = nilIfEmpty(c.General.Extra)

	palettes := raw.specs(SectionPalette)
	for id, p := range c.Palette {
		if p == nil {
			continue
		}
		p.fields, p.Extra = splitFields(palettes[id], paletteKeys)
		p.Extra = nilIfEmpty(p.Extra)
		p.Dir = core.FirstNonEmpty(dirs[SectionPalette][id], c.Dir)
	}
	frontends := raw.specs(SectionFrontend)
	for id, f := range c.Frontend {
		if f == nil {
			continue
		}
		f.fields, f.Extra = splitFields(frontends[id], frontendKeys)
		f.Extra = nilIfEmpty(f.Extra)
		f.Dir = core.FirstNonEmpty(dirs[SectionFrontend][id], c.Dir)
	}
}

func nilIfEmpty(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}
