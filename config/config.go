// Package config provides configuration types, defaults, and persistence for
// Loom. Configuration lives in ~/.config/loom/config.yaml; a missing file
// means defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/loomtext/loom/textlayout"
)

// Config holds all configuration options for Loom.
type Config struct {
	Editor EditorConfig `mapstructure:"editor"`
	Theme  string       `mapstructure:"theme"`
	Web    WebConfig    `mapstructure:"web"`
}

// EditorConfig holds text editing and layout options.
type EditorConfig struct {
	TabWidth    int  `mapstructure:"tab_width"`
	WordWrap    bool `mapstructure:"word_wrap"`
	WrapIndent  int  `mapstructure:"wrap_indent"` // max continuation indent, in cells
	LineNumbers bool `mapstructure:"line_numbers"`
}

// WebConfig holds the web preview server options.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Editor: EditorConfig{
			TabWidth:    4,
			WordWrap:    true,
			WrapIndent:  8,
			LineNumbers: true,
		},
		Theme: "default",
		Web: WebConfig{
			Enabled: false,
			Addr:    "localhost:8490",
		},
	}
}

// Wrapper builds the wrap configuration for a view of the given width. Wrap
// width 0 disables wrapping, which Wrapper treats as wrap-off.
func (e EditorConfig) Wrapper(viewWidth int) textlayout.Wrapper {
	width := 0
	if e.WordWrap {
		width = viewWidth
	}
	return textlayout.Wrapper{
		Width:     width,
		TabWidth:  e.TabWidth,
		MaxIndent: e.WrapIndent,
	}
}

// DefaultPath returns ~/.config/loom/config.yaml, or "" if the home directory
// is unavailable.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "loom", "config.yaml")
}

// SetDefaults registers the built-in defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("editor.tab_width", d.Editor.TabWidth)
	v.SetDefault("editor.word_wrap", d.Editor.WordWrap)
	v.SetDefault("editor.wrap_indent", d.Editor.WrapIndent)
	v.SetDefault("editor.line_numbers", d.Editor.LineNumbers)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("web.enabled", d.Web.Enabled)
	v.SetDefault("web.addr", d.Web.Addr)
}

// Load reads configuration from path. A missing file yields the defaults; a
// malformed file is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
