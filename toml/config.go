// Package toml loads diffmod configuration files with go-toml.
package toml

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/fwojciec/diffmod"
	"github.com/pelletier/go-toml/v2"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Parser names.
const (
	ParserNative  = "native"
	ParserGitdiff = "gitdiff"
)

// Config holds user configuration. Zero values in the file fall back to the
// defaults.
type Config struct {
	Context   *int   `toml:"context"`
	Strip     *int   `toml:"strip"`
	Algorithm string `toml:"algorithm"`
	Color     string `toml:"color"`
	Theme     string `toml:"theme"`
	LogLevel  string `toml:"log_level"`
	Parser    string `toml:"parser"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	opts := diffmod.DefaultOptions()
	return &Config{
		Context:   &opts.ContextLines,
		Strip:     &opts.StripPathComponents,
		Algorithm: opts.Algorithm.String(),
		Color:     ColorAuto,
		Theme:     "default",
		LogLevel:  "warn",
		Parser:    ParserNative,
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read config file: %w", diffmod.ErrIO, err)
	}
	return Parse(data)
}

// Parse decodes a configuration document and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	def := Default()
	if cfg.Context == nil {
		cfg.Context = def.Context
	}
	if cfg.Strip == nil {
		cfg.Strip = def.Strip
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = def.Algorithm
	}
	if cfg.Color == "" {
		cfg.Color = def.Color
	}
	if cfg.Theme == "" {
		cfg.Theme = def.Theme
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Parser == "" {
		cfg.Parser = def.Parser
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every value is known.
func (c *Config) Validate() error {
	if *c.Context < 0 {
		return fmt.Errorf("config: context must not be negative, got %d", *c.Context)
	}
	if *c.Strip < 0 {
		return fmt.Errorf("config: strip must not be negative, got %d", *c.Strip)
	}
	if _, err := diffmod.ParseDiffAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("config: unknown color mode %q", c.Color)
	}
	switch c.Parser {
	case ParserNative, ParserGitdiff:
	default:
		return fmt.Errorf("config: unknown parser %q", c.Parser)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Options returns the diff options described by c.
func (c *Config) Options() (diffmod.DiffOptions, error) {
	alg, err := diffmod.ParseDiffAlgorithm(c.Algorithm)
	if err != nil {
		return diffmod.DiffOptions{}, err
	}
	return diffmod.DiffOptions{
		StripPathComponents: *c.Strip,
		ContextLines:        *c.Context,
		Algorithm:           alg,
	}, nil
}

// ParseLevel converts a level name such as "debug" or "warn" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// Encode renders c as a TOML document.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
