package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"ttgen/internal/emit"
	"ttgen/internal/grammar"
)

// Environment overrides.
const (
	EnvLogLevel    = "TTGEN_LOG_LEVEL"
	EnvGrammarFile = "TTGEN_GRAMMAR_FILE"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "ttgen.toml"

var (
	ErrNoTargets      = errors.New("no output targets configured")
	ErrInvalidTarget  = errors.New("invalid output target")
	ErrInvalidLogging = errors.New("invalid log settings")
)

// Config configures a ttgen run.
type Config struct {
	Grammar GrammarConfig `toml:"grammar"`

	// Targets are the files rendered from one compilation.
	Targets []Target `toml:"targets"`

	Log   LogConfig   `toml:"log"`
	Watch WatchConfig `toml:"watch"`
}

// GrammarConfig selects the grammar set.
type GrammarConfig struct {
	// File is a TOML or YAML grammar list. Empty means the built-in defaults.
	File string `toml:"file"`

	// DefaultColumnKind names lines that match no block delimiter.
	DefaultColumnKind string `toml:"default_column_kind"`
}

// Target is one rendered output file.
type Target struct {
	Path    string `toml:"path"`
	Format  string `toml:"format"`
	Package string `toml:"package"`
}

// LogConfig controls the slog handler built by the CLI.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// WatchConfig tunes the grammar file watcher.
type WatchConfig struct {
	// Debounce coalesces bursts of editor writes into one rebuild.
	Debounce Duration `toml:"debounce"`
}

// Duration wraps time.Duration for TOML parsing.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns a Config with sensible defaults: the built-in grammar
// set rendered to src/transitions.nim.
func DefaultConfig() Config {
	return Config{
		Grammar: GrammarConfig{DefaultColumnKind: grammar.DefaultColumnKind},
		Targets: []Target{{Path: filepath.Join("src", "transitions.nim"), Format: emit.FormatNim}},
		Log:     LogConfig{Level: "info", Format: "text"},
		Watch:   WatchConfig{Debounce: Duration{200 * time.Millisecond}},
	}
}

// Load reads a TOML config file. Relative paths inside it are resolved
// against the file's directory. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Targets = nil

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultConfig().Targets
	}

	cfg.resolvePaths(filepath.Dir(path))
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault loads path when set, else ./ttgen.toml when present, else
// the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return Load(DefaultConfigFile)
	}
	cfg := DefaultConfig()
	cfg.applyEnv()
	return &cfg, nil
}

// Validate checks targets and log settings.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	seen := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		if t.Path == "" {
			return fmt.Errorf("%w: target %d has no path", ErrInvalidTarget, i)
		}
		if !emit.ValidFormat(t.Format) {
			return fmt.Errorf("%w: target %s: format %q (must be one of %v)", ErrInvalidTarget, t.Path, t.Format, emit.Formats)
		}
		clean := filepath.Clean(t.Path)
		if seen[clean] {
			return fmt.Errorf("%w: %s listed twice", ErrInvalidTarget, t.Path)
		}
		seen[clean] = true
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: level %q", ErrInvalidLogging, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidLogging, c.Log.Format)
	}
	if c.Watch.Debounce.Duration < 0 {
		return fmt.Errorf("watch debounce must not be negative: %s", c.Watch.Debounce.Duration)
	}
	return nil
}

// OverrideTarget replaces the configured targets with a single file. An
// empty format is inferred from the extension.
func (c *Config) OverrideTarget(path, format, pkg string) {
	if format == "" {
		format = formatForPath(path)
	}
	c.Targets = []Target{{Path: path, Format: format, Package: pkg}}
}

// LoadGrammars returns the configured grammar set.
func (c *Config) LoadGrammars() ([]grammar.Spec, error) {
	if c.Grammar.File == "" {
		return grammar.Defaults(), nil
	}
	return grammar.LoadFile(c.Grammar.File)
}

func (c *Config) resolvePaths(base string) {
	if c.Grammar.File != "" && !filepath.IsAbs(c.Grammar.File) {
		c.Grammar.File = filepath.Join(base, c.Grammar.File)
	}
	for i := range c.Targets {
		if c.Targets[i].Path != "" && !filepath.IsAbs(c.Targets[i].Path) {
			c.Targets[i].Path = filepath.Join(base, c.Targets[i].Path)
		}
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvGrammarFile); v != "" {
		c.Grammar.File = v
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Grammar.DefaultColumnKind == "" {
		c.Grammar.DefaultColumnKind = def.Grammar.DefaultColumnKind
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Watch.Debounce.Duration == 0 {
		c.Watch.Debounce = def.Watch.Debounce
	}
	for i := range c.Targets {
		if c.Targets[i].Format == "" {
			c.Targets[i].Format = formatForPath(c.Targets[i].Path)
		}
	}
}

// formatForPath infers an output format from the target's extension.
func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nim":
		return emit.FormatNim
	case ".go":
		return emit.FormatGo
	case ".json":
		return emit.FormatJSON
	case ".yaml", ".yml":
		return emit.FormatYAML
	default:
		return ""
	}
}
