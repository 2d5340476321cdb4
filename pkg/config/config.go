package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/highlight/pkg/types"
)

// Config holds the highlight preferences
type Config struct {
	// New highlights
	DefaultColor    types.Color `yaml:"defaultColor" env:"HIGHLIGHT_DEFAULT_COLOR"`
	CycleColor      bool        `yaml:"cycleColor" env:"HIGHLIGHT_CYCLE_COLOR"`
	AppendHighlight bool        `yaml:"appendHighlight" env:"HIGHLIGHT_APPEND"`

	// Word at caret and selection
	CaretHighlight           bool        `yaml:"caretHighlight" env:"HIGHLIGHT_CARET"`
	CaretHighlightIgnoreCase bool        `yaml:"caretHighlightIgnoreCase" env:"HIGHLIGHT_CARET_IGNORE_CASE"`
	CaretHighlightEntireWord bool        `yaml:"caretHighlightEntireWord" env:"HIGHLIGHT_CARET_ENTIRE_WORD"`
	CaretHighlightColor      types.Color `yaml:"caretHighlightColor" env:"HIGHLIGHT_CARET_COLOR"`
	HighlightSelection       bool        `yaml:"highlight-selection" env:"HIGHLIGHT_SELECTION"`

	// Painting
	Alpha       int         `yaml:"alpha" env:"HIGHLIGHT_ALPHA"`
	RoundCorner bool        `yaml:"highlight-round-corner" env:"HIGHLIGHT_ROUND_CORNER"`
	Square      bool        `yaml:"square" env:"HIGHLIGHT_SQUARE"`
	SquareColor types.Color `yaml:"squareColor" env:"HIGHLIGHT_SQUARE_COLOR"`

	// Overview strip
	Overview          bool        `yaml:"highlight-overview" env:"HIGHLIGHT_OVERVIEW"`
	OverviewSameColor bool        `yaml:"highlight-overview-samecolor" env:"HIGHLIGHT_OVERVIEW_SAMECOLOR"`
	OverviewColor     types.Color `yaml:"overviewColor" env:"HIGHLIGHT_OVERVIEW_COLOR"`

	HypersearchResults bool `yaml:"highlight-hypersearch-results" env:"HIGHLIGHT_HYPERSEARCH"`

	// Persistence and matching
	DataFile     string        `yaml:"dataFile" env:"HIGHLIGHT_DATA"`
	MatchTimeout time.Duration `yaml:"matchTimeout" env:"HIGHLIGHT_MATCH_TIMEOUT"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultColor:             types.MustParseColor("#ffff80"),
		CycleColor:               true,
		AppendHighlight:          true,
		CaretHighlight:           true,
		CaretHighlightEntireWord: true,
		CaretHighlightColor:      types.MustParseColor("#a2ffff"),
		HighlightSelection:       true,
		Alpha:                    50,
		SquareColor:              types.MustParseColor("#000000"),
		Overview:                 true,
		OverviewSameColor:        true,
		OverviewColor:            types.MustParseColor("#ff8000"),
		HypersearchResults:       true,
		DataFile:                 defaultDataFile(),
		MatchTimeout:             100 * time.Millisecond,
	}
}

// AlphaFraction returns Alpha as a 0..1 composite alpha
func (c *Config) AlphaFraction() float64 {
	return float64(c.Alpha) / 100
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads configuration from the given file, if it exists, then
// applies environment overrides
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration as yaml to path
func Save(cfg *Config, path string) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Path returns the config file path
func Path() string {
	// Check for explicit config path
	if path := os.Getenv("HIGHLIGHT_CONFIG"); path != "" {
		return path
	}

	// Check XDG config directory
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "highlight", "config.yaml")
	}

	// Fall back to home directory
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "highlight", "config.yaml")
	}

	return ""
}

func defaultDataFile() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "highlight", "highlights.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "highlight", "highlights.yaml")
	}
	return ""
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	bools := []struct {
		name string
		dst  *bool
	}{
		{"HIGHLIGHT_CYCLE_COLOR", &cfg.CycleColor},
		{"HIGHLIGHT_APPEND", &cfg.AppendHighlight},
		{"HIGHLIGHT_CARET", &cfg.CaretHighlight},
		{"HIGHLIGHT_CARET_IGNORE_CASE", &cfg.CaretHighlightIgnoreCase},
		{"HIGHLIGHT_CARET_ENTIRE_WORD", &cfg.CaretHighlightEntireWord},
		{"HIGHLIGHT_SELECTION", &cfg.HighlightSelection},
		{"HIGHLIGHT_ROUND_CORNER", &cfg.RoundCorner},
		{"HIGHLIGHT_SQUARE", &cfg.Square},
		{"HIGHLIGHT_OVERVIEW", &cfg.Overview},
		{"HIGHLIGHT_OVERVIEW_SAMECOLOR", &cfg.OverviewSameColor},
		{"HIGHLIGHT_HYPERSEARCH", &cfg.HypersearchResults},
	}
	for _, b := range bools {
		if err := envBool(b.name, b.dst); err != nil {
			return err
		}
	}

	colors := []struct {
		name string
		dst  *types.Color
	}{
		{"HIGHLIGHT_DEFAULT_COLOR", &cfg.DefaultColor},
		{"HIGHLIGHT_CARET_COLOR", &cfg.CaretHighlightColor},
		{"HIGHLIGHT_SQUARE_COLOR", &cfg.SquareColor},
		{"HIGHLIGHT_OVERVIEW_COLOR", &cfg.OverviewColor},
	}
	for _, c := range colors {
		if v := os.Getenv(c.name); v != "" {
			parsed, err := types.ParseColor(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", c.name, err)
			}
			*c.dst = parsed
		}
	}

	if alpha := os.Getenv("HIGHLIGHT_ALPHA"); alpha != "" {
		n, err := strconv.Atoi(alpha)
		if err != nil {
			return fmt.Errorf("invalid HIGHLIGHT_ALPHA: %w", err)
		}
		cfg.Alpha = n
	}

	if data := os.Getenv("HIGHLIGHT_DATA"); data != "" {
		cfg.DataFile = data
	}

	if timeout := os.Getenv("HIGHLIGHT_MATCH_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid HIGHLIGHT_MATCH_TIMEOUT: %w", err)
		}
		cfg.MatchTimeout = d
	}

	return nil
}

func envBool(name string, dst *bool) error {
	v := os.Getenv(name)
	switch v {
	case "":
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		return fmt.Errorf("invalid %s value: %q (use true/false)", name, v)
	}
	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Alpha < 0 || cfg.Alpha > 100 {
		return fmt.Errorf("alpha must be between 0 and 100, got %d", cfg.Alpha)
	}

	if cfg.MatchTimeout < 0 {
		return fmt.Errorf("matchTimeout must be non-negative")
	}

	return nil
}
