// Package config provides layered configuration for the uread CLI.
// Priority: defaults < user < project < env. The library packages never
// read configuration; everything here feeds command-line behavior only.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all uread CLI configuration.
type Config struct {
	Version int `yaml:"version"`

	Detect    DetectConfig    `yaml:"detect"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Watch     WatchConfig     `yaml:"watch"`
}

// DetectConfig controls encoding detection.
type DetectConfig struct {
	SampleSize int      `yaml:"sample_size"` // bytes inspected per file
	Candidates []string `yaml:"candidates"`  // scored encoding labels, preference order
}

// NormalizeConfig controls smart-quote normalization defaults.
type NormalizeConfig struct {
	Quotes       bool     `yaml:"quotes"`         // normalize smart quotes
	Target       string   `yaml:"target"`         // utf8 | ascii
	EscapeFiles  []string `yaml:"escape_files"`   // extensions with quote escaping
	EscapeChar   string   `yaml:"escape_char"`    // single character
	DropNonASCII bool     `yaml:"drop_non_ascii"` // ascii target only
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	OutDir   string        `yaml:"out_dir"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Detect: DetectConfig{
			SampleSize: 64 * 1024,
			Candidates: []string{"utf-8", "windows-1252", "iso-8859-1"},
		},
		Normalize: NormalizeConfig{
			Quotes:      true,
			Target:      "ascii",
			EscapeFiles: []string{".csv"},
			EscapeChar:  `"`,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Load builds the effective configuration: defaults, then config files in
// priority order, then environment variables. Missing files are skipped;
// unreadable or malformed ones are reported. An explicit path replaces
// the search list and must exist.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	paths := configPaths()
	if explicitPath != "" {
		paths = []string{explicitPath}
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) && explicitPath == "" {
				continue
			}
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.loadEnv()
	return cfg, nil
}

// configPaths returns config file paths in priority order, lowest first.
func configPaths() []string {
	var paths []string
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/uread/config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".uread", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".uread.yaml"))
	}
	return paths
}

// loadEnv overrides config values from UREAD_* environment variables.
func (c *Config) loadEnv() {
	if v := os.Getenv("UREAD_SAMPLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Detect.SampleSize = n
		}
	}
	if v := os.Getenv("UREAD_QUOTE_TARGET"); v != "" {
		c.Normalize.Target = v
	}
	if v := os.Getenv("UREAD_NORMALIZE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Normalize.Quotes = b
		}
	}
}

// EscapeByte returns the configured escape character, or '"' when unset
// or multi-byte.
func (n NormalizeConfig) EscapeByte() byte {
	if len(n.EscapeChar) == 1 {
		return n.EscapeChar[0]
	}
	return '"'
}
