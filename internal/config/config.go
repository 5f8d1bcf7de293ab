// Package config loads and validates the optional .contractcheck YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file looked up from the
// working directory upward.
const FileName = ".contractcheck"

// Default values for runner and verifier configuration.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultMaxOutput = 1 << 20 // 1 MB
	DefaultTestDir   = "test"
	DefaultSentinel  = 255
)

// Config holds the parsed .contractcheck configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int                 `yaml:"version"`
	RawTimeout   string              `yaml:"timeout"`    // e.g. "5s", "1m"
	RawMaxOutput int                 `yaml:"max_output"` // bytes per stream
	RawTestDir   string              `yaml:"test_dir"`   // where compiled test programs live
	RawSentinel  int                 `yaml:"sentinel"`   // release-mode exit code
	Categories   map[string]Category `yaml:"categories"` // extra rows for the percent scheme
}

// Category is one row of the percent-scheme lookup table.
type Category struct {
	Operator string `yaml:"operator"`
	Left     string `yaml:"left"`
	Right    string `yaml:"right"`
}

// Timeout returns the configured timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// TestDir returns the configured test-output directory or the default.
func (c *Config) TestDir() string {
	if c.RawTestDir != "" {
		return c.RawTestDir
	}
	return DefaultTestDir
}

// Sentinel returns the exit code a release build must return when a
// contract check fails.
func (c *Config) Sentinel() int {
	if c.RawSentinel > 0 && c.RawSentinel < 256 {
		return c.RawSentinel
	}
	return DefaultSentinel
}

// Validate reports configuration values that are present but unusable.
func (c *Config) Validate() error {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err != nil {
			return fmt.Errorf("timeout %q: %w", c.RawTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout %q must be positive", c.RawTimeout)
		}
	}
	if c.RawSentinel < 0 || c.RawSentinel > 255 {
		return fmt.Errorf("sentinel %d is not a valid exit code", c.RawSentinel)
	}
	for name, cat := range c.Categories {
		if cat.Operator == "" {
			return fmt.Errorf("category %q: operator is required", name)
		}
	}
	return nil
}

// LoadResult holds the parsed config and the directory it was found in.
type LoadResult struct {
	Config *Config
	Root   string // directory containing .contractcheck; falls back to workspace
	Path   string // path of the loaded file, empty when defaults are used
}

// Load reads the .contractcheck file nearest to workspace, walking upward.
// If no file exists, a default Config rooted at workspace is returned.
func Load(workspace string) (*LoadResult, error) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}

	path, err := findConfig(abs)
	if err != nil {
		return &LoadResult{Config: &Config{}, Root: abs}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Root: filepath.Dir(path), Path: path}, nil
}

// findConfig walks upward from dir looking for a .contractcheck file.
func findConfig(dir string) (string, error) {
	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", FileName)
		}
		dir = parent
	}
}
