package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Coverage policies.
const (
	PolicyPresence = "presence"
	PolicyPassed   = "passed"
)

// DefaultNames are the file names Discover looks for, in order.
var DefaultNames = []string{"spectrace.yaml", "spectrace.yml", "spectrace.toml", "spectrace.json"}

// Config holds one run's settings, loaded from spectrace.yaml (or .toml/.json).
type Config struct {
	// BaseDir anchors every relative path in the configuration. When loaded
	// from a file it is absolute; a relative value in the file is taken
	// relative to the file's directory.
	BaseDir        string                    `json:"baseDir,omitempty" yaml:"baseDir,omitempty" toml:"baseDir,omitempty"`
	Requirements   []trace.RequirementSource `json:"requirements" yaml:"requirements" toml:"requirements" validate:"required,dive"`
	Tests          []trace.TestSource        `json:"tests" yaml:"tests" toml:"tests" validate:"required,dive"`
	OutputDir      string                    `json:"outputDir,omitempty" yaml:"outputDir,omitempty" toml:"outputDir,omitempty"`
	CoveragePolicy string                    `json:"coveragePolicy,omitempty" yaml:"coveragePolicy,omitempty" toml:"coveragePolicy,omitempty" validate:"omitempty,oneof=presence passed"`

	// Path is the file the configuration was read from; empty when built in code.
	Path string `json:"-" yaml:"-" toml:"-"`
}

// Load reads, defaults and validates the configuration file at path. Every
// failure is returned as a *trace.ConfigurationError.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &trace.ConfigurationError{Path: path, Err: err}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &trace.ConfigurationError{Path: abs, Err: fmt.Errorf("file not found")}
		}
		return nil, &trace.ConfigurationError{Path: abs, Err: err}
	}

	cfg, err := Parse(data, filepath.Ext(abs))
	if err != nil {
		return nil, &trace.ConfigurationError{Path: abs, Err: err}
	}
	cfg.Path = abs

	dir := filepath.Dir(abs)
	switch {
	case cfg.BaseDir == "":
		cfg.BaseDir = dir
	case !filepath.IsAbs(cfg.BaseDir):
		cfg.BaseDir = filepath.Join(dir, cfg.BaseDir)
	}

	if err := cfg.Prepare(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover looks for one of DefaultNames in dir and loads it.
func Discover(dir string) (*Config, error) {
	for _, name := range DefaultNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Load(path)
	}
	return nil, &trace.ConfigurationError{
		Path: dir,
		Err:  fmt.Errorf("no configuration found (looked for %s)", strings.Join(DefaultNames, ", ")),
	}
}

// Parse decodes raw configuration bytes. ext selects the format: ".toml",
// ".json", anything else is YAML.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}
	return &cfg, nil
}

// Prepare applies defaults and validates. Configurations built in code
// must call it before use; Load calls it already.
func (c *Config) Prepare() error {
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return &trace.ConfigurationError{Path: c.Path, Err: err}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.BaseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.BaseDir = wd
		}
	}
	if c.CoveragePolicy == "" {
		c.CoveragePolicy = PolicyPresence
	}
	for i := range c.Requirements {
		r := &c.Requirements[i]
		if r.Type == "" {
			r.Type = trace.SourceTypeMarkdown
		}
		if r.LinkScope == "" {
			r.LinkScope = trace.LinkScopeFile
		}
	}
	for i := range c.Tests {
		if c.Tests[i].Scanner == "" {
			c.Tests[i].Scanner = trace.ScannerRegex
		}
	}
}

// OutputPath resolves name against OutputDir (itself relative to BaseDir).
// Absolute names, and any name when OutputDir is unset, resolve against
// BaseDir only.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if c.OutputDir == "" {
		return filepath.Join(c.BaseDir, name)
	}
	dir := c.OutputDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.BaseDir, dir)
	}
	return filepath.Join(dir, name)
}
