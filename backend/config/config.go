// Package config loads the server and CLI configuration from HCL or YAML
// files.
package config

import (
	"fmt"
	"go/version"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	yaml "gopkg.in/yaml.v2"
)

// Defaults.
const (
	DefaultAddr           = ":8080"
	DefaultMaxSourceBytes = 64 << 10
)

// Config is the format-agnostic configuration.
type Config struct {
	LogLevel string   `yaml:"log_level"`
	Server   Server   `yaml:"server"`
	Analysis Analysis `yaml:"analysis"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Analysis struct {
	// GoVersion is the language version rewritten Go code must compile
	// with, such as "go1.22" or "1.22". Empty means the latest.
	GoVersion         string   `yaml:"go_version"`
	MaxSourceBytes    int      `yaml:"max_source_bytes"`
	DisabledDetectors []string `yaml:"disabled_detectors"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:   Server{Addr: DefaultAddr},
		Analysis: Analysis{MaxSourceBytes: DefaultMaxSourceBytes},
	}
}

// Load reads the configuration at path. The format is chosen by the file
// extension: .hcl, .yaml or .yml. An empty path yields the defaults. The PORT
// environment variable overrides the server address.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".hcl":
			err = loadHCL(path, cfg)
		case ".yaml", ".yml":
			err = loadYAML(path, cfg)
		default:
			err = fmt.Errorf("unknown config format %q", filepath.Ext(path))
		}
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

type hclFile struct {
	LogLevel string       `hcl:"log_level,optional"`
	Server   *hclServer   `hcl:"server,block"`
	Analysis *hclAnalysis `hcl:"analysis,block"`
}

type hclServer struct {
	Addr string `hcl:"addr,optional"`
}

type hclAnalysis struct {
	GoVersion         string   `hcl:"go_version,optional"`
	MaxSourceBytes    int      `hcl:"max_source_bytes,optional"`
	DisabledDetectors []string `hcl:"disabled_detectors,optional"`
}

func loadHCL(path string, cfg *Config) error {
	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return diags
	}
	var parsed hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
		return diags
	}

	if parsed.LogLevel != "" {
		cfg.LogLevel = parsed.LogLevel
	}
	if s := parsed.Server; s != nil && s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	if a := parsed.Analysis; a != nil {
		if a.GoVersion != "" {
			cfg.Analysis.GoVersion = a.GoVersion
		}
		if a.MaxSourceBytes != 0 {
			cfg.Analysis.MaxSourceBytes = a.MaxSourceBytes
		}
		cfg.Analysis.DisabledDetectors = append(cfg.Analysis.DisabledDetectors, a.DisabledDetectors...)
	}
	return nil
}

func (c *Config) normalize() error {
	if v := c.Analysis.GoVersion; v != "" {
		if !strings.HasPrefix(v, "go") {
			v = "go" + v
		}
		if !version.IsValid(v) {
			return fmt.Errorf("invalid go_version %q", c.Analysis.GoVersion)
		}
		c.Analysis.GoVersion = v
	}
	if c.Analysis.MaxSourceBytes < 0 {
		return fmt.Errorf("max_source_bytes must not be negative: %d", c.Analysis.MaxSourceBytes)
	}
	if c.Analysis.MaxSourceBytes == 0 {
		c.Analysis.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	return nil
}
