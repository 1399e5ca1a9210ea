package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenntenn/codelens/backend/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefault(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadHCL(t *testing.T) {
	t.Setenv("PORT", "")

	path := writeFile(t, "codelens.hcl", `
log_level = "debug"

server {
  addr = ":9090"
}

analysis {
  go_version         = "1.21"
  max_source_bytes   = 1024
  disabled_detectors = ["unused-variable"]
}
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, &config.Config{
		LogLevel: "debug",
		Server:   config.Server{Addr: ":9090"},
		Analysis: config.Analysis{
			GoVersion:         "go1.21",
			MaxSourceBytes:    1024,
			DisabledDetectors: []string{"unused-variable"},
		},
	}, cfg)
}

func TestLoadHCLPartial(t *testing.T) {
	t.Setenv("PORT", "")

	path := writeFile(t, "codelens.hcl", "analysis {\n  go_version = \"go1.22\"\n}\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultAddr, cfg.Server.Addr)
	require.Equal(t, config.DefaultMaxSourceBytes, cfg.Analysis.MaxSourceBytes)
	require.Equal(t, "go1.22", cfg.Analysis.GoVersion)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("PORT", "")

	path := writeFile(t, "codelens.yaml", `
log_level: warn
server:
  addr: 127.0.0.1:8000
analysis:
  go_version: go1.23
  disabled_detectors:
    - infinite-loop
    - null-dereference
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, &config.Config{
		LogLevel: "warn",
		Server:   config.Server{Addr: "127.0.0.1:8000"},
		Analysis: config.Analysis{
			GoVersion:         "go1.23",
			MaxSourceBytes:    config.DefaultMaxSourceBytes,
			DisabledDetectors: []string{"infinite-loop", "null-dereference"},
		},
	}, cfg)
}

func TestLoadPort(t *testing.T) {
	t.Setenv("PORT", "3000")

	path := writeFile(t, "codelens.yml", "server:\n  addr: \":9090\"\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("PORT", "")

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "codelens.toml", "addr = 1"},
		{"unknown yaml key", "codelens.yaml", "server:\n  port: 80\n"},
		{"unknown hcl attribute", "codelens.hcl", "port = 80\n"},
		{"broken hcl", "codelens.hcl", "server {\n"},
		{"invalid go version", "codelens.yaml", "analysis:\n  go_version: banana\n"},
		{"negative size", "codelens.hcl", "analysis {\n  max_source_bytes = -1\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
