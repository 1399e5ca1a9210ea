// Package logging builds the hclog loggers used by the servers and the CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// LevelEnv is the environment variable consulted when no level is
// configured.
const LevelEnv = "CODELENS_LOG_LEVEL"

// New returns a logger named name writing to w. An empty level falls back
// to LevelEnv, then to info.
func New(name, level string, w io.Writer) hclog.Logger {
	if level == "" {
		level = os.Getenv(LevelEnv)
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Output: w,
		Level:  Level(level),
	})
}

// Level parses a level name, defaulting to info.
func Level(s string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	case "OFF":
		return hclog.Off
	default:
		return hclog.Info
	}
}
