package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/tenntenn/codelens/backend/logging"
)

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want hclog.Level
	}{
		{"trace", hclog.Trace},
		{"DEBUG", hclog.Debug},
		{" warn ", hclog.Warn},
		{"error", hclog.Error},
		{"off", hclog.Off},
		{"", hclog.Info},
		{"loud", hclog.Info},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := logging.Level(tt.in); got != tt.want {
				t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Setenv(logging.LevelEnv, "error")

	var buf bytes.Buffer
	l := logging.New("codelens", "", &buf)
	l.Warn("dropped")
	l.Error("kept", "file", "a.go")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("warning written at error level:\n%s", out)
	}
	if !strings.Contains(out, "codelens: kept: file=a.go") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
