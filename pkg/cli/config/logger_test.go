package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/imgharvest/pkg/cli/config"
)

func TestLogger_Configure(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "Valid level: debug", level: "debug"},
		{name: "Valid level: DEBUG (case insensitive)", level: "DEBUG"},
		{name: "Valid level: info", level: "info"},
		{name: "Valid level: Warn", level: "Warn"},
		{name: "Valid level: error", level: "error"},
		{name: "Invalid level: empty string", level: "", wantErr: true},
		{name: "Invalid level: random", level: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &config.Logger{Level: tt.level, Format: "console"}

			result, err := logger.Configure()
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, result).NotNil()
		})
	}
}

func TestLogger_Configure_Format(t *testing.T) {
	for _, format := range []string{"console", "json", "JSON"} {
		t.Run(format, func(t *testing.T) {
			logger := &config.Logger{Level: "info", Format: format}
			result, err := logger.Configure()
			gt.NoError(t, err)
			result.Info("test log message")
		})
	}

	_, err := (&config.Logger{Level: "info", Format: "xml"}).Configure()
	gt.Error(t, err)
}

func TestLogger_MasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := (&config.Logger{Level: "info", Format: "json", Output: path}).Configure()
	gt.NoError(t, err)

	cfg := config.SerpAPI{APIKey: "very-secret-key", Engine: "google"}
	logger.Info("configured", "serpapi", cfg)

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	out := string(data)
	gt.False(t, strings.Contains(out, "very-secret-key"))
	gt.String(t, out).Contains("google")
}
