package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://127.0.0.1:9090", "-d", "x.db", "-t", "5", "-i", "10", "-l", "debug"},
			expected: &Config{
				APIBaseURL:          "http://127.0.0.1:9090",
				DatabasePath:        "x.db",
				RequestTimeout:      5 * time.Second,
				OnlineCheckInterval: 10 * time.Second,
				LogLevel:            "debug",
			},
		},
		{
			name: "foreign flags are ignored",
			args: []string{"-c", "cfg.json", "-a", "http://api"},
			expected: &Config{
				APIBaseURL:          "http://api",
				DatabasePath:        "storefront.db",
				RequestTimeout:      10 * time.Second,
				OnlineCheckInterval: 3 * time.Second,
				LogLevel:            "info",
			},
		},
		{name: "incorrect check interval", args: []string{"-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			config.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
