package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reunite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
db: /var/lib/reunite.db
log_format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/var/lib/reunite.db", cfg.DB)
	assert.Equal(t, "json", cfg.LogFormat)
	// Untouched fields keep their defaults.
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.Equal(t, Default().RateLimit, cfg.RateLimit)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
databse: oops.db
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("REUNITE_ADDR", ":7070")
	t.Setenv("REUNITE_LOG_FORMAT", "json")
	t.Setenv("REUNITE_TX_MAX_ATTEMPTS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3, cfg.TxMaxAttempts)
}

func TestValidate_SchemaViolations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"empty db", func(c *Config) { c.DB = "" }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"zero attempts", func(c *Config) { c.TxMaxAttempts = 0 }},
		{"excessive attempts", func(c *Config) { c.TxMaxAttempts = 99 }},
		{"zero rps", func(c *Config) { c.RateLimit.RPS = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	path := writeConfig(t, `
log_format: verbose
`)
	_, err := Load(path)
	require.Error(t, err, "schema validation runs on the loaded result")
}
