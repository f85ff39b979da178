// Package config loads the server configuration: defaults, then an
// optional YAML file, then environment overrides, validated against an
// embedded CUE schema before anything starts.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// RateLimit configures the HTTP token-bucket limiter.
type RateLimit struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// Config holds the server configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr" json:"addr"`

	// DB is the SQLite database path.
	DB string `yaml:"db" json:"db"`

	// BlobDir is the root directory for stored item photos.
	BlobDir string `yaml:"blob_dir" json:"blob_dir"`

	// LogFormat selects the slog handler: "text" or "json".
	LogFormat string `yaml:"log_format" json:"log_format"`

	// TxMaxAttempts is the transaction retry budget.
	TxMaxAttempts int `yaml:"tx_max_attempts" json:"tx_max_attempts"`

	RateLimit RateLimit `yaml:"rate_limit" json:"rate_limit"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:          ":8080",
		DB:            "reunite.db",
		BlobDir:       "blobs",
		LogFormat:     "text",
		TxMaxAttempts: 5,
		RateLimit:     RateLimit{RPS: 20, Burst: 40},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path (empty path skips the file), and environment overrides, then
// validates the result. Unknown YAML keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from REUNITE_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("REUNITE_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("REUNITE_DB"); v != "" {
		cfg.DB = v
	}
	if v := os.Getenv("REUNITE_BLOB_DIR"); v != "" {
		cfg.BlobDir = v
	}
	if v := os.Getenv("REUNITE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("REUNITE_TX_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TxMaxAttempts = n
		}
	}
}

// Validate unifies the configuration with the embedded CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("config schema is missing #Config: %w", err)
	}

	val := ctx.Encode(cfg)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
