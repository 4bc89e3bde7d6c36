// Package config loads the ollamakit server configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the web UI server.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr       string `json:"addr" yaml:"addr" toml:"addr"`
	OllamaHost string `json:"ollama_host" yaml:"ollama_host" toml:"ollama_host"`
	// DataDir is the parent of the settings file and the conversation dirs
	// when those are not set explicitly.
	DataDir          string `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	SettingsFile     string `json:"settings_file" yaml:"settings_file" toml:"settings_file"`
	// SettingsDB selects the SQLite store instead of SettingsFile when set.
	SettingsDB       string `json:"settings_db" yaml:"settings_db" toml:"settings_db"`
	ConversationsDir string `json:"conversations_dir" yaml:"conversations_dir" toml:"conversations_dir"`
	DeletedDir       string `json:"deleted_dir" yaml:"deleted_dir" toml:"deleted_dir"`
	DefaultModel     string `json:"default_model" yaml:"default_model" toml:"default_model"`
	LogLevel         string `json:"log_level" yaml:"log_level" toml:"log_level"`
	// Upper bound for a single non-streamed call to Ollama; 0 disables it.
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes          int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	SaveRatePerSec        float64  `json:"save_rate_per_sec" yaml:"save_rate_per_sec" toml:"save_rate_per_sec"`
	SaveBurst             int      `json:"save_burst" yaml:"save_burst" toml:"save_burst"`
}

const (
	DefaultAddr           = ":8000"
	DefaultDataDir        = "~/.ollamakit"
	DefaultLogLevel       = "info"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultSaveRatePerSec = 5
	DefaultSaveBurst      = 10
)

// Defaults returns a fully populated configuration.
func Defaults() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills every unspecified field.
func (c Config) WithDefaults() Config {
	if c.Addr == "" { c.Addr = DefaultAddr }
	if c.DataDir == "" { c.DataDir = DefaultDataDir }
	if c.SettingsFile == "" { c.SettingsFile = filepath.Join(c.DataDir, "settings.json") }
	if c.ConversationsDir == "" { c.ConversationsDir = filepath.Join(c.DataDir, "conversations") }
	if c.DeletedDir == "" { c.DeletedDir = filepath.Join(c.DataDir, "deleted") }
	if c.LogLevel == "" { c.LogLevel = DefaultLogLevel }
	if c.MaxBodyBytes <= 0 { c.MaxBodyBytes = DefaultMaxBodyBytes }
	if c.SaveRatePerSec <= 0 { c.SaveRatePerSec = DefaultSaveRatePerSec }
	if c.SaveBurst <= 0 { c.SaveBurst = DefaultSaveBurst }
	return c
}

// ApplyEnv overrides fields from the environment. OLLAMA_HOST is honoured
// for the upstream server; everything else uses the OLLAMAKIT_ prefix.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("OLLAMA_HOST", &c.OllamaHost)
	str("OLLAMAKIT_ADDR", &c.Addr)
	str("OLLAMAKIT_DATA_DIR", &c.DataDir)
	str("OLLAMAKIT_SETTINGS_FILE", &c.SettingsFile)
	str("OLLAMAKIT_SETTINGS_DB", &c.SettingsDB)
	str("OLLAMAKIT_CONVERSATIONS_DIR", &c.ConversationsDir)
	str("OLLAMAKIT_DELETED_DIR", &c.DeletedDir)
	str("OLLAMAKIT_DEFAULT_MODEL", &c.DefaultModel)
	str("OLLAMAKIT_LOG_LEVEL", &c.LogLevel)
	if v := strings.TrimSpace(getenv("OLLAMAKIT_CORS_ORIGINS")); v != "" {
		c.CORSOrigins = SplitCSV(v)
	}
	if v := strings.TrimSpace(getenv("OLLAMAKIT_REQUEST_TIMEOUT_SECONDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("OLLAMAKIT_REQUEST_TIMEOUT_SECONDS: %w", err)
		}
		c.RequestTimeoutSeconds = n
	}
	return c, nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, fmt.Errorf("parse %s: %w", path, err) }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, fmt.Errorf("parse %s: %w", path, err) }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, fmt.Errorf("parse %s: %w", path, err) }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// SplitCSV splits a comma-separated list, trimming spaces and dropping
// empty items.
func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
