package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	BaseEndpoint string `toml:"base_endpoint"`
	Endpoint     string `toml:"endpoint"`
	FormEndpoint string `toml:"form_endpoint"`
	Key          string `toml:"key"`
	Page         string `toml:"page"`
	UserID       string `toml:"user_id"`
	Username     string `toml:"username"`
	FlushDelay   string `toml:"flush_delay"`
	RetryStep    string `toml:"retry_step"`
	HTTPTimeout  string `toml:"http_timeout"`
	MaxBuffer    int    `toml:"max_buffer"`
	MaxAttempts  int    `toml:"max_attempts"`
	LogLevel     string `toml:"log_level"`
	Disable      *bool  `toml:"disable"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.chronicler/config.toml, or "" when the
// home directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".chronicler", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("base-endpoint", fc.BaseEndpoint, &cfg.BaseEndpoint)
	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("form-endpoint", fc.FormEndpoint, &cfg.FormEndpoint)
	s.setString("key", fc.Key, &cfg.Key)
	s.setString("page", fc.Page, &cfg.Page)
	s.setString("user-id", fc.UserID, &cfg.UserID)
	s.setString("username", fc.Username, &cfg.Username)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("flush-delay", fc.FlushDelay, &cfg.FlushDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-step", fc.RetryStep, &cfg.RetryStep); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setInt("max-buffer", fc.MaxBuffer, &cfg.MaxBuffer)
	s.setInt("max-attempts", fc.MaxAttempts, &cfg.MaxAttempts)

	s.setBool("disable", fc.Disable, &cfg.Disable)

	return nil
}

// Load resolves the configuration: file first, then CHRONICLER_*
// environment variables, with explicitly set flags winning over both.
// A missing file at the default path is not an error.
func Load(cfg *Config, path string, changed map[string]bool) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" && (explicit || FileExists(path)) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return err
		}
		if err := ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}
	return ApplyEnvConfig(cfg, changed)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
