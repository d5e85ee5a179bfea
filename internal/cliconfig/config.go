package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/chronicler/pkg/chronicler"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "CHRONICLER_"

// Config holds CLI configuration for chronicler.
type Config struct {
	BaseEndpoint string
	Endpoint     string
	FormEndpoint string
	Key          string

	Page     string
	UserID   string
	Username string

	FlushDelay  time.Duration
	RetryStep   time.Duration
	HTTPTimeout time.Duration
	MaxBuffer   int
	MaxAttempts int

	LogLevel string
	Disable  bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	d := chronicler.DefaultConfig()
	return Config{
		FlushDelay:  d.FlushDelay,
		RetryStep:   d.RetryStep,
		HTTPTimeout: d.HTTPTimeout,
		MaxBuffer:   d.MaxBuffer,
		MaxAttempts: d.MaxAttempts,
		LogLevel:    "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.Disable && c.BaseEndpoint == "" && c.Endpoint == "" {
		return fmt.Errorf("base-endpoint or endpoint is required")
	}
	if c.FlushDelay <= 0 {
		return fmt.Errorf("flush delay must be positive")
	}
	if c.RetryStep <= 0 {
		return fmt.Errorf("retry step must be positive")
	}
	if c.MaxBuffer <= 0 {
		return fmt.Errorf("max buffer must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	clientCfg := c.ClientConfig()
	return clientCfg.Validate()
}

// ClientConfig converts the CLI configuration into a client configuration.
func (c Config) ClientConfig() chronicler.Config {
	return chronicler.Config{
		BaseEndpoint:       c.BaseEndpoint,
		CustomEndpoint:     c.Endpoint,
		CustomFormEndpoint: c.FormEndpoint,
		Key:                c.Key,
		Disable:            c.Disable,
		Page:               c.Page,
		MaxBuffer:          c.MaxBuffer,
		FlushDelay:         c.FlushDelay,
		MaxAttempts:        c.MaxAttempts,
		RetryStep:          c.RetryStep,
		HTTPTimeout:        c.HTTPTimeout,
	}
}

// UserIDValue returns the configured user id, numeric when it parses as
// an integer, or nil when unset.
func (c Config) UserIDValue() *chronicler.UserID {
	if c.UserID == "" {
		return nil
	}
	if n, err := strconv.ParseInt(c.UserID, 10, 64); err == nil {
		return chronicler.NumericUserID(n)
	}
	return chronicler.StringUserID(c.UserID)
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.Key != "" {
		c.Key = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
