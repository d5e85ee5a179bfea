package cliconfig

import "os"

// ApplyEnvConfig applies configuration from CHRONICLER_* environment
// variables. Flags that were explicitly set (changed map) win.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("base-endpoint", env("BASE_ENDPOINT"), &cfg.BaseEndpoint)
	s.setString("endpoint", env("ENDPOINT"), &cfg.Endpoint)
	s.setString("form-endpoint", env("FORM_ENDPOINT"), &cfg.FormEndpoint)
	s.setString("key", env("KEY"), &cfg.Key)
	s.setString("page", env("PAGE"), &cfg.Page)
	s.setString("user-id", env("USER_ID"), &cfg.UserID)
	s.setString("username", env("USERNAME"), &cfg.Username)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("flush-delay", env("FLUSH_DELAY"), &cfg.FlushDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-step", env("RETRY_STEP"), &cfg.RetryStep); err != nil {
		return err
	}
	if err := s.setDuration("timeout", env("HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-buffer", env("MAX_BUFFER"), &cfg.MaxBuffer); err != nil {
		return err
	}
	if err := s.setIntFromString("max-attempts", env("MAX_ATTEMPTS"), &cfg.MaxAttempts); err != nil {
		return err
	}

	s.setBoolFromString("disable", env("DISABLE"), &cfg.Disable)

	return nil
}
