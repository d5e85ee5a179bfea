package chronicler

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/chronicler/internal/app"
	"github.com/bft-labs/chronicler/internal/domain"
)

// Collection paths appended to a BaseEndpoint.
const (
	DefaultLogPath  = "/api/collections/logs/records"
	DefaultFormPath = "/api/collections/usererror/records"
)

// DefaultHTTPTimeout bounds one delivery attempt.
const DefaultHTTPTimeout = 10 * time.Second

// Config configures a Client. Set either BaseEndpoint, or CustomEndpoint
// (and optionally CustomFormEndpoint).
type Config struct {
	// BaseEndpoint is the collector root, e.g. https://127.0.0.1:8090.
	BaseEndpoint string

	// CustomEndpoint is the full URL records are posted to.
	CustomEndpoint string

	// CustomFormEndpoint is the full URL user error forms are posted to.
	CustomFormEndpoint string

	// Key is sent in the X-Log header; empty means the built-in default.
	Key string

	// Disable turns every call into a no-op.
	Disable bool

	// Page identifies where records come from when no PageFunc is set.
	Page string

	MaxBuffer   int
	FlushDelay  time.Duration
	MaxAttempts int
	RetryStep   time.Duration
	StackLimit  int

	HTTPTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with the stock flush policy. At minimum
// an endpoint must be set before calling New.
func DefaultConfig() Config {
	ec := app.DefaultEngineConfig()
	return Config{
		MaxBuffer:       ec.MaxBuffer,
		FlushDelay:      ec.FlushDelay,
		MaxAttempts:     ec.MaxAttempts,
		RetryStep:       ec.RetryStep,
		StackLimit:      ec.StackLimit,
		HTTPTimeout:     DefaultHTTPTimeout,
		ShutdownTimeout: app.ShutdownTimeout,
	}
}

// SetDefaults fills zero-valued tunables.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.MaxBuffer <= 0 {
		c.MaxBuffer = d.MaxBuffer
	}
	if c.FlushDelay <= 0 {
		c.FlushDelay = d.FlushDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.RetryStep <= 0 {
		c.RetryStep = d.RetryStep
	}
	if c.StackLimit == 0 {
		c.StackLimit = d.StackLimit
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = d.HTTPTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Validate checks the endpoint configuration. A disabled config is
// always valid.
func (c *Config) Validate() error {
	if c.Disable {
		return nil
	}
	switch {
	case c.BaseEndpoint == "" && c.CustomEndpoint == "":
		return fmt.Errorf("%w: base endpoint or custom endpoint is required", domain.ErrInvalidConfig)
	case c.BaseEndpoint != "" && (c.CustomEndpoint != "" || c.CustomFormEndpoint != ""):
		return fmt.Errorf("%w: base endpoint and custom endpoints are mutually exclusive", domain.ErrInvalidConfig)
	}
	for _, u := range []string{c.BaseEndpoint, c.CustomEndpoint, c.CustomFormEndpoint} {
		if u == "" {
			continue
		}
		if err := checkURL(u); err != nil {
			return err
		}
	}
	return nil
}

// LogURL returns the URL records are posted to.
func (c Config) LogURL() string {
	if c.CustomEndpoint != "" {
		return c.CustomEndpoint
	}
	return trimURL(c.BaseEndpoint) + DefaultLogPath
}

// FormURL returns the URL user error forms are posted to, or "" when
// only a CustomEndpoint is configured.
func (c Config) FormURL() string {
	if c.CustomEndpoint != "" {
		return c.CustomFormEndpoint
	}
	return trimURL(c.BaseEndpoint) + DefaultFormPath
}

func (c Config) engineConfig() app.EngineConfig {
	return app.EngineConfig{
		MaxBuffer:   c.MaxBuffer,
		FlushDelay:  c.FlushDelay,
		MaxAttempts: c.MaxAttempts,
		RetryStep:   c.RetryStep,
		StackLimit:  c.StackLimit,
	}
}

func trimURL(u string) string {
	return strings.TrimRight(u, "/")
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: endpoint %q: %v", domain.ErrInvalidConfig, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q must be an absolute http(s) URL", domain.ErrInvalidConfig, raw)
	}
	return nil
}
