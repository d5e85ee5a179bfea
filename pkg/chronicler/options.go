package chronicler

import (
	"github.com/bft-labs/chronicler/internal/ports"
	"github.com/bft-labs/chronicler/pkg/log"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for the client's own diagnostics.
type Logger = log.Logger

// Field is a structured logging field passed to Logger.
type Field = log.Field

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient   HTTPClient
	logger       Logger
	eventHandler EventHandler
	userID       func() *UserID
	username     func() string
	page         func() string
}

// WithHTTPClient sets the HTTP client used for deliveries. If not
// provided, a client with Config.HTTPTimeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets where the client reports its own diagnostics, such as
// records dropped after exhausting retries. Defaults to no output.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for client events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithUserIDFunc resolves the user id for records that carry none.
func WithUserIDFunc(fn func() *UserID) Option {
	return func(o *options) {
		o.userID = fn
	}
}

// WithUsernameFunc resolves the username for records that carry none.
func WithUsernameFunc(fn func() string) Option {
	return func(o *options) {
		o.username = fn
	}
}

// WithPageFunc resolves the page stamped on every record.
func WithPageFunc(fn func() string) Option {
	return func(o *options) {
		o.page = fn
	}
}
