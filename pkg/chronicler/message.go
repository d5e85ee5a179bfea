package chronicler

import (
	"runtime/debug"

	"github.com/bft-labs/chronicler/internal/domain"
)

// Re-exported record model.
type (
	Severity      = domain.Severity
	UserID        = domain.UserID
	LogRecord     = domain.LogRecord
	Message       = domain.Message
	InboundRecord = domain.InboundRecord
	UserErrorForm = domain.UserErrorForm
)

// Known severities.
var (
	SeverityInfo    = domain.SeverityInfo
	SeverityWarning = domain.SeverityWarning
	SeverityError   = domain.SeverityError
	SeverityFatal   = domain.SeverityFatal
)

// Errors returned by the client. Check them with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrInvalidMessage  = domain.ErrInvalidMessage
)

// StringUserID returns a user id sent as a JSON string.
func StringUserID(s string) *UserID { return domain.StringUserID(s) }

// NumericUserID returns a user id sent as a JSON number.
func NumericUserID(n int64) *UserID { return domain.NumericUserID(n) }

// UserMessage is what application code reports.
type UserMessage struct {
	Message  string
	Stack    string
	UserID   *UserID
	Username string
}

// MessageOption decorates a UserMessage.
type MessageOption func(*UserMessage)

// WithStack attaches a stack trace. Long traces are truncated.
func WithStack(stack string) MessageOption {
	return func(m *UserMessage) { m.Stack = stack }
}

// WithGoroutineStack attaches the calling goroutine's stack.
func WithGoroutineStack() MessageOption {
	stack := string(debug.Stack())
	return func(m *UserMessage) { m.Stack = stack }
}

// WithUserID attaches a string user id.
func WithUserID(id string) MessageOption {
	return func(m *UserMessage) { m.UserID = StringUserID(id) }
}

// WithNumericUserID attaches a numeric user id.
func WithNumericUserID(id int64) MessageOption {
	return func(m *UserMessage) { m.UserID = NumericUserID(id) }
}

// WithUsername attaches a username or email.
func WithUsername(name string) MessageOption {
	return func(m *UserMessage) { m.Username = name }
}

func newUserMessage(text string, opts []MessageOption) UserMessage {
	m := UserMessage{Message: text}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}
