package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the wall-clock format stamped on every LogRecord.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultStackLimit is the number of characters of a stack trace kept.
const DefaultStackLimit = 500

// LogRecord is the unit buffered by the engine and posted to the collector.
type LogRecord struct {
	Severity  int     `json:"severity"`
	Message   string  `json:"message"`
	Stack     string  `json:"stack,omitempty"`
	Page      string  `json:"page"`
	UserID    *UserID `json:"userid,omitempty"`
	Username  string  `json:"username,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// NewLogRecord converts an inbound record at receipt time. The stack is
// cut to stackLimit characters; stackLimit <= 0 keeps it whole.
func NewLogRecord(in InboundRecord, receivedAt time.Time, stackLimit int) LogRecord {
	return LogRecord{
		Severity:  in.Severity.Value,
		Message:   in.Message,
		Stack:     TruncateStack(in.Stack, stackLimit),
		Page:      in.Page,
		UserID:    in.UserID,
		Username:  in.Username,
		Timestamp: receivedAt.Local().Format(TimestampLayout),
	}
}

// TruncateStack returns the first limit characters of stack.
func TruncateStack(stack string, limit int) string {
	if limit <= 0 || len(stack) <= limit {
		return stack
	}
	n := 0
	for i := range stack {
		if n == limit {
			return stack[:i]
		}
		n++
	}
	return stack
}

func wrapInvalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, reason)
}
