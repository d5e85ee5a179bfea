package ports

import (
	"context"

	"github.com/bft-labs/chronicler/internal/domain"
)

// Destination is where a flush is delivered.
type Destination struct {
	// URL is the full collector endpoint.
	URL string

	// Key is sent in the X-Log header. Callers resolve the default
	// before building a Destination.
	Key string
}

// RecordSender delivers a single record.
type RecordSender interface {
	// Send performs one delivery attempt. It returns an error only when
	// the transport itself failed; any HTTP response counts as delivered.
	Send(ctx context.Context, rec domain.LogRecord, dest Destination) error
}

// ReportSender delivers a user error form.
type ReportSender interface {
	SendReport(ctx context.Context, form domain.UserErrorForm, dest Destination) error
}
