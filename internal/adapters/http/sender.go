package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bft-labs/chronicler/internal/domain"
	"github.com/bft-labs/chronicler/internal/ports"
	"github.com/bft-labs/chronicler/pkg/log"
)

// HeaderKey carries the collector key on every request.
const HeaderKey = "X-Log"

// Sender implements ports.RecordSender and ports.ReportSender over HTTP.
type Sender struct {
	client ports.HTTPClient
	logger log.Logger
}

// NewSender creates a new HTTP sender.
func NewSender(client ports.HTTPClient, logger log.Logger) *Sender {
	return &Sender{
		client: client,
		logger: logger,
	}
}

// Send posts one record as its JSON body.
//
// Only a transport failure is reported. The collector's status code is
// not inspected: a 4xx or 5xx answer still counts as delivered.
func (s *Sender) Send(ctx context.Context, rec domain.LogRecord, dest ports.Destination) error {
	return s.post(ctx, rec, dest)
}

// SendReport posts a user error form.
func (s *Sender) SendReport(ctx context.Context, form domain.UserErrorForm, dest ports.Destination) error {
	return s.post(ctx, form, dest)
}

func (s *Sender) post(ctx context.Context, payload interface{}, dest ports.Destination) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderKey, dest.Key)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		s.logger.Debug("collector answered with non-success status",
			log.Int("status", resp.StatusCode),
			log.String("url", dest.URL),
		)
	}
	return nil
}
