package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/chronicler/internal/domain"
	"github.com/bft-labs/chronicler/internal/ports"
	"github.com/bft-labs/chronicler/pkg/log"
)

// mockLogger records error lines for assertions.
type mockLogger struct {
	mu     sync.Mutex
	errors []string
	fields [][]log.Field
}

func (*mockLogger) Debug(msg string, fields ...log.Field) {}
func (*mockLogger) Info(msg string, fields ...log.Field)  {}
func (*mockLogger) Warn(msg string, fields ...log.Field)  {}

func (m *mockLogger) Error(msg string, fields ...log.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
	m.fields = append(m.fields, fields)
}

// errorField returns the value of key on the i-th error line.
func (m *mockLogger) errorField(i int, key string) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= len(m.fields) {
		return nil
	}
	for _, f := range m.fields[i] {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

func (m *mockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

// mockEmitter tracks lifecycle state changes.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

type flushEvent struct {
	id      string
	trigger Trigger
	count   int
	at      time.Time
}

type settleEvent struct {
	id        string
	delivered int
	dropped   int
}

// deliveryRecorder implements DeliveryEventEmitter over channels.
type deliveryRecorder struct {
	flushes chan flushEvent
	settles chan settleEvent
	dropped chan domain.LogRecord
}

func newDeliveryRecorder() *deliveryRecorder {
	return &deliveryRecorder{
		flushes: make(chan flushEvent, 64),
		settles: make(chan settleEvent, 64),
		dropped: make(chan domain.LogRecord, 64),
	}
}

func (r *deliveryRecorder) OnFlush(id string, trigger Trigger, count int) {
	r.flushes <- flushEvent{id: id, trigger: trigger, count: count, at: time.Now()}
}

func (r *deliveryRecorder) OnFlushSettled(id string, delivered, dropped int) {
	r.settles <- settleEvent{id: id, delivered: delivered, dropped: dropped}
}

func (r *deliveryRecorder) OnRecordDropped(rec domain.LogRecord, attempts int) {
	r.dropped <- rec
}

type sendCall struct {
	rec  domain.LogRecord
	dest ports.Destination
	at   time.Time
}

// fakeSender fails a configurable number of attempts per record message.
type fakeSender struct {
	mu       sync.Mutex
	calls    []sendCall
	failures map[string]int
	block    chan struct{}
}

func newFakeSender() *fakeSender {
	return &fakeSender{failures: make(map[string]int)}
}

// failFirst makes the first n attempts for message fail.
func (s *fakeSender) failFirst(message string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[message] = n
}

func (s *fakeSender) Send(ctx context.Context, rec domain.LogRecord, dest ports.Destination) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sendCall{rec: rec, dest: dest, at: time.Now()})
	if s.failures[rec.Message] > 0 {
		s.failures[rec.Message]--
		return errors.New("connection refused")
	}
	return nil
}

func (s *fakeSender) Calls() []sendCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sendCall{}, s.calls...)
}

func (s *fakeSender) callsFor(message string) []sendCall {
	var out []sendCall
	for _, c := range s.Calls() {
		if c.rec.Message == message {
			out = append(out, c)
		}
	}
	return out
}
