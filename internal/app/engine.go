package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/chronicler/internal/domain"
	"github.com/bft-labs/chronicler/internal/ports"
	"github.com/bft-labs/chronicler/pkg/log"
)

// Default engine configuration values.
const (
	DefaultMaxBuffer  = 5
	DefaultFlushDelay = 20 * time.Second
	DefaultInboxSize  = 1024
)

// Trigger names the reason a flush started.
type Trigger int

const (
	TriggerSize Trigger = iota
	TriggerSeverity
	TriggerIdle
	TriggerWindowClosed
	TriggerShutdown
)

func (t Trigger) String() string {
	switch t {
	case TriggerSize:
		return "size"
	case TriggerSeverity:
		return "severity"
	case TriggerIdle:
		return "idle"
	case TriggerWindowClosed:
		return "window-closed"
	case TriggerShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// EngineConfig tunes the flush policy and delivery retries.
type EngineConfig struct {
	// MaxBuffer is the pending record count that forces a flush.
	MaxBuffer int

	// FlushDelay is how long a low-severity record may wait for company.
	FlushDelay time.Duration

	// MaxAttempts bounds delivery attempts per record.
	MaxAttempts int

	// RetryStep is multiplied by the failed attempt number to get the
	// wait before the next attempt.
	RetryStep time.Duration

	// StackLimit is the number of stack characters kept; negative keeps all.
	StackLimit int

	// HighSeverity is the lowest severity value that forces a flush.
	HighSeverity int

	// DefaultKey is used when a message carries no key.
	DefaultKey string

	// InboxSize is the capacity of the message queue.
	InboxSize int
}

// DefaultEngineConfig returns the stock flush policy.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxBuffer:    DefaultMaxBuffer,
		FlushDelay:   DefaultFlushDelay,
		MaxAttempts:  DefaultMaxAttempts,
		RetryStep:    DefaultRetryStep,
		StackLimit:   domain.DefaultStackLimit,
		HighSeverity: domain.HighSeverity,
		DefaultKey:   domain.DefaultKey,
		InboxSize:    DefaultInboxSize,
	}
}

// SetDefaults fills zero values from DefaultEngineConfig.
func (c *EngineConfig) SetDefaults() {
	d := DefaultEngineConfig()
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
	if c.HighSeverity <= 0 {
		c.HighSeverity = d.HighSeverity
	}
	if c.DefaultKey == "" {
		c.DefaultKey = d.DefaultKey
	}
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
}

// DeliveryEventEmitter observes flushes. OnRecordDropped is called from
// delivery goroutines, so implementations must be safe for concurrent use.
type DeliveryEventEmitter interface {
	OnFlush(flushID string, trigger Trigger, count int)
	OnFlushSettled(flushID string, delivered, dropped int)
	OnRecordDropped(rec domain.LogRecord, attempts int)
}

type settlement struct {
	id        string
	delivered int
	dropped   int
}

// Engine buffers records and flushes them to the collector.
//
// All buffer, in-flight and timer state is owned by the goroutine running
// Run; other goroutines talk to it through Post only.
type Engine struct {
	config  EngineConfig
	sender  ports.RecordSender
	logger  log.Logger
	emitter DeliveryEventEmitter
	backoff *backoff
	now     func() time.Time

	inbox    chan domain.Message
	settled  chan settlement
	stopping chan struct{}
	done     chan struct{}

	// closed is set under mu once no more messages may enter the inbox.
	mu     sync.RWMutex
	closed bool

	buffer    *domain.Buffer
	inflight  map[string]int
	timer     *time.Timer
	timerC    <-chan time.Time
	timerDest ports.Destination
	lastDest  ports.Destination

	pending atomic.Int64
	held    atomic.Int64

	// deliveries counts delivery and settle-watcher goroutines.
	deliveries sync.WaitGroup
}

// NewEngine creates an engine. Call Run exactly once to start it.
func NewEngine(config EngineConfig, sender ports.RecordSender, logger log.Logger, emitter DeliveryEventEmitter) *Engine {
	config.SetDefaults()
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Engine{
		config:   config,
		sender:   sender,
		logger:   logger,
		emitter:  emitter,
		backoff:  newBackoff(config.RetryStep),
		now:      time.Now,
		inbox:    make(chan domain.Message, config.InboxSize),
		settled:  make(chan settlement),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		buffer:   domain.NewBuffer(),
		inflight: make(map[string]int),
	}
}

// Post hands a message to the engine. It never waits for delivery.
// Messages posted before Run starts are queued.
func (e *Engine) Post(msg domain.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return domain.ErrNotRunning
	}
	select {
	case e.inbox <- msg:
		return nil
	case <-e.stopping:
		return domain.ErrNotRunning
	}
}

// Run processes messages, timer fires and flush settlements one at a
// time until ctx is cancelled. On cancellation it stops accepting
// messages, handles those already queued and flushes whatever is still
// pending. Deliveries in flight are not cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.stopTimer()

	deliveryCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			e.shutdown(deliveryCtx)
			return ctx.Err()

		case msg := <-e.inbox:
			e.handle(deliveryCtx, msg)

		case <-e.timerC:
			e.timer, e.timerC = nil, nil
			e.flush(deliveryCtx, e.timerDest, TriggerIdle)

		case s := <-e.settled:
			e.settle(s)
		}
	}
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Pending returns the number of records waiting for the next flush.
func (e *Engine) Pending() int {
	return int(e.pending.Load())
}

// Held returns pending plus in-flight records. It drops to zero once
// every flush has settled.
func (e *Engine) Held() int {
	return int(e.held.Load())
}

// WaitIdle waits for in-flight deliveries. Call it after Run has returned.
func (e *Engine) WaitIdle(timeout time.Duration) error {
	idle := make(chan struct{})
	go func() {
		e.deliveries.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-time.After(timeout):
		e.logger.Warn("deliveries still in flight at shutdown",
			log.Int("records", e.Held()),
			log.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}

func (e *Engine) shutdown(ctx context.Context) {
	// Release blocked senders, then wait out those holding the read lock.
	close(e.stopping)
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.drain(ctx)

	dest := e.lastDest
	if e.timer != nil {
		dest = e.timerDest
	}
	e.stopTimer()
	e.flush(ctx, dest, TriggerShutdown)
}

func (e *Engine) drain(ctx context.Context) {
	for {
		select {
		case msg := <-e.inbox:
			e.handle(ctx, msg)
		default:
			return
		}
	}
}

func (e *Engine) handle(ctx context.Context, msg domain.Message) {
	dest := ports.Destination{URL: msg.URL, Key: msg.Key}
	if dest.Key == "" {
		dest.Key = e.config.DefaultKey
	}

	if msg.Record != nil {
		e.buffer.Append(domain.NewLogRecord(*msg.Record, e.now(), e.config.StackLimit))
		e.pending.Store(int64(e.buffer.Len()))
		e.held.Add(1)
		e.lastDest = dest
	}

	switch {
	case msg.WindowClosed:
		e.stopTimer()
		e.flush(ctx, dest, TriggerWindowClosed)
	case msg.Record == nil:
	case e.buffer.Len() >= e.config.MaxBuffer:
		e.stopTimer()
		e.flush(ctx, dest, TriggerSize)
	case msg.Record.Severity.Value >= e.config.HighSeverity:
		e.stopTimer()
		e.flush(ctx, dest, TriggerSeverity)
	case e.timer == nil:
		e.timer = time.NewTimer(e.config.FlushDelay)
		e.timerC = e.timer.C
		e.timerDest = dest
	}
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer, e.timerC = nil, nil
}

func (e *Engine) flush(ctx context.Context, dest ports.Destination, trigger Trigger) {
	if e.buffer.Empty() {
		return
	}

	records := e.buffer.Detach()
	e.pending.Store(0)

	id := uuid.NewString()
	e.inflight[id] = len(records)

	e.logger.Debug("flushing records",
		log.String("flush", id),
		log.Stringer("trigger", trigger),
		log.Int("records", len(records)),
	)
	if e.emitter != nil {
		e.emitter.OnFlush(id, trigger, len(records))
	}

	var wg sync.WaitGroup
	var delivered atomic.Int64
	for _, rec := range records {
		wg.Add(1)
		e.deliveries.Add(1)
		go func(rec domain.LogRecord) {
			defer e.deliveries.Done()
			defer wg.Done()
			if e.deliver(ctx, rec, dest) {
				delivered.Add(1)
			}
		}(rec)
	}

	e.deliveries.Add(1)
	go func() {
		defer e.deliveries.Done()
		wg.Wait()

		n := int(delivered.Load())
		s := settlement{id: id, delivered: n, dropped: len(records) - n}
		select {
		case e.settled <- s:
		case <-e.done:
			// Run has returned; nobody owns the in-flight map any more.
			e.held.Add(-int64(len(records)))
			e.emitSettled(s)
		}
	}()
}

func (e *Engine) deliver(ctx context.Context, rec domain.LogRecord, dest ports.Destination) bool {
	for attempt := 1; ; attempt++ {
		err := e.sender.Send(ctx, rec, dest)
		if err == nil {
			return true
		}
		if attempt >= e.config.MaxAttempts {
			e.logger.Error("failed logging this message",
				log.String("record", rec.Message),
				log.Int("attempts", attempt),
				log.Err(err),
			)
			if e.emitter != nil {
				e.emitter.OnRecordDropped(rec, attempt)
			}
			return false
		}
		e.logger.Debug("delivery failed, retrying",
			log.Int("attempt", attempt),
			log.Duration("delay", e.backoff.Delay(attempt)),
			log.Err(err),
		)
		e.backoff.Sleep(attempt)
	}
}

func (e *Engine) settle(s settlement) {
	count := e.inflight[s.id]
	delete(e.inflight, s.id)
	e.held.Add(-int64(count))
	e.emitSettled(s)
}

func (e *Engine) emitSettled(s settlement) {
	e.logger.Debug("flush settled",
		log.String("flush", s.id),
		log.Int("delivered", s.delivered),
		log.Int("dropped", s.dropped),
	)
	if e.emitter != nil {
		e.emitter.OnFlushSettled(s.id, s.delivered, s.dropped)
	}
}
