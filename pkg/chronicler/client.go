package chronicler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	httpAdapter "github.com/bft-labs/chronicler/internal/adapters/http"
	"github.com/bft-labs/chronicler/internal/app"
	"github.com/bft-labs/chronicler/internal/domain"
	"github.com/bft-labs/chronicler/internal/ports"
	"github.com/bft-labs/chronicler/pkg/log"
)

// Client reports log records to a collector. Use New to create one, then
// Start to run its batching engine.
type Client struct {
	config    Config
	opts      options
	logger    log.Logger
	emitter   *eventEmitterWrapper
	lifecycle *app.Lifecycle
	sender    *httpAdapter.Sender

	logURL  string
	formURL string
	page    string

	mu     sync.RWMutex
	engine *app.Engine
}

// New creates a Client in StateStopped. Records logged before Start are
// queued and handled once the engine runs.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{httpClient: &http.Client{Timeout: cfg.HTTPTimeout}}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	c := &Client{
		config:    cfg,
		opts:      o,
		logger:    logger,
		emitter:   emitter,
		lifecycle: app.NewLifecycle(logger, emitter),
		sender:    httpAdapter.NewSender(o.httpClient, logger),
		page:      cfg.Page,
	}
	if !cfg.Disable {
		c.logURL = cfg.LogURL()
		c.formURL = cfg.FormURL()
	}
	if c.page == "" {
		c.page = defaultPage()
	}
	c.engine = c.newEngine()
	return c, nil
}

func (c *Client) newEngine() *app.Engine {
	return app.NewEngine(c.config.engineConfig(), c.sender, c.logger, c.emitter)
}

// Start runs the batching engine in the background until Stop is called
// or ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	if c.config.Disable {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	select {
	case <-c.engine.Done():
		c.engine = c.newEngine()
	default:
	}
	engine := c.engine

	runCtx, cancel := context.WithCancel(ctx)
	c.lifecycle.SetCancel(cancel)

	c.lifecycle.Go(func() {
		err := engine.Run(runCtx)
		c.logger.Debug("engine stopped", log.Err(err))
	})

	return c.lifecycle.TransitionTo(app.StateRunning, "engine started")
}

// Stop flushes pending records, stops the engine and waits up to
// Config.ShutdownTimeout for deliveries in flight. Returns
// ErrShutdownTimeout if they did not finish in time.
func (c *Client) Stop() error {
	if c.config.Disable {
		return nil
	}

	c.mu.Lock()
	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	engine := c.engine
	c.mu.Unlock()

	if err := engine.Post(c.windowClosed()); err != nil {
		c.logger.Debug("unload flush skipped", log.Err(err))
	}
	c.lifecycle.Cancel()

	deadline := time.Now().Add(c.config.ShutdownTimeout)
	err := c.lifecycle.WaitWithTimeout(c.config.ShutdownTimeout)
	if err == nil {
		err = engine.WaitIdle(time.Until(deadline))
	}

	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = c.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
func (c *Client) Status() State {
	return c.lifecycle.State()
}

// Held returns the number of records pending or in flight.
func (c *Client) Held() int {
	return c.currentEngine().Held()
}

// Unload flushes everything pending immediately without stopping the
// client, as when the hosting window closes.
func (c *Client) Unload() error {
	if c.config.Disable {
		return nil
	}
	return c.currentEngine().Post(c.windowClosed())
}

// Log reports one record. It returns once the record is queued; delivery
// happens in the background.
func (c *Client) Log(sev Severity, msg UserMessage) error {
	if c.config.Disable {
		return nil
	}

	rec := &domain.InboundRecord{
		Message:  msg.Message,
		Stack:    msg.Stack,
		Page:     c.resolvePage(),
		UserID:   msg.UserID,
		Username: msg.Username,
		Severity: sev,
	}
	if rec.UserID == nil && c.opts.userID != nil {
		rec.UserID = c.opts.userID()
	}
	if rec.Username == "" && c.opts.username != nil {
		rec.Username = c.opts.username()
	}

	return c.currentEngine().Post(domain.Message{
		Record: rec,
		URL:    c.logURL,
		Key:    c.config.Key,
	})
}

// Info reports an informational record.
func (c *Client) Info(text string, opts ...MessageOption) {
	c.report(SeverityInfo, text, opts)
}

// Warning reports a warning.
func (c *Client) Warning(text string, opts ...MessageOption) {
	c.report(SeverityWarning, text, opts)
}

// Error reports an error. It is flushed without waiting for more records.
func (c *Client) Error(text string, opts ...MessageOption) {
	c.report(SeverityError, text, opts)
}

// Fatal reports a fatal error. It is flushed without waiting for more
// records.
func (c *Client) Fatal(text string, opts ...MessageOption) {
	c.report(SeverityFatal, text, opts)
}

func (c *Client) report(sev Severity, text string, opts []MessageOption) {
	if err := c.Log(sev, newUserMessage(text, opts)); err != nil {
		c.logger.Debug("record not queued", log.String("severity", sev.Name), log.Err(err))
	}
}

// Forward hands an already formed message to the engine. An empty URL or
// key is replaced by the configured one.
func (c *Client) Forward(msg Message) error {
	if c.config.Disable {
		return nil
	}
	if msg.URL == "" {
		msg.URL = c.logURL
	}
	if msg.Key == "" {
		msg.Key = c.config.Key
	}
	return c.currentEngine().Post(msg)
}

// SendUserErrorForm uploads a user-written error report right away,
// bypassing the batching engine. An empty Page is filled in.
func (c *Client) SendUserErrorForm(ctx context.Context, form UserErrorForm) error {
	if c.config.Disable {
		return nil
	}
	if c.formURL == "" {
		return fmt.Errorf("%w: no form endpoint configured", domain.ErrInvalidConfig)
	}
	if form.Page == "" {
		form.Page = c.resolvePage()
	}

	key := c.config.Key
	if key == "" {
		key = domain.DefaultKey
	}
	err := c.sender.SendReport(ctx, form, ports.Destination{URL: c.formURL, Key: key})
	if err != nil {
		c.logger.Error("failed to upload user error form", log.Err(err))
		return err
	}
	return nil
}

func (c *Client) currentEngine() *app.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine
}

func (c *Client) windowClosed() domain.Message {
	return domain.Message{URL: c.logURL, WindowClosed: true, Key: c.config.Key}
}

func (c *Client) resolvePage() string {
	if c.opts.page != nil {
		if p := c.opts.page(); p != "" {
			return p
		}
	}
	return c.page
}

// defaultPage names the running program as app://<hostname>/<executable>.
func defaultPage() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	exe := "unknown"
	if path, err := os.Executable(); err == nil {
		exe = filepath.Base(path)
	}
	return "app://" + host + "/" + exe
}
