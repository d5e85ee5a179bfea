package chronicler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type received struct {
	path string
	key  string
	body map[string]interface{}
}

// collector is a fake ingestion server.
type collector struct {
	*httptest.Server
	got chan received
}

func newCollector(t *testing.T) *collector {
	t.Helper()
	c := &collector{got: make(chan received, 64)}
	c.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		c.got <- received{path: r.URL.Path, key: r.Header.Get("X-Log"), body: body}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(c.Close)
	return c
}

func (c *collector) next(t *testing.T) received {
	t.Helper()
	select {
	case r := <-c.got:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a request")
		return received{}
	}
}

func (c *collector) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case r := <-c.got:
		t.Fatalf("unexpected request: %+v", r.body)
	case <-time.After(wait):
	}
}

func startClient(t *testing.T, cfg Config, opts ...Option) *Client {
	t.Helper()
	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if c.Status() == StateRunning {
			_ = c.Stop()
		}
	})
	return c
}

func TestClient_ErrorFlushesImmediately(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL + "/", Page: "app://test/page"})

	c.Error("boom", WithStack("at main()"), WithUserID("u-1"), WithUsername("ann@example.com"))

	r := srv.next(t)
	if r.path != DefaultLogPath {
		t.Errorf("path = %q, want %q", r.path, DefaultLogPath)
	}
	if r.key != "krikszkraksz" {
		t.Errorf("X-Log = %q, want default key", r.key)
	}
	want := map[string]interface{}{
		"message":  "boom",
		"stack":    "at main()",
		"page":     "app://test/page",
		"userid":   "u-1",
		"username": "ann@example.com",
		"severity": float64(2),
	}
	for k, v := range want {
		if r.body[k] != v {
			t.Errorf("body[%q] = %v, want %v", k, r.body[k], v)
		}
	}
	if _, ok := r.body["timestamp"].(string); !ok {
		t.Errorf("timestamp missing: %v", r.body)
	}
}

func TestClient_InfoWaitsForBatch(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{CustomEndpoint: srv.URL + "/in", Key: "secret", FlushDelay: time.Hour})

	for i := 0; i < 4; i++ {
		c.Info("tick")
	}
	srv.none(t, 100*time.Millisecond)

	c.Warning("fifth")
	for i := 0; i < 5; i++ {
		r := srv.next(t)
		if r.path != "/in" || r.key != "secret" {
			t.Errorf("request %d: path=%q key=%q", i, r.path, r.key)
		}
	}
}

func TestClient_StopFlushesPending(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL, FlushDelay: time.Hour})

	c.Info("left behind")
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	r := srv.next(t)
	if r.body["message"] != "left behind" {
		t.Errorf("message = %v", r.body["message"])
	}
	if c.Status() != StateStopped {
		t.Errorf("Status() = %v, want Stopped", c.Status())
	}
	if c.Held() != 0 {
		t.Errorf("Held() = %d after Stop", c.Held())
	}
}

func TestClient_CancelledStartContextStillFlushes(t *testing.T) {
	srv := newCollector(t)
	c, err := New(Config{BaseEndpoint: srv.URL, FlushDelay: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	c.Info("pending at interrupt")
	cancel()

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if r := srv.next(t); r.body["message"] != "pending at interrupt" {
		t.Errorf("message = %v", r.body["message"])
	}
	if c.Held() != 0 {
		t.Errorf("Held() = %d after Stop", c.Held())
	}
}

func TestClient_UnloadFlushesWithoutStopping(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL, FlushDelay: time.Hour})

	c.Info("one")
	if err := c.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	srv.next(t)

	if c.Status() != StateRunning {
		t.Errorf("Status() = %v, want Running", c.Status())
	}
}

func TestClient_ResolverFunctions(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL},
		WithUserIDFunc(func() *UserID { return NumericUserID(7) }),
		WithUsernameFunc(func() string { return "resolved" }),
		WithPageFunc(func() string { return "/settings" }),
	)

	c.Error("from resolvers")
	r := srv.next(t)
	if r.body["userid"] != float64(7) {
		t.Errorf("userid = %#v, want number 7", r.body["userid"])
	}
	if r.body["username"] != "resolved" || r.body["page"] != "/settings" {
		t.Errorf("body = %v", r.body)
	}

	c.Error("explicit", WithNumericUserID(9), WithUsername("explicit"))
	r = srv.next(t)
	if r.body["userid"] != float64(9) || r.body["username"] != "explicit" {
		t.Errorf("explicit identity not kept: %v", r.body)
	}
}

func TestClient_DefaultPage(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL})

	c.Fatal("no page")
	r := srv.next(t)
	page, _ := r.body["page"].(string)
	if !strings.HasPrefix(page, "app://") {
		t.Errorf("page = %q, want app:// prefix", page)
	}
	if r.body["severity"] != float64(99) {
		t.Errorf("severity = %v, want 99", r.body["severity"])
	}
}

func TestClient_Forward(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL, Key: "k1"})

	err := c.Forward(Message{Record: &InboundRecord{
		Message:  "forwarded",
		Page:     "cli",
		Severity: SeverityError,
	}})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	r := srv.next(t)
	if r.path != DefaultLogPath || r.key != "k1" {
		t.Errorf("path=%q key=%q", r.path, r.key)
	}

	if err := c.Forward(Message{}); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Forward(empty) error = %v, want ErrInvalidMessage", err)
	}
}

func TestClient_Disabled(t *testing.T) {
	c, err := New(Config{Disable: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Error("ignored")
	if err := c.Log(SeverityFatal, UserMessage{Message: "ignored"}); err != nil {
		t.Errorf("Log() error = %v", err)
	}
	if err := c.SendUserErrorForm(context.Background(), UserErrorForm{Title: "t"}); err != nil {
		t.Errorf("SendUserErrorForm() error = %v", err)
	}
	if c.Held() != 0 {
		t.Errorf("Held() = %d, want 0", c.Held())
	}
	if err := c.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestClient_Lifecycle(t *testing.T) {
	srv := newCollector(t)
	c, err := New(Config{BaseEndpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() before Start error = %v, want ErrNotRunning", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := c.Log(SeverityError, UserMessage{Message: "late"}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Log() after Stop error = %v, want ErrNotRunning", err)
	}

	// A stopped client can be started again with a fresh engine.
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	c.Error("after restart")
	if r := srv.next(t); r.body["message"] != "after restart" {
		t.Errorf("message = %v", r.body["message"])
	}
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestClient_QueuedBeforeStart(t *testing.T) {
	srv := newCollector(t)
	c, err := New(Config{BaseEndpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	c.Error("early")
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	if r := srv.next(t); r.body["message"] != "early" {
		t.Errorf("message = %v", r.body["message"])
	}
}

func TestClient_SendUserErrorForm(t *testing.T) {
	srv := newCollector(t)
	c, err := New(Config{BaseEndpoint: srv.URL, Page: "/checkout"})
	if err != nil {
		t.Fatal(err)
	}

	err = c.SendUserErrorForm(context.Background(), UserErrorForm{Title: "Broken", Body: "The button does nothing"})
	if err != nil {
		t.Fatalf("SendUserErrorForm() error = %v", err)
	}

	r := srv.next(t)
	if r.path != DefaultFormPath {
		t.Errorf("path = %q, want %q", r.path, DefaultFormPath)
	}
	if r.body["title"] != "Broken" || r.body["body"] != "The button does nothing" || r.body["page"] != "/checkout" {
		t.Errorf("body = %v", r.body)
	}
}

func TestClient_SendUserErrorForm_NoFormEndpoint(t *testing.T) {
	c, err := New(Config{CustomEndpoint: "http://127.0.0.1:1/in"})
	if err != nil {
		t.Fatal(err)
	}
	err = c.SendUserErrorForm(context.Background(), UserErrorForm{Title: "t"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

type errorLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (*errorLogger) Debug(string, ...Field) {}
func (*errorLogger) Info(string, ...Field)  {}
func (*errorLogger) Warn(string, ...Field)  {}
func (l *errorLogger) Error(msg string, _ ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func TestClient_SendUserErrorForm_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	logger := &errorLogger{}
	c, err := New(Config{BaseEndpoint: url}, WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendUserErrorForm(context.Background(), UserErrorForm{Title: "t"}); err == nil {
		t.Fatal("expected error from closed server")
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.msgs) != 1 || logger.msgs[0] != "failed to upload user error form" {
		t.Errorf("logged %v", logger.msgs)
	}
}

type recordingHandler struct {
	BaseEventHandler
	mu      sync.Mutex
	states  []State
	flushes []FlushEvent
	settled chan FlushSettledEvent
}

func (h *recordingHandler) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, e.Current)
}

func (h *recordingHandler) OnFlush(e FlushEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushes = append(h.flushes, e)
}

func (h *recordingHandler) OnFlushSettled(e FlushSettledEvent) {
	h.settled <- e
}

func TestClient_EventHandler(t *testing.T) {
	srv := newCollector(t)
	h := &recordingHandler{settled: make(chan FlushSettledEvent, 4)}
	c := startClient(t, Config{BaseEndpoint: srv.URL}, WithEventHandler(h))

	c.Error("observed")
	srv.next(t)

	var settled FlushSettledEvent
	select {
	case settled = <-h.settled:
	case <-time.After(5 * time.Second):
		t.Fatal("no settle event")
	}
	if settled.Delivered != 1 || settled.Dropped != 0 {
		t.Errorf("settled = %+v", settled)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.flushes) != 1 || h.flushes[0].Trigger != "severity" || h.flushes[0].FlushID != settled.FlushID {
		t.Errorf("flushes = %+v", h.flushes)
	}
	if len(h.states) < 2 || h.states[0] != StateStarting || h.states[1] != StateRunning {
		t.Errorf("states = %v", h.states)
	}
}
