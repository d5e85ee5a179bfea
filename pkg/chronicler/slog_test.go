package chronicler

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"
)

func TestSeverityForLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  Severity
	}{
		{slog.LevelDebug, SeverityInfo},
		{slog.LevelInfo, SeverityInfo},
		{slog.LevelWarn, SeverityWarning},
		{slog.LevelError, SeverityError},
		{slog.LevelError + 4, SeverityFatal},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := SeverityForLevel(tt.level); got != tt.want {
				t.Errorf("SeverityForLevel(%v) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestHandler_LiftsAttributes(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL})

	logger := slog.New(c.Handler(slog.LevelInfo)).With("component", "billing")
	logger.Error("charge failed",
		"stack", "at charge()",
		"userid", 42,
		"username", "ann",
		"amount", 12,
	)

	r := srv.next(t)
	if got, want := r.body["message"], `charge failed component="billing" amount=12`; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
	if r.body["stack"] != "at charge()" {
		t.Errorf("stack = %v", r.body["stack"])
	}
	if r.body["userid"] != float64(42) {
		t.Errorf("userid = %#v, want 42", r.body["userid"])
	}
	if r.body["username"] != "ann" {
		t.Errorf("username = %v", r.body["username"])
	}
	if r.body["severity"] != float64(2) {
		t.Errorf("severity = %v", r.body["severity"])
	}
}

func TestHandler_Groups(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL})

	logger := slog.New(c.Handler(nil)).WithGroup("req").With("id", "r1")
	logger.Error("bad request", "userid", "x")

	r := srv.next(t)
	if got, want := r.body["message"], `bad request req.id="r1" req.userid="x"`; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
	if _, ok := r.body["userid"]; ok {
		t.Errorf("grouped userid should not be lifted: %v", r.body)
	}
}

func TestHandler_Enabled(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL, FlushDelay: time.Hour})

	h := c.Handler(slog.LevelWarn)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}

	disabled, err := New(Config{Disable: true})
	if err != nil {
		t.Fatal(err)
	}
	if disabled.Handler(slog.LevelDebug).Enabled(context.Background(), slog.LevelError) {
		t.Error("disabled client handler should not be enabled")
	}
}

func TestHandler_GroupAttrsAreFlattened(t *testing.T) {
	srv := newCollector(t)
	c := startClient(t, Config{BaseEndpoint: srv.URL})

	logger := slog.New(c.Handler(slog.LevelInfo))
	logger.Error("upstream failed",
		slog.Group("http", slog.Int("status", 502), slog.Group("req", slog.String("path", "/pay"))),
		slog.Group("", slog.String("username", "inline")),
	)

	r := srv.next(t)
	if got, want := r.body["message"], `upstream failed http.status=502 http.req.path="/pay"`; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
	if r.body["username"] != "inline" {
		t.Errorf("username = %v, want inline", r.body["username"])
	}
}

func TestAddAttr_UserIDKinds(t *testing.T) {
	tests := []struct {
		name        string
		value       slog.Value
		wantString  string
		wantNumeric bool
	}{
		{"int", slog.IntValue(42), "42", true},
		{"uint above int64", slog.Uint64Value(math.MaxUint64), "18446744073709551615", true},
		{"string", slog.StringValue("u-1"), "u-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg UserMessage
			var b strings.Builder
			addAttr(&msg, &b, "", slog.Attr{Key: AttrUserID, Value: tt.value})

			if msg.UserID == nil {
				t.Fatal("userid not lifted")
			}
			if got := msg.UserID.String(); got != tt.wantString {
				t.Errorf("UserID = %q, want %q", got, tt.wantString)
			}
			if msg.UserID.IsNumeric() != tt.wantNumeric {
				t.Errorf("IsNumeric() = %v, want %v", msg.UserID.IsNumeric(), tt.wantNumeric)
			}
			if b.Len() != 0 {
				t.Errorf("userid rendered into message: %q", b.String())
			}
		})
	}
}
