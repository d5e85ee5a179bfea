package chronicler

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bft-labs/chronicler/internal/domain"
)

// Attribute keys lifted out of slog records into record fields.
const (
	AttrStack    = "stack"
	AttrUserID   = "userid"
	AttrUsername = "username"
)

// Handler is a slog.Handler that reports through a Client. Attributes
// other than stack, userid and username are appended to the message as
// key=value pairs.
type Handler struct {
	client *Client
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// Handler returns a slog.Handler reporting records at or above level.
func (c *Client) Handler(level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{client: c, level: level}
}

// SeverityForLevel maps a slog level onto a severity.
func SeverityForLevel(l slog.Level) Severity {
	switch {
	case l > slog.LevelError:
		return SeverityFatal
	case l >= slog.LevelError:
		return SeverityError
	case l >= slog.LevelWarn:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return !h.client.config.Disable && level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	msg := UserMessage{Message: r.Message}
	var b strings.Builder
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		addAttr(&msg, &b, "", a)
	}
	prefix := h.prefix()
	r.Attrs(func(a slog.Attr) bool {
		addAttr(&msg, &b, prefix, a)
		return true
	})

	msg.Message = b.String()
	return h.client.Log(SeverityForLevel(r.Level), msg)
}

func (h *Handler) prefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

// addAttr lifts well-known top-level attributes into msg and renders the
// rest into b.
func addAttr(msg *UserMessage, b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		// An empty group key inlines its members.
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			addAttr(msg, b, inner, ga)
		}
		return
	}

	if prefix == "" {
		switch a.Key {
		case AttrStack:
			msg.Stack = a.Value.String()
			return
		case AttrUserID:
			switch a.Value.Kind() {
			case slog.KindInt64:
				msg.UserID = NumericUserID(a.Value.Int64())
			case slog.KindUint64:
				msg.UserID = domain.NumberUserID(json.Number(strconv.FormatUint(a.Value.Uint64(), 10)))
			default:
				msg.UserID = StringUserID(a.Value.String())
			}
			return
		case AttrUsername:
			msg.Username = a.Value.String()
			return
		}
	}

	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	if a.Value.Kind() == slog.KindString {
		b.WriteString(strconv.Quote(a.Value.String()))
	} else {
		b.WriteString(a.Value.String())
	}
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	prefix := h.prefix()
	for _, a := range attrs {
		a.Key = prefix + a.Key
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}
