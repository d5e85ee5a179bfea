// Package jsonl decodes facade-to-engine messages written one JSON object
// per line, the shape a browser worker would receive:
//
//	{"message":{"message":"...","page":"...","severity":{"name":"error","value":2}},"url":"...","key":"..."}
//	{"windowClosed":true,"url":"..."}
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/valyala/fastjson"

	"github.com/bft-labs/chronicler/internal/domain"
)

// MaxLineBytes bounds a single encoded message.
const MaxLineBytes = 1 << 20

// Decoder reads messages from a line-oriented stream.
type Decoder struct {
	scanner *bufio.Scanner
	parser  fastjson.Parser
	line    int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return &Decoder{scanner: s}
}

// Next returns the next message. Blank lines are skipped. It returns
// io.EOF when the stream is exhausted. A malformed line yields an error
// wrapping domain.ErrInvalidMessage; the decoder stays usable.
func (d *Decoder) Next() (domain.Message, error) {
	for d.scanner.Scan() {
		d.line++
		b := bytes.TrimSpace(d.scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		msg, err := Parse(&d.parser, b)
		if err != nil {
			return domain.Message{}, fmt.Errorf("line %d: %w", d.line, err)
		}
		return msg, nil
	}
	if err := d.scanner.Err(); err != nil {
		return domain.Message{}, err
	}
	return domain.Message{}, io.EOF
}

// Parse decodes one message. The url may be empty; callers fill it in.
func Parse(p *fastjson.Parser, b []byte) (domain.Message, error) {
	v, err := p.ParseBytes(b)
	if err != nil {
		return domain.Message{}, invalid("%v", err)
	}
	if v.Type() != fastjson.TypeObject {
		return domain.Message{}, invalid("expected object, got %s", v.Type())
	}

	msg := domain.Message{
		URL:          string(v.GetStringBytes("url")),
		WindowClosed: v.GetBool("windowClosed"),
		Key:          string(v.GetStringBytes("key")),
	}

	inner := v.Get("message")
	if inner == nil || inner.Type() == fastjson.TypeNull {
		if !msg.WindowClosed {
			return domain.Message{}, invalid("message is required unless windowClosed is set")
		}
		return msg, nil
	}

	rec, err := parseRecord(inner)
	if err != nil {
		return domain.Message{}, err
	}
	msg.Record = &rec
	return msg, nil
}

func parseRecord(v *fastjson.Value) (domain.InboundRecord, error) {
	if v.Type() != fastjson.TypeObject {
		return domain.InboundRecord{}, invalid("message must be an object")
	}

	rec := domain.InboundRecord{
		Message:  string(v.GetStringBytes("message")),
		Stack:    string(v.GetStringBytes("stack")),
		Page:     string(v.GetStringBytes("page")),
		Username: string(v.GetStringBytes("username")),
	}

	if id := v.Get("userid"); id != nil {
		switch id.Type() {
		case fastjson.TypeString:
			rec.UserID = domain.StringUserID(string(id.GetStringBytes()))
		case fastjson.TypeNumber:
			rec.UserID = domain.NumberUserID(json.Number(id.String()))
		case fastjson.TypeNull:
		default:
			return domain.InboundRecord{}, invalid("userid must be a string or a number")
		}
	}

	sev, err := parseSeverity(v.Get("severity"))
	if err != nil {
		return domain.InboundRecord{}, err
	}
	rec.Severity = sev
	return rec, nil
}

// parseSeverity accepts {"name","value"}, a bare number or a known name.
func parseSeverity(v *fastjson.Value) (domain.Severity, error) {
	if v == nil {
		return domain.SeverityInfo, nil
	}
	switch v.Type() {
	case fastjson.TypeObject:
		raw := v.Get("value")
		if raw == nil {
			return domain.Severity{}, invalid("severity.value is required")
		}
		value, err := raw.Int()
		if err != nil {
			return domain.Severity{}, invalid("severity.value: %v", err)
		}
		return domain.Severity{Name: string(v.GetStringBytes("name")), Value: value}, nil
	case fastjson.TypeNumber:
		value, err := v.Int()
		if err != nil {
			return domain.Severity{}, invalid("severity: %v", err)
		}
		return domain.Severity{Value: value}, nil
	case fastjson.TypeString:
		sev, ok := domain.ParseSeverity(string(v.GetStringBytes()))
		if !ok {
			return domain.Severity{}, invalid("unknown severity %q", v.GetStringBytes())
		}
		return sev, nil
	default:
		return domain.Severity{}, invalid("severity must be an object, number or name")
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidMessage, fmt.Sprintf(format, args...))
}
