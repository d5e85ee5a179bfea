package domain

import "strings"

// HighSeverity is the lowest severity value that forces an immediate flush.
const HighSeverity = 2

// Severity is the ordinal level of a log event.
// Name is informational; only Value drives engine decisions.
type Severity struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Known severities shared between the facade and the engine.
var (
	SeverityInfo    = Severity{Name: "info", Value: 0}
	SeverityWarning = Severity{Name: "warning", Value: 1}
	SeverityError   = Severity{Name: "error", Value: 2}
	SeverityFatal   = Severity{Name: "fatal", Value: 99}
)

// IsHigh reports whether s is error or above.
func (s Severity) IsHigh() bool {
	return s.Value >= HighSeverity
}

func (s Severity) String() string {
	if s.Name != "" {
		return s.Name
	}
	return "unknown"
}

// ParseSeverity resolves a severity by name. It accepts "warn" as an alias
// for warning and is case-insensitive.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return SeverityInfo, true
	case "warning", "warn":
		return SeverityWarning, true
	case "error", "err":
		return SeverityError, true
	case "fatal":
		return SeverityFatal, true
	default:
		return Severity{}, false
	}
}
