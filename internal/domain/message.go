package domain

// DefaultKey is sent in the X-Log header when a message carries no key.
const DefaultKey = "krikszkraksz"

// InboundRecord is the record the facade hands to the engine. It is
// already stamped with the emitting page and the resolved user identity.
type InboundRecord struct {
	Message  string   `json:"message"`
	Stack    string   `json:"stack,omitempty"`
	Page     string   `json:"page"`
	UserID   *UserID  `json:"userid,omitempty"`
	Username string   `json:"username,omitempty"`
	Severity Severity `json:"severity"`
}

// Message crosses the facade/engine boundary. Record is nil only when
// WindowClosed is set.
type Message struct {
	Record       *InboundRecord `json:"message,omitempty"`
	URL          string         `json:"url"`
	WindowClosed bool           `json:"windowClosed,omitempty"`
	Key          string         `json:"key,omitempty"`
}

// Validate checks the structural contract of a message.
func (m Message) Validate() error {
	if m.URL == "" {
		return wrapInvalid("missing url")
	}
	if m.Record == nil && !m.WindowClosed {
		return wrapInvalid("message is required unless windowClosed is set")
	}
	return nil
}

// AuthKey returns the key to send, falling back to DefaultKey.
func (m Message) AuthKey() string {
	if m.Key == "" {
		return DefaultKey
	}
	return m.Key
}
