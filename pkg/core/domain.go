// Command and notification entities of the domain.
package core

import "fmt"

// Kind identifies the task a companion command asks the device to perform.
// It is the decoded form of the wire-level task tag.
type Kind int

const (
	// KindUnknown is any tag this core does not recognize. Dispatch
	// surfaces it as a "GB_no_task" notification, never as a fault.
	KindUnknown Kind = iota
	KindFind
	KindNotify
	KindNotifyDelete
	KindAlarm
	KindVibrate
	KindWeather
	KindMusicState
	KindMusicInfo
	KindCall
)

// String returns the wire tag for the kind, or "unknown".
func (k Kind) String() string {
	switch k {
	case KindFind:
		return "find"
	case KindNotify:
		return "notify"
	case KindNotifyDelete:
		return "notify-"
	case KindAlarm:
		return "alarm"
	case KindVibrate:
		return "vibrate"
	case KindWeather:
		return "weather"
	case KindMusicState:
		return "musicstate"
	case KindMusicInfo:
		return "musicinfo"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// Fields holds the non-tag fields of a decoded command.
type Fields map[string]any

// Clone returns a shallow copy. Handlers that need to drop fields (e.g.
// the notification id) work on a copy so the inbound payload stays intact.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

// Int reads an integer field. Transports decode JSON numbers as float64,
// so both representations are accepted.
func (f Fields) Int(key string) (int, error) {
	v, ok := f[key]
	if !ok {
		return 0, fmt.Errorf("field %q: %w", key, ErrMissingField)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("field %q: expected number, got %T", key, v)
	}
}

// Bool reads a boolean field.
func (f Fields) Bool(key string) (bool, error) {
	v, ok := f[key]
	if !ok {
		return false, fmt.Errorf("field %q: %w", key, ErrMissingField)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q: expected bool, got %T", key, v)
	}
	return b, nil
}

// String reads a string field.
func (f Fields) String(key string) (string, error) {
	v, ok := f[key]
	if !ok {
		return "", fmt.Errorf("field %q: %w", key, ErrMissingField)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, v)
	}
	return s, nil
}

// StringOr reads an optional string field with a fallback.
func (f Fields) StringOr(key, fallback string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return fallback
}

// Command is a decoded inbound message: the task kind, the raw tag as
// received, and the remaining fields. The tag is extracted once during
// decoding; Fields never contains it.
type Command struct {
	Kind   Kind
	Tag    string
	Fields Fields
}

// Metadata represents the auxiliary key-value pairs of a notification.
type Metadata map[string]any

// Notification is a pending entry awaiting display, keyed by the id the
// companion assigned. It is exclusively owned by the Store; the viewing
// collaborator only borrows entries it explicitly pops.
type Notification struct {
	ID    int
	Title string
	Body  string
	Extra Metadata
}

// Reserved ids for notifications this core synthesizes itself. They are
// negative so they can never collide with companion-assigned ids.
const (
	IDCall        = -1 // incoming/outgoing call alert
	IDException   = -2 // "GB_except" handler failure report
	IDUnsupported = -3 // "GB_no_task" unsupported tag report
)

// EventType represents the type of change in the notification store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the notification store.
type Event struct {
	Type      EventType
	ID        int
	Timestamp int64 // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s notification %d", e.Type, e.ID)
}

// Diagnostic is the outbound record written to the transport boundary
// when a dispatch fails, serialized there as {"t":"error","msg":...}.
type Diagnostic struct {
	T   string `json:"t"`
	Msg string `json:"msg"`
}

// ErrorDiagnostic builds a failure diagnostic.
func ErrorDiagnostic(msg string) Diagnostic {
	return Diagnostic{T: "error", Msg: msg}
}

// InfoDiagnostic builds an informational diagnostic.
func InfoDiagnostic(msg string) Diagnostic {
	return Diagnostic{T: "info", Msg: msg}
}
