package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1 // span start
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd // span end
	// KindPoint represents an instant event.
	KindPoint     // instant event
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent higher-level/coarser events.
type Scope uint8

const (
	// ScopeDriver represents load, parse and the whole lint run.
	ScopeDriver Scope = iota + 1
	// ScopeRule represents one rule over the whole unit.
	ScopeRule
	// ScopeFile represents one rule over one file.
	ScopeFile
	ScopeNode // handler level (most detailed)
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeRule:
		return "rule"
	case ScopeFile:
		return "file"
	case ScopeNode:
		return "node"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	GID      uint64            // goroutine ID (for concurrent spans)
	Name     string            // e.g., "parse", "rule:prefer-optional-chain", "file:src/a.ts"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}

// Keys of Event.Extra set by the driver.
const (
	// ExtraRule names the rule a file or aggregate span belongs to.
	ExtraRule = "rule"
	// ExtraError holds the error of a failed span, see Span.Fail.
	ExtraError = "error"
)

// Failed reports whether ev ends a span that failed.
func (ev *Event) Failed() bool {
	return ev.Kind == KindSpanEnd && ev.Extra[ExtraError] != ""
}
