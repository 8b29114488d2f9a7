package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// maxDefects bounds how many failed spans a ring keeps for the post-mortem.
const maxDefects = 64

// Defect is a rule or file span that ended with an error, together with the
// events the ring still held for it when it failed.
type Defect struct {
	Rule   string // rule name, "" for driver spans
	Span   string // e.g. "file:src/a.ts"
	Err    string
	Events []Event // begin, points and end of the failed span
}

// RingTracer keeps the last N events in memory and, separately, a copy of
// every failed rule or file span so that one bad file is not lost once the
// buffer wraps.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	next    int
	wrapped bool
	level   Level
	defects []Defect
	dropped int
}

// NewRingTracer creates a new RingTracer with specified capacity.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

// Emit stores a copy of ev. A failed SpanEnd of ScopeRule or ScopeFile also
// records a Defect.
func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stored := *ev
	if stored.Seq == 0 {
		stored.Seq = NextSeq()
	}
	t.buf[t.next] = stored
	t.next++
	if t.next == len(t.buf) {
		t.next = 0
		t.wrapped = true
	}

	if ev.Failed() && (ev.Scope == ScopeRule || ev.Scope == ScopeFile) {
		t.recordDefect(&stored)
	}
}

// recordDefect must be called with t.mu held.
func (t *RingTracer) recordDefect(end *Event) {
	if len(t.defects) >= maxDefects {
		t.dropped++
		return
	}
	var events []Event
	for _, ev := range t.snapshotLocked() {
		if ev.SpanID == end.SpanID || (ev.ParentID == end.SpanID && ev.Kind == KindPoint) {
			events = append(events, ev)
		}
	}
	t.defects = append(t.defects, Defect{
		Rule:   defectRule(end),
		Span:   end.Name,
		Err:    end.Extra[ExtraError],
		Events: events,
	})
}

func defectRule(ev *Event) string {
	if r := ev.Extra[ExtraRule]; r != "" {
		return r
	}
	if ev.Scope == ScopeRule {
		return strings.TrimPrefix(ev.Name, "rule:")
	}
	return ""
}

// Snapshot returns a copy of all stored events in chronological order.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *RingTracer) snapshotLocked() []Event {
	if !t.wrapped {
		return append([]Event(nil), t.buf[:t.next]...)
	}
	out := make([]Event, 0, len(t.buf))
	out = append(out, t.buf[t.next:]...)
	return append(out, t.buf[:t.next]...)
}

// Defects returns the failed spans recorded so far, oldest first.
func (t *RingTracer) Defects() []Defect {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Defect(nil), t.defects...)
}

// Dump writes all events to the provided writer in the specified format.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	return writeEvents(w, t.Snapshot(), format)
}

// DumpDefects writes each defect as a header line followed by its events.
// In NDJSON the header is left out, every event carries its span name.
func (t *RingTracer) DumpDefects(w io.Writer, format Format) error {
	t.mu.Lock()
	defects := append([]Defect(nil), t.defects...)
	dropped := t.dropped
	t.mu.Unlock()

	for _, d := range defects {
		if format != FormatNDJSON {
			rule := d.Rule
			if rule == "" {
				rule = "-"
			}
			if _, err := fmt.Fprintf(w, "-- defect: rule %s in %s: %s\n", rule, d.Span, d.Err); err != nil {
				return err
			}
		}
		if err := writeEvents(w, d.Events, format); err != nil {
			return err
		}
	}
	if dropped > 0 && format != FormatNDJSON {
		if _, err := fmt.Fprintf(w, "-- %d more defect(s) not kept\n", dropped); err != nil {
			return err
		}
	}
	return nil
}

func writeEvents(w io.Writer, events []Event, format Format) error {
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op for RingTracer since everything is in memory.
func (t *RingTracer) Flush() error {
	return nil
}

// Close is a no-op for RingTracer.
func (t *RingTracer) Close() error {
	return nil
}

// Level returns the current tracing level.
func (t *RingTracer) Level() Level {
	return t.level
}

// Enabled returns true if tracing is active.
func (t *RingTracer) Enabled() bool {
	return t.level > LevelOff
}
