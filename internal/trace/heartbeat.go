package trace

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// stallFactor: span открыт дольше stallFactor*interval считается зависшим.
const stallFactor = 10

// Heartbeat wraps a tracer, emits a liveness event every interval and keeps
// track of open rule and file spans. A span still open after ten intervals
// is reported once as a "stalled:<span>" point, which names the rule that
// hangs even when the run never finishes.
type Heartbeat struct {
	next       Tracer
	interval   time.Duration
	stallAfter time.Duration

	mu    sync.Mutex
	open  map[uint64]*openSpan
	beats uint64

	stop     chan struct{}
	done     chan struct{} // nil until the ticker goroutine runs
	stopOnce sync.Once
}

type openSpan struct {
	name    string
	rule    string
	parent  uint64
	started time.Time
	stalled bool
}

// Stall describes a span that has been open for too long.
type Stall struct {
	Name    string
	Rule    string
	Elapsed time.Duration
}

func (s Stall) String() string {
	if s.Rule == "" {
		return fmt.Sprintf("%s open for %s", s.Name, s.Elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("rule %s: %s open for %s", s.Rule, s.Name, s.Elapsed.Round(time.Millisecond))
}

// StartHeartbeat wraps next and starts the ticker goroutine. It returns nil
// when tracing is off or interval is not positive.
func StartHeartbeat(next Tracer, interval time.Duration) *Heartbeat {
	if next == nil || !next.Enabled() || interval <= 0 {
		return nil
	}
	h := newHeartbeat(next, interval)
	h.done = make(chan struct{})
	go h.run()
	return h
}

func newHeartbeat(next Tracer, interval time.Duration) *Heartbeat {
	return &Heartbeat{
		next:       next,
		interval:   interval,
		stallAfter: stallFactor * interval,
		open:       make(map[uint64]*openSpan),
		stop:       make(chan struct{}),
	}
}

func (h *Heartbeat) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			h.beat(now)
		case <-h.stop:
			return
		}
	}
}

// Emit tracks rule and file spans and forwards ev.
func (h *Heartbeat) Emit(ev *Event) {
	h.track(ev)
	h.next.Emit(ev)
}

func (h *Heartbeat) track(ev *Event) {
	if ev.Scope != ScopeRule && ev.Scope != ScopeFile {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	switch ev.Kind {
	case KindSpanBegin:
		rule := ""
		if ev.Scope == ScopeRule {
			rule = strings.TrimPrefix(ev.Name, "rule:")
		}
		h.open[ev.SpanID] = &openSpan{name: ev.Name, rule: rule, parent: ev.ParentID, started: ev.Time}
	case KindSpanEnd:
		delete(h.open, ev.SpanID)
	}
}

// beat emits one heartbeat and a point for every newly stalled span.
func (h *Heartbeat) beat(now time.Time) {
	h.mu.Lock()
	h.beats++
	n, open := h.beats, len(h.open)
	var fresh []Stall
	for _, sp := range h.open {
		if sp.stalled || now.Sub(sp.started) < h.stallAfter {
			continue
		}
		sp.stalled = true
		fresh = append(fresh, Stall{Name: sp.name, Rule: h.ruleOf(sp), Elapsed: now.Sub(sp.started)})
	}
	h.mu.Unlock()

	gid := getGoroutineID()
	h.next.Emit(&Event{
		Time:   now,
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		GID:    gid,
		Name:   "heartbeat",
		Detail: fmt.Sprintf("#%d, %d open", n, open),
	})
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Name < fresh[j].Name })
	for _, st := range fresh {
		h.next.Emit(&Event{
			Time:   now,
			Seq:    NextSeq(),
			Kind:   KindPoint,
			Scope:  ScopeRule,
			GID:    gid,
			Name:   "stalled:" + st.Name,
			Detail: st.String(),
			Extra:  map[string]string{ExtraRule: st.Rule},
		})
	}
}

// ruleOf names the rule of sp: its own, or its parent's for file spans.
func (h *Heartbeat) ruleOf(sp *openSpan) string {
	if sp.rule != "" {
		return sp.rule
	}
	if parent, ok := h.open[sp.parent]; ok {
		return parent.rule
	}
	return ""
}

// Stalled lists spans open longer than the stall threshold at now.
func (h *Heartbeat) Stalled(now time.Time) []Stall {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Stall
	for _, sp := range h.open {
		if now.Sub(sp.started) >= h.stallAfter {
			out = append(out, Stall{Name: sp.name, Rule: h.ruleOf(sp), Elapsed: now.Sub(sp.started)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stop stops the ticker goroutine and waits for it.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		close(h.stop)
		if h.done != nil {
			<-h.done
		}
	})
}

// Flush forwards to the wrapped tracer.
func (h *Heartbeat) Flush() error {
	return h.next.Flush()
}

// Close stops the heartbeat and closes the wrapped tracer.
func (h *Heartbeat) Close() error {
	h.Stop()
	return h.next.Close()
}

// Level returns the wrapped tracer's level.
func (h *Heartbeat) Level() Level {
	return h.next.Level()
}

// Enabled returns true if tracing is active.
func (h *Heartbeat) Enabled() bool {
	return h.next.Enabled()
}
