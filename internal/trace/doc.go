// Package trace records what the lint driver is doing: load, parse, each
// rule, each file, and optionally each handler call.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	tslint lint --trace=- --trace-level=phase src/
//
// # Architecture
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer plus the failed rule and file spans
//     (defects), dumped after the run
//   - MultiTracer: combines multiple tracers
//   - Heartbeat: liveness events and "stalled:" points for a rule or file
//     span that stays open for ten intervals
//
// # Levels and scopes
//
//   - LevelPhase: ScopeDriver and ScopeRule events
//   - LevelDetail: adds ScopeFile (one rule over one file)
//   - LevelDebug: adds ScopeNode
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeDriver, "session", 0)
//	ctx = trace.WithParent(ctx, span)
//	defer span.End("")
//
// A span that ends with span.Fail(err) is kept by the ring as a Defect.
package trace
