// Package diag defines the diagnostic model shared by the rule engine and its rules.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings produced by
//     rules and by the engine itself (load, syntax and traversal failures).
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model suggestions as structured edits that the CLI can materialise and
//     optionally apply.
//
// # Scope
//
// Package diag does not perform any formatting, IO or CLI integration.
// Rendering lives in internal/diagfmt, edit application in internal/fix.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Rule and MessageID – which rule reported it and which of its message
//     templates produced Message.
//   - Primary span – the anchor node's span.
//   - Notes – optional secondary spans/messages for additional context.
//   - Suggestions – optional fixes, eager or deferred.
//
// A Diagnostic is never mutated once reported.
//
// # Suggestions
//
// Suggestions is a two-state variant. Eager holds fixes built at report time;
// Deferred holds a producer that runs on the first Resolve, and the result
// (or its error) is cached for later callers. Rules use Deferred when building
// the replacement text is expensive and most runs never look at it.
//
// Fix carries:
//
//   - Title and MessageID – label and the template it came from.
//   - Kind – coarse classification (quick fix, refactor, rewrite, source action).
//   - Applicability – AlwaysSafe, SafeWithHeuristics, ManualReview.
//   - IsPreferred – marks the most relevant fix when several exist.
//   - Edits – TextEdit values in source coordinates; OldText is an optional
//     guard the fix engine checks before applying.
//
// # Emitting diagnostics
//
// Producers use a Reporter. ReportBuilder (NewReportBuilder, ReportError,
// ReportWarning, ReportInfo) chains WithRule / WithNote / WithFix before Emit.
// BagReporter collects into a Bag, which supports sorting, deduplication,
// filtering and merging of per-worker bags.
package diag
