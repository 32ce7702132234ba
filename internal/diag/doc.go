// Package diag defines the diagnostic model shared by all pipeline phases.
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go), grouped per phase:
//     1xxx lex, 2xxx syntax, 3xxx resolve, 4xxx type, 5xxx semantic passes,
//     6xxx capability analysis, 7xxx partial evaluation, 9xxx observability.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//
// Phases own their error taxonomies and convert them with ToDiagnostic; they
// emit through a Reporter so that storage is decoupled from production.
// BagReporter aggregates into a Bag, which supports sorting and deduplication
// and counts what its limit dropped.
//
// Package diag does not format anything. Rendering lives in internal/diagfmt.
package diag
