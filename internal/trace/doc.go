// Package trace provides phase tracing for the quill compiler.
//
// Tracing follows the pipeline: the driver opens a "compile" or "fragment"
// span and one span per phase under it (parse, passes, fir, capabilities,
// evaluate, rir). The partial evaluator nests a span per evaluated callable
// and emits node points for dynamic branches and loops.
//
// Enable tracing via command-line flags:
//
//	quill build --trace=- --trace-level=phase main.qs
//
// Tracer implementations:
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: immediate write to a writer (text or NDJSON)
//   - RingTracer: last N events in memory, dumped on internal compiler errors
//   - MultiTracer: fan-out
//
// Levels: off, error, phase (driver + pass boundaries), detail
// (per-callable events), debug (everything including evaluator nodes).
//
// Tracers travel through the pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "evaluate", 0)
//	defer span.End("")
package trace
