package diag

import "quill/internal/source"

// Reporter receives diagnostics from a phase. The driver points every
// phase of a compile at the same bag.
type Reporter interface {
	Report(code Code, sev Severity, primary source.Span, msg string, notes []Note)
}

// Error reports an error without notes.
func Error(r Reporter, code Code, primary source.Span, msg string) {
	r.Report(code, SevError, primary, msg, nil)
}

// BagReporter writes into Bag; a nil Bag drops everything.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes})
}

type NopReporter struct{}

func (NopReporter) Report(Code, Severity, source.Span, string, []Note) {}

// Emitter is implemented by the error types of each phase.
type Emitter interface {
	ToDiagnostic() Diagnostic
}

// ReportAll forwards a batch of phase errors to r.
func ReportAll[E Emitter](r Reporter, errs []E) {
	if r == nil {
		return
	}
	for _, e := range errs {
		d := e.ToDiagnostic()
		r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
}
