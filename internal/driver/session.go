package driver

import (
	"context"
	"fmt"
	"sort"

	"fortio.org/safecast"
	"github.com/pkg/errors"

	"quill/internal/diag"
	"quill/internal/fir"
	firlower "quill/internal/fir/lower"
	"quill/internal/hir"
	hirlower "quill/internal/hir/lower"
	"quill/internal/ids"
	"quill/internal/parser"
	"quill/internal/partialeval"
	"quill/internal/passes"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/sema"
	"quill/internal/source"
	"quill/internal/symbols"
	"quill/internal/trace"
)

var ErrSessionClosed = errors.New("session is closed")

// Session compiles interactive input one fragment at a time. Each fragment
// sees the items and top-level bindings of the fragments before it, and
// mutability is checked across the whole session. Not safe for concurrent
// use.
type Session struct {
	core  *Core
	opts  Options
	files *source.FileSet
	// bag collects the diagnostics of the fragment being compiled
	bag *diag.Bag

	assigner *ids.Assigner
	resolver *symbols.Resolver
	checker  *sema.Checker
	hir      *hirlower.Lowerer
	runner   *passes.Runner
	fir      *firlower.Lowerer
	store    *fir.PackageStore

	fragments int
	lowerErrs int
	closed    bool
}

func NewSession(opts Options) (*Session, error) {
	core, err := FrozenCore()
	if err != nil {
		return nil, err
	}
	if opts.LoopLimit <= 0 {
		opts.LoopLimit = partialeval.DefaultLoopLimit
	}
	s := &Session{
		core:     core,
		opts:     opts,
		files:    source.NewFileSet(),
		bag:      diag.NewBag(opts.MaxDiagnostics),
		assigner: ids.NewAssigner(),
	}
	rep := sessionReporter{s: s}
	s.resolver = symbols.NewResolver(core.Deps.Table.Clone(), symbols.Options{Package: UserPackage, Reporter: rep})
	s.checker = sema.NewChecker(core.Deps.Globals, s.resolver, sema.Options{Package: UserPackage, Reporter: rep})
	s.hir = hirlower.New(UserPackage, s.assigner, s.resolver, s.checker.Table())
	s.runner = passes.NewRunner(s.assigner, core.Items)
	s.fir = firlower.New(UserPackage)
	s.store = core.Store.Open()
	s.store.Insert(s.fir.Package())
	return s, nil
}

type sessionReporter struct{ s *Session }

func (r sessionReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	diag.BagReporter{Bag: r.s.bag}.Report(code, sev, primary, msg, notes)
}

// Files holds every fragment submitted so far, for rendering diagnostics.
func (s *Session) Files() *source.FileSet { return s.files }

// Fragment compiles one piece of input: namespaces, items and top-level
// statements. When it adds statements the result carries the program of
// all statements accepted so far. Statements of a fragment that fails
// after lowering are withdrawn.
func (s *Session) Fragment(ctx context.Context, input string) (*Result, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.fragments++
	s.bag = diag.NewBag(s.opts.MaxDiagnostics)
	res := &Result{Files: s.files, Bag: s.bag, Store: s.store, Package: s.fir.Package()}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "fragment", trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})
	defer func() { span.End(res.Failed.String()) }()

	name := fmt.Sprintf("<fragment %d>", s.fragments)
	file := s.files.Get(s.files.Add(name, []byte(input), source.FileFragment))
	maxErrors, err := safecast.Conv[uint](max(s.opts.MaxDiagnostics, 0))
	if err != nil {
		return nil, err
	}
	rep := sessionReporter{s: s}

	ast := parser.ParseFragment(file, s.assigner, parser.Options{Reporter: rep, MaxErrors: maxErrors})
	if s.bag.HasErrors() {
		res.Failed = PhaseParse
		return res, nil
	}
	s.resolver.ResolveFragment(ast)
	s.checker.CheckFragment(ast)
	if s.bag.HasErrors() {
		s.hir.Skip()
		res.Failed = PhaseCheck
		return res, nil
	}

	hirPkg := s.hir.Package()
	known := make(map[hir.LocalItemID]bool, len(hirPkg.Items))
	for id := range hirPkg.Items {
		known[id] = true
	}
	stmts := s.hir.LowerFragment(ast)
	if errs := s.hir.Errors[s.lowerErrs:]; len(errs) > 0 {
		s.lowerErrs = len(s.hir.Errors)
		diag.ReportAll(rep, errs)
		res.Failed = PhaseLower
		return res, nil
	}
	var items []hir.LocalItemID
	for id := range hirPkg.Items {
		if !known[id] {
			items = append(items, id)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	stmts, errs := s.runner.Fragment(hirPkg, items, stmts)
	if len(errs) > 0 {
		diag.ReportAll(rep, errs)
		res.Failed = PhasePasses
		return res, nil
	}

	pkg := s.fir.Package()
	s.fir.Items(hirPkg, items)
	top := len(pkg.Top)
	s.fir.Stmts(stmts)
	if len(pkg.Top) == top {
		return res, nil
	}

	analysis := rca.Analyze(s.store)
	analysis.RecordTop(pkg)
	if errs := analysis.CheckCapabilities(s.opts.Profile.Flags); len(errs) > 0 {
		diag.ReportAll(rep, errs)
		pkg.Top = pkg.Top[:top]
		res.Failed = PhaseCapabilities
		return res, nil
	}
	prog, perr := partialeval.Evaluate(ctx, s.store, pkg, analysis, partialeval.Options{
		Capabilities: s.opts.Profile.Flags,
		LoopLimit:    s.opts.LoopLimit,
		TopLevel:     true,
	})
	if perr != nil {
		diag.ReportAll(rep, []*partialeval.Error{perr})
		pkg.Top = pkg.Top[:top]
		res.Failed = PhaseEvaluate
		return res, nil
	}
	rir.Run(prog)
	res.Program = prog
	return res, nil
}

// Close releases the session's packages. Later calls to Fragment fail with
// ErrSessionClosed.
func (s *Session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.resolver, s.checker, s.hir, s.runner, s.fir, s.store = nil, nil, nil, nil, nil, nil
	s.files = nil
	return nil
}
