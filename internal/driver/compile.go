package driver

import (
	"context"
	"fmt"

	"fortio.org/safecast"

	"quill/internal/diag"
	"quill/internal/fir"
	firlower "quill/internal/fir/lower"
	"quill/internal/frontend"
	"quill/internal/ids"
	"quill/internal/observ"
	"quill/internal/partialeval"
	"quill/internal/passes"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/source"
	"quill/internal/trace"
)

// UserPackage is the package id of the program being compiled; the core
// library is ids.CorePackage.
const UserPackage ids.PackageID = 1

// Phase names a group of pipeline stages. Compilation stops after the
// first phase that reports errors.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseParse
	PhaseCheck
	PhaseLower
	PhasePasses
	PhaseFIR
	PhaseCapabilities
	PhaseEvaluate
	PhaseRIR
)

var phaseNames = [...]string{
	PhaseNone:         "none",
	PhaseParse:        "parse",
	PhaseCheck:        "check",
	PhaseLower:        "lower",
	PhasePasses:       "passes",
	PhaseFIR:          "fir",
	PhaseCapabilities: "capabilities",
	PhaseEvaluate:     "evaluate",
	PhaseRIR:          "rir",
}

func (p Phase) String() string { return phaseNames[p] }

// Source is an in-memory input file.
type Source struct {
	Name    string
	Content []byte
}

// Result is everything a compilation produced. Program is nil when Failed
// is not PhaseNone.
type Result struct {
	Files *source.FileSet
	Bag   *diag.Bag
	// Failed is the phase whose errors stopped the pipeline.
	Failed  Phase
	Unit    *frontend.Unit
	Store   *fir.PackageStore
	Package *fir.Package
	Program *rir.Program
	// Cached reports that Program came from the cache; nothing else is set.
	Cached  bool
	Timings observ.Report
}

func (r *Result) OK() bool { return r != nil && r.Failed == PhaseNone }

// Compile runs the whole pipeline over in-memory sources. The error is
// reserved for failures outside the program: a broken core library or an
// unusable cache.
func Compile(ctx context.Context, sources []Source, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	files := make([]*source.File, len(sources))
	for i, src := range sources {
		files[i] = fs.Get(fs.AddVirtual(src.Name, src.Content))
	}
	return compile(ctx, fs, files, opts)
}

// CompileFiles loads paths from disk and compiles them as one package.
func CompileFiles(ctx context.Context, paths []string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	files := make([]*source.File, len(paths))
	for i, path := range paths {
		id, err := fs.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		files[i] = fs.Get(id)
	}
	return compile(ctx, fs, files, opts)
}

type pipeline struct {
	ctx      context.Context
	opts     Options
	tracer   trace.Tracer
	parent   uint64
	timer    *observ.Timer
	bag      *diag.Bag
	reporter diag.Reporter
	res      *Result
}

// phase runs f inside a trace span and a timer entry.
func (p *pipeline) phase(ph Phase, f func() string) {
	span := trace.Begin(p.tracer, trace.ScopePass, ph.String(), p.parent)
	idx := p.timer.Begin(ph.String())
	if p.opts.Observer != nil {
		p.opts.Observer(PhaseEvent{Phase: ph, Status: PhaseStart})
	}
	note := f()
	failed := p.res.Failed != PhaseNone
	p.timer.End(idx, note)
	elapsed := span.End(note)
	if p.opts.Observer != nil {
		status := PhaseEnd
		if failed {
			status = PhaseFailed
		}
		p.opts.Observer(PhaseEvent{Phase: ph, Status: status, Elapsed: elapsed})
	}
}

func compile(ctx context.Context, fs *source.FileSet, files []*source.File, opts Options) (*Result, error) {
	if opts.LoopLimit <= 0 {
		opts.LoopLimit = partialeval.DefaultLoopLimit
	}
	var key CacheKey
	if opts.Until != PhaseNone {
		opts.Cache = nil
	}
	if opts.Cache != nil {
		key = Key(files, opts)
		prog, ok, err := opts.Cache.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Result{Files: fs, Bag: diag.NewBag(opts.MaxDiagnostics), Program: prog, Cached: true}, nil
		}
	}
	core, err := FrozenCore()
	if err != nil {
		return nil, err
	}

	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "compile", trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: root.ID()})
	bag := diag.NewBag(opts.MaxDiagnostics)
	p := &pipeline{
		ctx:      ctx,
		opts:     opts,
		tracer:   tracer,
		parent:   root.ID(),
		timer:    observ.NewTimer(),
		bag:      bag,
		reporter: diag.BagReporter{Bag: bag},
	}
	res := &Result{Files: fs, Bag: bag}
	p.res = res
	p.run(core, files, res)

	res.Timings = p.timer.Report()
	if opts.Timings {
		name := ""
		if len(files) > 0 {
			name = files[0].Path
		}
		appendTimingDiagnostic(bag, name, res.Timings)
	}
	bag.Sort()
	bag.Dedup()
	root.End(res.Failed.String())

	if opts.Cache != nil && res.OK() {
		if err := opts.Cache.Put(key, res.Program); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (p *pipeline) run(core *Core, files []*source.File, res *Result) {
	maxErrors, err := safecast.Conv[uint](max(p.opts.MaxDiagnostics, 0))
	if err != nil {
		maxErrors = 0
	}
	p.phase(PhaseParse, func() string {
		var stage frontend.Stage
		res.Unit, stage = frontend.Compile(UserPackage, files, core.Deps, frontend.Options{Reporter: p.reporter, MaxErrors: maxErrors})
		switch stage {
		case frontend.StageParse:
			res.Failed = PhaseParse
		case frontend.StageCheck:
			res.Failed = PhaseCheck
		case frontend.StageLower:
			res.Failed = PhaseLower
		}
		return stage.String()
	})
	if p.halt(res, PhaseLower) {
		return
	}

	p.phase(PhasePasses, func() string {
		errs := passes.Run(res.Unit.HIR, res.Unit.Assigner, core.Items)
		diag.ReportAll(p.reporter, errs)
		if len(errs) > 0 {
			res.Failed = PhasePasses
		}
		return fmt.Sprintf("%d errors", len(errs))
	})
	if p.halt(res, PhasePasses) {
		return
	}

	p.phase(PhaseFIR, func() string {
		res.Store = core.Store.Open()
		res.Package = firlower.Package(res.Unit.HIR)
		res.Store.Insert(res.Package)
		if p.opts.Entry != "" && !selectEntry(res.Package, p.opts.Entry) {
			diag.Error(p.reporter, diag.PEMissingEntryPoint, source.Span{}, fmt.Sprintf("entry callable %s not found", p.opts.Entry))
			res.Failed = PhaseFIR
		}
		return fmt.Sprintf("%d items", len(res.Package.Items))
	})
	if p.halt(res, PhaseFIR) {
		return
	}

	var analysis *rca.Analysis
	p.phase(PhaseCapabilities, func() string {
		analysis = rca.Analyze(res.Store)
		analysis.Record(res.Package)
		errs := analysis.CheckCapabilities(p.opts.Profile.Flags)
		diag.ReportAll(p.reporter, errs)
		if len(errs) > 0 {
			res.Failed = PhaseCapabilities
		}
		return p.opts.Profile.Name
	})
	if p.halt(res, PhaseCapabilities) {
		return
	}

	p.phase(PhaseEvaluate, func() string {
		prog, perr := partialeval.Evaluate(p.ctx, res.Store, res.Package, analysis, partialeval.Options{
			Capabilities: p.opts.Profile.Flags,
			LoopLimit:    p.opts.LoopLimit,
		})
		if perr != nil {
			diag.ReportAll(p.reporter, []*partialeval.Error{perr})
			res.Failed = PhaseEvaluate
			return perr.Kind.Code().ID()
		}
		res.Program = prog
		return fmt.Sprintf("%d blocks", len(prog.Blocks))
	})
	if p.halt(res, PhaseEvaluate) {
		return
	}

	p.phase(PhaseRIR, func() string {
		rir.Run(res.Program)
		return fmt.Sprintf("%d blocks", len(res.Program.Blocks))
	})
}

// halt reports whether the pipeline stops after ph.
func (p *pipeline) halt(res *Result, ph Phase) bool {
	return res.Failed != PhaseNone || (p.opts.Until != PhaseNone && p.opts.Until <= ph)
}

// selectEntry marks the callable named Namespace.Name as the only entry
// point of pkg.
func selectEntry(pkg *fir.Package, name string) bool {
	var found *fir.Item
	for _, item := range pkg.SortedItems() {
		if _, ok := item.Kind.(*fir.ItemCallable); ok && item.Namespace+"."+item.Name() == name {
			found = item
		}
	}
	if found == nil {
		return false
	}
	for _, item := range pkg.Items {
		item.EntryPoint = item == found
	}
	return true
}
