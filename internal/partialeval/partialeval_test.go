package partialeval_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"quill/internal/capability"
	"quill/internal/partialeval"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/testkit"
)

func evaluate(t *testing.T, profile capability.Profile, loopLimit int, src string) (*rir.Program, *partialeval.Error) {
	t.Helper()
	store, pkg := testkit.FIR(t, src)
	a := rca.Analyze(store)
	a.Record(pkg)
	return partialeval.Evaluate(context.Background(), store, pkg, a, partialeval.Options{
		Capabilities: profile.Flags,
		LoopLimit:    loopLimit,
	})
}

func mustEvaluate(t *testing.T, profile capability.Profile, src string) *rir.Program {
	t.Helper()
	prog, err := evaluate(t, profile, 0, src)
	if err != nil {
		t.Fatalf("evaluate: %s: %s", err.Kind.Code().ID(), err.Msg)
	}
	return prog
}

func entryBlocks(t *testing.T, prog *rir.Program) []*rir.Block {
	t.Helper()
	main := prog.Callables[prog.EntryPoint]
	reach := prog.Reachable(main)
	var out []*rir.Block
	for _, id := range prog.BlockIDs() {
		if reach[id] {
			out = append(out, prog.Blocks[id])
		}
	}
	return out
}

func callee(prog *rir.Program, in *rir.Instr) string {
	if in.Kind != rir.InstrCall {
		return ""
	}
	return prog.Callables[in.Call.Callee].Name
}

func TestClassicalProgramLeavesOnlyBookkeeping(t *testing.T) {
	prog := mustEvaluate(t, capability.Base, `
namespace Test {
    @EntryPoint()
    operation Main() : Unit {
        let x = 2 + 2;
    }
}`)
	blocks := entryBlocks(t, prog)
	if len(blocks) != 1 {
		t.Fatalf("want 1 block, got %d:\n%s", len(blocks), prog)
	}
	var got []string
	for i := range blocks[0].Instrs {
		in := &blocks[0].Instrs[i]
		got = append(got, in.Kind.String()+" "+callee(prog, in))
	}
	want := []string{
		"call __quantum__rt__initialize",
		"call __quantum__rt__tuple_record_output",
		"ret ",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("instructions mismatch (-want +got):\n%s", diff)
	}
}

func TestDynamicBranchSplitsBlocks(t *testing.T) {
	prog := mustEvaluate(t, capability.AdaptiveRI, `
namespace Test {
    @EntryPoint()
    operation Main() : Result {
        use q = Qubit();
        H(q);
        let r = M(q);
        if r == One {
            X(q);
        }
        r
    }
}`)
	var branches []*rir.Block
	for _, b := range entryBlocks(t, prog) {
		if term, ok := b.Terminator(); ok && term.Kind == rir.InstrBranch {
			branches = append(branches, b)
		}
	}
	if len(branches) != 1 {
		t.Fatalf("want exactly one branch, got %d:\n%s", len(branches), prog)
	}
	succ := branches[0].Successors()
	if len(succ) != 2 {
		t.Fatalf("branch has %d successors", len(succ))
	}
	gates := 0
	for _, id := range succ {
		for i := range prog.Blocks[id].Instrs {
			if callee(prog, &prog.Blocks[id].Instrs[i]) == "__quantum__qis__x__body" {
				gates++
			}
		}
	}
	if gates != 1 {
		t.Fatalf("want the X gate in one successor, found %d:\n%s", gates, prog)
	}
	if prog.NumQubits != 1 || prog.NumResults != 1 {
		t.Fatalf("qubits=%d results=%d, want 1 and 1", prog.NumQubits, prog.NumResults)
	}
}

func TestReleasedQubitsAreReused(t *testing.T) {
	prog := mustEvaluate(t, capability.Base, `
namespace Test {
    operation Flip() : Unit {
        use q = Qubit();
        X(q);
    }

    @EntryPoint()
    operation Main() : Unit {
        Flip();
        Flip();
    }
}`)
	if prog.NumQubits != 1 {
		t.Fatalf("NumQubits = %d, want 1:\n%s", prog.NumQubits, prog)
	}
	if n := strings.Count(prog.String(), "call @__quantum__qis__x__body(Qubit(0))"); n != 2 {
		t.Fatalf("want two X on qubit 0, got %d:\n%s", n, prog)
	}
}

func TestFailReportsMessage(t *testing.T) {
	_, err := evaluate(t, capability.Base, 0, `
namespace Test {
    @EntryPoint()
    operation Main() : Unit {
        fail "boom";
    }
}`)
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Kind != partialeval.EvaluationFailed || !strings.Contains(err.Msg, "boom") {
		t.Fatalf("got %v %q", err.Kind, err.Msg)
	}
}

func TestMissingCapabilityIsNamed(t *testing.T) {
	_, err := evaluate(t, capability.Base, 0, `
namespace Test {
    @EntryPoint()
    operation Main() : Unit {
        use q = Qubit();
        if M(q) == One {
            X(q);
        }
    }
}`)
	if err == nil {
		t.Fatal("expected an error")
	}
	d := err.ToDiagnostic()
	if d.Code.ID() != "PEV7001" || err.Capability&capability.Adaptive == 0 {
		t.Fatalf("got %s with capability %s", d.Code.ID(), err.Capability)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("want a note naming the capability, got %+v", d.Notes)
	}
}

func TestEvaluatedProgramPassesChecks(t *testing.T) {
	prog := mustEvaluate(t, capability.Unrestricted, `
namespace Test {
    @EntryPoint()
    operation Main() : Int {
        use q = Qubit();
        mutable n = 0;
        mutable again = true;
        while again {
            set n += 1;
            set again = MResetZ(q) == One;
        }
        n
    }
}`)
	if err := rir.Validate(prog); err != nil {
		t.Fatalf("validate: %v\n%s", err, prog)
	}
}

func TestAndSkipsRightSideAtRunTime(t *testing.T) {
	src := `
namespace Test {
    operation Check(q : Qubit) : Bool {
        X(q);
        M(q) == One
    }

    @EntryPoint()
    operation Main() : Bool {
        use q0 = Qubit();
        use q1 = Qubit();
        let a = M(q0) == One;
        a and Check(q1)
    }
}`
	prog := mustEvaluate(t, capability.Unrestricted, src)
	var branches []*rir.Block
	for _, b := range entryBlocks(t, prog) {
		if term, ok := b.Terminator(); ok && term.Kind == rir.InstrBranch {
			branches = append(branches, b)
		}
	}
	if len(branches) != 1 {
		t.Fatalf("want exactly one branch, got %d:\n%s", len(branches), prog)
	}
	count := func(b *rir.Block, name string) int {
		n := 0
		for i := range b.Instrs {
			if callee(prog, &b.Instrs[i]) == name {
				n++
			}
		}
		return n
	}
	if n := count(branches[0], "__quantum__qis__x__body"); n != 0 {
		t.Fatalf("X runs before the branch:\n%s", prog)
	}
	if n := count(branches[0], "__quantum__qis__mz__body"); n != 1 {
		t.Fatalf("want only the first measurement before the branch, got %d:\n%s", n, prog)
	}
	gated := 0
	for _, id := range branches[0].Successors() {
		gated += count(prog.Blocks[id], "__quantum__qis__x__body")
	}
	if gated != 1 {
		t.Fatalf("want the X gate in one successor, found %d:\n%s", gated, prog)
	}
	if !strings.Contains(prog.String(), "phi") {
		t.Fatalf("want the result merged with a phi:\n%s", prog)
	}
	if err := rir.Validate(prog); err != nil {
		t.Fatalf("validate: %v\n%s", err, prog)
	}

	_, err := evaluate(t, capability.Base, 0, src)
	if err == nil || err.Capability&capability.Adaptive == 0 {
		t.Fatalf("base profile: want a missing Adaptive capability, got %v", err)
	}
}

func TestLibraryErrorsPointAtTheUserCall(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		kind   partialeval.ErrorKind
		at     string
		within string
	}{
		{
			name:   "division inside a core function",
			body:   "let r = RangeReverse(0..0..5);",
			kind:   partialeval.EvaluationFailed,
			at:     "RangeReverse(0..0..5)",
			within: "RangeReverse",
		},
		{
			name: "dynamic qubit array size",
			body: "use q = Qubit(); mutable n = 1; if M(q) == One { set n = 2; } use qs = Qubit[n];",
			kind: partialeval.ValueNotStatic,
			at:   "Qubit[n]",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := "namespace Test { @EntryPoint() operation Main() : Unit { " + tc.body + " } }"
			_, err := evaluate(t, capability.Unrestricted, 0, src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s: %s", err.Kind.Code().ID(), tc.kind.Code().ID(), err.Msg)
			}
			if int(err.Span.End) > len(src) || err.Span.Start > err.Span.End {
				t.Fatalf("span %v lies outside the user source", err.Span)
			}
			if got := src[err.Span.Start:err.Span.End]; got != tc.at {
				t.Fatalf("span covers %q, want %q", got, tc.at)
			}
			if !strings.HasSuffix(err.Within, tc.within) || (tc.within == "") != (err.Within == "") {
				t.Fatalf("Within = %q, want suffix %q", err.Within, tc.within)
			}
			if tc.within != "" {
				notes := err.ToDiagnostic().Notes
				if len(notes) == 0 || !strings.Contains(notes[0].Msg, tc.within) {
					t.Fatalf("want a note naming %s, got %+v", tc.within, notes)
				}
			}
		})
	}
}

type peCase struct {
	Name      string   `yaml:"name"`
	Profile   string   `yaml:"profile"`
	LoopLimit int      `yaml:"loop_limit"`
	Src       string   `yaml:"src"`
	Contains  []string `yaml:"contains"`
	Absent    []string `yaml:"absent"`
	Error     string   `yaml:"error"`
}

func TestCases(t *testing.T) {
	data, err := os.ReadFile("testdata/cases.yaml")
	if err != nil {
		t.Fatal(err)
	}
	var file struct {
		Cases []peCase `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatal(err)
	}
	for _, tc := range file.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			profile, err := capability.Lookup(tc.Profile)
			if err != nil {
				t.Fatal(err)
			}
			prog, perr := evaluate(t, profile, tc.LoopLimit, tc.Src)
			if tc.Error != "" {
				if perr == nil {
					t.Fatalf("want %s, evaluation succeeded:\n%s", tc.Error, prog)
				}
				if got := perr.Kind.Code().ID(); got != tc.Error {
					t.Fatalf("want %s, got %s: %s", tc.Error, got, perr.Msg)
				}
				return
			}
			if perr != nil {
				t.Fatalf("%s: %s", perr.Kind.Code().ID(), perr.Msg)
			}
			dump := prog.String()
			for _, want := range tc.Contains {
				if !strings.Contains(dump, want) {
					t.Errorf("missing %q in:\n%s", want, dump)
				}
			}
			for _, bad := range tc.Absent {
				if strings.Contains(dump, bad) {
					t.Errorf("unexpected %q in:\n%s", bad, dump)
				}
			}
		})
	}
}
