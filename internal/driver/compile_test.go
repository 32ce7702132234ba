package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/capability"
	"quill/internal/diag"
	"quill/internal/driver"
)

const bell = `namespace Test {
    @EntryPoint()
    operation Main() : (Result, Result) {
        use qs = Qubit[2];
        H(qs[0]);
        CNOT(qs[0], qs[1]);
        (M(qs[0]), M(qs[1]))
    }
}
`

const branch = `namespace Test {
    @EntryPoint()
    operation Main() : Unit {
        use q = Qubit();
        H(q);
        if M(q) == One {
            X(q);
        }
    }
}
`

func compile(t *testing.T, opts driver.Options, src string) *driver.Result {
	t.Helper()
	res, err := driver.Compile(context.Background(), []driver.Source{{Name: "main.qs", Content: []byte(src)}}, opts)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

func codes(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Code.ID())
	}
	return out
}

func TestCompileProducesProgram(t *testing.T) {
	res := compile(t, driver.DefaultOptions(), bell)
	if !res.OK() {
		t.Fatalf("failed at %s: %v", res.Failed, codes(res.Bag))
	}
	dump := res.Program.String()
	for _, want := range []string{
		"define Void @Main() #entry {",
		"call @__quantum__qis__cx__body(Qubit(0), Qubit(1))",
		"call @__quantum__rt__result_record_output(Result(0), null)",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("program lacks %q:\n%s", want, dump)
		}
	}
	if res.Program.NumQubits != 2 || res.Program.NumResults != 2 {
		t.Errorf("qubits/results = %d/%d, want 2/2", res.Program.NumQubits, res.Program.NumResults)
	}
}

func TestCompileStopsAtFailingPhase(t *testing.T) {
	base := driver.DefaultOptions()
	base.Profile = capability.Base

	tests := []struct {
		name  string
		opts  driver.Options
		src   string
		phase driver.Phase
		codes []string
	}{
		{
			name:  "syntax error",
			opts:  driver.DefaultOptions(),
			src:   "namespace Test { operation Main() : Unit { H( } }",
			phase: driver.PhaseParse,
		},
		{
			name: "unresolved name",
			opts: driver.DefaultOptions(),
			src: `namespace Test {
    @EntryPoint()
    operation Main() : Unit { Missing(); }
}`,
			phase: driver.PhaseCheck,
			codes: []string{"RES3001"},
		},
		{
			name: "assigning an immutable",
			opts: driver.DefaultOptions(),
			src: `namespace Test {
    @EntryPoint()
    operation Main() : Int {
        let x = 1;
        set x = 2;
        x
    }
}`,
			phase: driver.PhasePasses,
			codes: []string{"SEM5007"},
		},
		{
			name:  "base profile branch",
			opts:  base,
			src:   branch,
			phase: driver.PhaseCapabilities,
		},
		{
			name: "missing entry point",
			opts: driver.DefaultOptions(),
			src: `namespace Test {
    operation Helper() : Unit {}
}`,
			phase: driver.PhaseEvaluate,
			codes: []string{"PEV7007"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compile(t, tt.opts, tt.src)
			if res.Failed != tt.phase {
				t.Fatalf("failed at %s, want %s: %v", res.Failed, tt.phase, codes(res.Bag))
			}
			if res.Program != nil {
				t.Errorf("failed compilation produced a program")
			}
			if !res.Bag.HasErrors() {
				t.Errorf("no error diagnostics")
			}
			got := codes(res.Bag)
			for _, want := range tt.codes {
				if !slices.Contains(got, want) {
					t.Errorf("codes %v lack %s", got, want)
				}
			}
		})
	}
}

func TestCompileNamedEntry(t *testing.T) {
	src := `namespace Test {
    operation First() : Unit {
        use q = Qubit();
        H(q);
    }
    operation Second() : Unit {
        use q = Qubit();
        X(q);
    }
}`
	opts := driver.DefaultOptions()
	opts.Entry = "Test.Second"
	res := compile(t, opts, src)
	if !res.OK() {
		t.Fatalf("failed at %s: %v", res.Failed, codes(res.Bag))
	}
	dump := res.Program.String()
	if !strings.Contains(dump, "__quantum__qis__x__body") || strings.Contains(dump, "__quantum__qis__h__body") {
		t.Errorf("entry not honoured:\n%s", dump)
	}

	opts.Entry = "Test.Third"
	res = compile(t, opts, src)
	if res.Failed != driver.PhaseFIR {
		t.Fatalf("failed at %s, want fir", res.Failed)
	}
}

func TestCompileUntilStopsEarly(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Until = driver.PhaseCapabilities
	res := compile(t, opts, bell)
	if !res.OK() {
		t.Fatalf("failed at %s", res.Failed)
	}
	if res.Program != nil {
		t.Errorf("program produced past the requested phase")
	}
	if res.Package == nil {
		t.Errorf("fir package missing")
	}
}

func TestCompileReportsPhases(t *testing.T) {
	var seen []string
	opts := driver.DefaultOptions()
	opts.Timings = true
	opts.Observer = func(ev driver.PhaseEvent) {
		if ev.Status == driver.PhaseEnd {
			seen = append(seen, ev.Phase.String())
		}
	}
	res := compile(t, opts, bell)
	want := []string{"parse", "passes", "fir", "capabilities", "evaluate", "rir"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}
	if len(res.Timings.Phases) != len(want) {
		t.Errorf("timings has %d phases, want %d", len(res.Timings.Phases), len(want))
	}
	var timings bool
	for _, d := range res.Bag.Items() {
		timings = timings || d.Code == diag.ObsTimings
	}
	if !timings {
		t.Errorf("no timings diagnostic")
	}
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	lib := `namespace Test {
    operation Prepare(q : Qubit) : Unit { H(q); }
}`
	main := `namespace Test {
    @EntryPoint()
    operation Main() : Result {
        use q = Qubit();
        Prepare(q);
        M(q)
    }
}`
	for name, src := range map[string]string{"lib.qs": lib, "main.qs": main} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	paths, err := driver.ListSources(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("ListSources = %v", paths)
	}
	res, err := driver.CompileFiles(context.Background(), paths, driver.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatalf("failed at %s: %v", res.Failed, codes(res.Bag))
	}

	if _, err := driver.CompileFiles(context.Background(), []string{filepath.Join(dir, "missing.qs")}, driver.DefaultOptions()); err == nil {
		t.Errorf("missing file compiled")
	}
}
