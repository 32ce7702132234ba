package rir_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"quill/internal/rir"
)

type fixture struct {
	p    *rir.Program
	main rir.CallableID
	h    rir.CallableID
}

func newFixture() *fixture {
	p := rir.NewProgram()
	f := &fixture{p: p}
	f.h = p.AddCallable(rir.Callable{Name: "__quantum__qis__h__body", Input: []rir.Ty{rir.TyQubit}})
	f.main = p.AddCallable(rir.Callable{Name: "main", Output: rir.TyVoid})
	p.EntryPoint = f.main
	return f
}

func (f *fixture) body(entry rir.BlockID) {
	f.p.Callables[f.main].Body = entry
}

func mustPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s did not panic", what)
		}
	}()
	fn()
}

func kinds(b *rir.Block) []rir.InstrKind {
	out := make([]rir.InstrKind, len(b.Instrs))
	for i, in := range b.Instrs {
		out[i] = in.Kind
	}
	return out
}

func TestPruneStoresKeepsCrossBlockStores(t *testing.T) {
	f := newFixture()
	p := f.p
	a, b, c, d := p.NewBlock(), p.NewBlock(), p.NewBlock(), p.NewBlock()
	f.body(a)

	flag := p.NewVariable(rir.TyBoolean)
	p.Append(a, rir.Alloca(flag))
	p.Append(a, rir.Store(rir.Bool(true), flag))
	p.Append(a, rir.Jump(b))

	cond := p.NewVariable(rir.TyBoolean)
	p.Append(b, rir.Load(flag, cond))
	p.Append(b, rir.Branch(rir.Var(cond), c, d))

	n := p.NewVariable(rir.TyInteger)
	loaded := p.NewVariable(rir.TyInteger)
	sum := p.NewVariable(rir.TyInteger)
	p.Append(c, rir.Alloca(n))
	p.Append(c, rir.Store(rir.Int(5), n))
	p.Append(c, rir.Load(n, loaded))
	p.Append(c, rir.Binary(rir.InstrAdd, rir.Var(loaded), rir.Int(1), sum))
	p.Append(c, rir.Jump(d))
	p.Append(d, rir.Return())

	rir.PruneStores(p)

	if diff := cmp.Diff([]rir.InstrKind{rir.InstrAlloca, rir.InstrStore, rir.InstrJump}, kinds(p.Blocks[a])); diff != "" {
		t.Fatalf("cross-block store pruned (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]rir.InstrKind{rir.InstrLoad, rir.InstrBranch}, kinds(p.Blocks[b])); diff != "" {
		t.Fatalf("cross-block load pruned (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]rir.InstrKind{rir.InstrAdd, rir.InstrJump}, kinds(p.Blocks[c])); diff != "" {
		t.Fatalf("same-block store survived (-want +got):\n%s", diff)
	}
	if got := p.Blocks[c].Instrs[0].Binary.Lhs; got != rir.Int(5) {
		t.Fatalf("add reads %+v, want the stored literal", got)
	}
	rir.CheckTypes(p)
	rir.CheckBlocks(p)
}

func TestCheckTypesPanicsOnMismatchedStore(t *testing.T) {
	f := newFixture()
	p := f.p
	a := p.NewBlock()
	f.body(a)
	slot := p.NewVariable(rir.TyBoolean)
	p.Append(a, rir.Alloca(slot))
	p.Append(a, rir.Store(rir.Int(1), slot))
	p.Append(a, rir.Return())
	mustPanic(t, "CheckTypes", func() { rir.CheckTypes(p) })
}

func TestCheckTypesPanicsOnCallArity(t *testing.T) {
	f := newFixture()
	p := f.p
	a := p.NewBlock()
	f.body(a)
	p.Append(a, rir.Call(f.h, rir.Qubit(0), rir.Qubit(1)))
	p.Append(a, rir.Return())
	mustPanic(t, "CheckTypes", func() { rir.CheckTypes(p) })
}

func TestCheckBlocksPanics(t *testing.T) {
	tests := []struct {
		name  string
		build func(f *fixture)
	}{
		{"unterminated", func(f *fixture) {
			a := f.p.NewBlock()
			f.body(a)
			f.p.Append(a, rir.Call(f.h, rir.Qubit(0)))
		}},
		{"terminator in the middle", func(f *fixture) {
			a := f.p.NewBlock()
			f.body(a)
			f.p.Append(a, rir.Return())
			f.p.Append(a, rir.Return())
		}},
		{"missing target", func(f *fixture) {
			a := f.p.NewBlock()
			f.body(a)
			f.p.Append(a, rir.Jump(42))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.build(f)
			mustPanic(t, "CheckBlocks", func() { rir.CheckBlocks(f.p) })
		})
	}
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	f := newFixture()
	p := f.p
	a := p.NewBlock()
	f.body(a)
	sum := p.NewVariable(rir.TyInteger)
	p.Append(a, rir.Binary(rir.InstrAdd, rir.Double(1), rir.Int(2), sum))
	p.Append(a, rir.Call(f.h, rir.Int(0)))
	err := rir.Validate(p)
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("Validate found %d problems, want 3: %v", got, err)
	}
}

func TestPruneUnreachable(t *testing.T) {
	f := newFixture()
	p := f.p
	a, dead, join := p.NewBlock(), p.NewBlock(), p.NewBlock()
	f.body(a)
	p.Append(a, rir.Jump(join))
	p.Append(dead, rir.Jump(join))
	v := p.NewVariable(rir.TyInteger)
	p.Append(join, rir.Phi(v, rir.PhiArg{Value: rir.Int(1), Block: a}, rir.PhiArg{Value: rir.Int(2), Block: dead}))
	p.Append(join, rir.Return())

	rir.PruneUnreachable(p)
	if _, ok := p.Blocks[dead]; ok {
		t.Fatal("unreachable block kept")
	}
	if got := len(p.Blocks[join].Instrs[0].Phi.Args); got != 1 {
		t.Fatalf("phi has %d inputs, want 1", got)
	}
}

func TestDump(t *testing.T) {
	f := newFixture()
	p := f.p
	a, b, c := p.NewBlock(), p.NewBlock(), p.NewBlock()
	f.body(a)
	cond := p.NewVariable(rir.TyBoolean)
	p.Append(a, rir.Call(f.h, rir.Qubit(0)))
	p.Append(a, rir.Icmp(rir.CondEq, rir.Int(1), rir.Int(2), cond))
	p.Append(a, rir.Branch(rir.Var(cond), b, c))
	p.Append(b, rir.Jump(c))
	p.Append(c, rir.Return())
	want := strings.Join([]string{
		"declare Void @__quantum__qis__h__body(Qubit)",
		"",
		"define Void @main() #entry {",
		"b1:",
		"  call @__quantum__qis__h__body(Qubit(0))",
		"  %1: Boolean = icmp eq 1, 2",
		"  br %1, b2, b3",
		"b2:",
		"  jump b3",
		"b3:",
		"  ret",
		"}",
		"",
	}, "\n")
	if diff := cmp.Diff(want, p.String()); diff != "" {
		t.Fatalf("dump mismatch (-want +got):\n%s", diff)
	}
}
