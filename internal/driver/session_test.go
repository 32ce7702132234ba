package driver_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quill/internal/capability"
	"quill/internal/driver"
)

func fragment(t *testing.T, s *driver.Session, input string) *driver.Result {
	t.Helper()
	res, err := s.Fragment(context.Background(), input)
	if err != nil {
		t.Fatalf("Fragment(%q): %v", input, err)
	}
	return res
}

func TestSessionKeepsBindings(t *testing.T) {
	s, err := driver.NewSession(driver.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	steps := []string{
		"namespace Test { operation Flip(q : Qubit) : Unit { X(q); } }",
		"use q = Qubit();",
		"Test.Flip(q);",
		"M(q)",
	}
	var last *driver.Result
	for _, step := range steps {
		last = fragment(t, s, step)
		if !last.OK() {
			t.Fatalf("%q failed at %s: %v", step, last.Failed, codes(last.Bag))
		}
	}
	if last.Program == nil {
		t.Fatalf("no program for statements")
	}
	dump := last.Program.String()
	for _, want := range []string{
		"call @__quantum__qis__x__body(Qubit(0))",
		"call @__quantum__qis__mz__body(Qubit(0), Result(0))",
		"call @__quantum__rt__result_record_output(Result(0), null)",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("program lacks %q:\n%s", want, dump)
		}
	}
}

func TestSessionItemsOnlyFragment(t *testing.T) {
	s, err := driver.NewSession(driver.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	res := fragment(t, s, "namespace Test { function Two() : Int { 2 } }")
	if !res.OK() || res.Program != nil {
		t.Fatalf("items fragment: failed=%s program=%v", res.Failed, res.Program != nil)
	}
}

func TestSessionMutabilitySpansFragments(t *testing.T) {
	s, err := driver.NewSession(driver.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	fragment(t, s, "let x = 1;")
	res := fragment(t, s, "set x = 2;")
	if res.Failed != driver.PhasePasses {
		t.Fatalf("failed at %s, want passes: %v", res.Failed, codes(res.Bag))
	}
	if got := codes(res.Bag); len(got) != 1 || got[0] != "SEM5007" {
		t.Errorf("codes = %v", got)
	}
}

func TestSessionRecoversFromErrors(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Profile = capability.Base
	s, err := driver.NewSession(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	fragment(t, s, "use q = Qubit();")
	if res := fragment(t, s, "if M(q) == One { X(q); }"); res.OK() {
		t.Fatalf("dynamic branch accepted under base profile")
	}
	if res := fragment(t, s, "Undefined(q);"); res.Failed != driver.PhaseCheck {
		t.Fatalf("failed at %s, want check", res.Failed)
	}
	if res := fragment(t, s, "H(q"); res.Failed != driver.PhaseParse {
		t.Fatalf("failed at %s, want parse", res.Failed)
	}

	res := fragment(t, s, "H(q);")
	if !res.OK() {
		t.Fatalf("failed at %s: %v", res.Failed, codes(res.Bag))
	}
	dump := res.Program.String()
	if strings.Contains(dump, "__quantum__qis__x__body") {
		t.Errorf("rejected statement survived:\n%s", dump)
	}
	if !strings.Contains(dump, "call @__quantum__qis__h__body(Qubit(0))") {
		t.Errorf("program lacks H:\n%s", dump)
	}
}

func TestSessionClose(t *testing.T) {
	s, err := driver.NewSession(driver.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Fragment(context.Background(), "let x = 1;"); !errors.Is(err, driver.ErrSessionClosed) {
		t.Errorf("Fragment after Close = %v", err)
	}
}
