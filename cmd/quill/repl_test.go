package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadFragments(t *testing.T) {
	input := strings.Join([]string{
		"namespace Test {",
		"    operation Flip(q : Qubit) : Unit { X(q); }",
		"}",
		"",
		"use q = Qubit();",
		"if true {",
		"  Test.Flip(q);",
		"}",
		"M(q)",
	}, "\n")
	var got []string
	var prompt bytes.Buffer
	err := readFragments(strings.NewReader(input), &prompt, false, func(s string) error {
		got = append(got, strings.TrimSpace(s))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"namespace Test {\n    operation Flip(q : Qubit) : Unit { X(q); }\n}",
		"use q = Qubit();",
		"if true {\n  Test.Flip(q);\n}",
		"M(q)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
	if prompt.Len() != 0 {
		t.Errorf("non-interactive run printed prompts %q", prompt.String())
	}
}
