package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/source"
)

const program = "namespace Test {\n    operation Main() : Unit {\n        Missing();\n    }\n}\n"

func fixture(t *testing.T, path string) (*source.FileSet, *diag.Bag, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(path, []byte(program))
	start := uint32(strings.Index(program, "Missing")) //nolint:gosec // small constant
	bag := diag.NewBag(0)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ResNotFound,
		Message:  "`Missing` not found",
		Primary:  source.Span{File: id, Start: start, End: start + 7},
		Notes:    []diag.Note{{Span: source.Span{File: id, Start: 21, End: 30}, Msg: "inside this operation"}},
	})
	return fs, bag, id
}

func TestPrettyUnderlinesSpan(t *testing.T) {
	fs, bag, _ := fixture(t, "src/main.qs")
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{Context: 1, ShowNotes: true})

	want := strings.Join([]string{
		"src/main.qs:3:9: ERROR RES3001: `Missing` not found",
		" 2 |     operation Main() : Unit {",
		" 3 |         Missing();",
		"   |         ^~~~~~~",
		" 4 |     }",
		"  note: src/main.qs:2:5: inside this operation",
		" 2 |     operation Main() : Unit {",
		"   |     ^~~~~~~~~",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrettyAlignsWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	src := "let s = \"量子\"; Oops();\n"
	id := fs.AddVirtual("wide.qs", []byte(src))
	start := uint32(strings.Index(src, "Oops")) //nolint:gosec // small constant
	bag := diag.NewBag(0)
	bag.Add(diag.Diagnostic{Severity: diag.SevWarning, Code: diag.ResNotFound, Message: "m", Primary: source.Span{File: id, Start: start, End: start + 4}})

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("output:\n%s", buf.String())
	}
	// the two CJK runes take two cells each
	caret := strings.Index(lines[2], "^")
	text := strings.Index(lines[1], "let")
	if got, want := caret-text, len(`let s = "`)+4+len(`"; `); got != want {
		t.Errorf("caret at cell %d, want %d:\n%s", got, want, buf.String())
	}
}

func TestPrettyWithoutLocation(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.Diagnostic{Severity: diag.SevError, Code: diag.PEMissingEntryPoint, Message: "no entry point"})
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, source.NewFileSet(), diagfmt.PrettyOpts{})
	if diff := cmp.Diff("ERROR PEV7007: no entry point\n", buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestPathModes(t *testing.T) {
	tests := []struct {
		name string
		path string
		opts diagfmt.PrettyOpts
		want string
	}{
		{name: "relative", path: "/home/user/project/src/main.qs", opts: diagfmt.PrettyOpts{PathMode: diagfmt.PathModeRelative, BaseDir: "/home/user/project"}, want: "src/main.qs:3:9:"},
		{name: "basename", path: "/home/user/project/src/main.qs", opts: diagfmt.PrettyOpts{PathMode: diagfmt.PathModeBasename}, want: "main.qs:3:9:"},
		{name: "auto long", path: "/very/long/absolute/path/to/some/nested/directory/main.qs", want: "main.qs:3:9:"},
		{name: "auto short", path: "main.qs", want: "main.qs:3:9:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, bag, _ := fixture(t, tt.path)
			var buf bytes.Buffer
			diagfmt.Pretty(&buf, bag, fs, tt.opts)
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Errorf("output does not start with %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestJSON(t *testing.T) {
	fs, bag, _ := fixture(t, "main.qs")
	bag.Add(diag.Diagnostic{Severity: diag.SevError, Code: diag.PEMissingEntryPoint, Message: "no entry point"})

	var buf bytes.Buffer
	if err := diagfmt.JSON(&buf, bag, fs, diagfmt.JSONOpts{IncludePositions: true, Max: 1}); err != nil {
		t.Fatal(err)
	}
	var got diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := diagfmt.DiagnosticsOutput{
		Count: 1,
		Diagnostics: []diagfmt.DiagnosticJSON{{
			Severity: "ERROR",
			Code:     "RES3001",
			Title:    diag.ResNotFound.Title(),
			Message:  "`Missing` not found",
			Location: &diagfmt.LocationJSON{File: "main.qs", StartByte: 55, EndByte: 62, StartLine: 3, StartCol: 9, EndLine: 3, EndCol: 16},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestFragmentPathsKeptAsIs(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("<fragment 3>", []byte("H(q"), source.FileFragment)
	bag := diag.NewBag(0)
	bag.Add(diag.Diagnostic{Severity: diag.SevError, Code: diag.SynUnclosedDelim, Message: "unclosed `(`", Primary: source.Span{File: id, Start: 3, End: 3}})
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{PathMode: diagfmt.PathModeAbsolute})
	if !strings.HasPrefix(buf.String(), "<fragment 3>:1:4: ERROR") {
		t.Errorf("unexpected header:\n%s", buf.String())
	}
}
