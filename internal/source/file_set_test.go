package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/source"
)

func TestFileSetIDsAreDense(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("a.qs", []byte("x"))
	b := fs.Add("<fragment 1>", []byte("y"), source.FileFragment)
	if a != 0 || b != 1 || fs.Len() != 2 {
		t.Fatalf("ids %d %d, len %d", a, b, fs.Len())
	}
	if got := fs.Get(b).Path; got != "<fragment 1>" {
		t.Errorf("fragment path = %q", got)
	}
	if fs.Get(5) != nil {
		t.Error("Get of an unknown id returned a file")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.qs", []byte("ab\ncd\nef"))
	tests := []struct {
		off  uint32
		want source.LineCol
	}{
		{0, source.LineCol{Line: 1, Col: 1}},
		{1, source.LineCol{Line: 1, Col: 2}},
		{2, source.LineCol{Line: 1, Col: 3}},
		{3, source.LineCol{Line: 2, Col: 1}},
		{4, source.LineCol{Line: 2, Col: 2}},
		{7, source.LineCol{Line: 3, Col: 2}},
		{8, source.LineCol{Line: 3, Col: 3}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(source.Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
	if start, end := fs.Resolve(source.Span{File: 9}); start != (source.LineCol{}) || end != (source.LineCol{}) {
		t.Errorf("unknown file resolved to %v %v", start, end)
	}
}

func TestLines(t *testing.T) {
	f := source.NewFileSet()
	id := f.AddVirtual("a.qs", []byte("ab\ncd\n\nef"))
	file := f.Get(id)
	var got []string
	for n := 1; n <= file.Lines()+1; n++ {
		got = append(got, file.Line(uint32(n)))
	}
	if diff := cmp.Diff([]string{"ab", "cd", "", "ef", ""}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if file.Line(0) != "" {
		t.Error("line 0 is not empty")
	}
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.qs")
	raw := append([]byte{0xEF, 0xBB, 0xBF}, "a\r\nb\rc\r\n"...)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f := fs.Get(id)
	if got := string(f.Content); got != "a\nb\rc\n" {
		t.Errorf("content = %q", got)
	}
	if want := source.FileHadBOM | source.FileNormalizedCRLF; f.Flags != want {
		t.Errorf("flags = %b, want %b", f.Flags, want)
	}
	if _, err := fs.Load(filepath.Join(t.TempDir(), "missing.qs")); err == nil {
		t.Error("loading a missing file succeeded")
	}
}

func TestSpanCover(t *testing.T) {
	a := source.Span{File: 1, Start: 4, End: 8}
	b := source.Span{File: 1, Start: 2, End: 5}
	if got := a.Cover(b); got != (source.Span{File: 1, Start: 2, End: 8}) {
		t.Errorf("Cover = %v", got)
	}
	if got := a.Cover(source.Span{File: 2, Start: 0, End: 1}); got != a {
		t.Errorf("Cover across files = %v", got)
	}
}
