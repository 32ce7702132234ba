package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/project"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFindsManifestAbove(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "quill.toml"), `
[package]
name = "teleport"
core = "^0.3"

[build]
entry = "Teleport.Main"
profile = "adaptive"
loop_limit = 500
emit = "msgpack"

[sources]
files = ["src", "extra/Util.qs"]
`)
	write(t, filepath.Join(root, "src", "Main.qs"), "")
	write(t, filepath.Join(root, "src", "ops", "Ops.qs"), "")
	write(t, filepath.Join(root, "src", "notes.txt"), "")
	write(t, filepath.Join(root, "extra", "Util.qs"), "")

	m, ok, err := project.Load(filepath.Join(root, "src", "ops"))
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	want := project.BuildConfig{Entry: "Teleport.Main", Profile: "adaptive", LoopLimit: 500, Emit: "msgpack"}
	if diff := cmp.Diff(want, m.Build); diff != "" {
		t.Errorf("build mismatch (-want +got):\n%s", diff)
	}

	files, err := m.SourceFiles()
	if err != nil {
		t.Fatal(err)
	}
	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(root, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	if diff := cmp.Diff([]string{"extra/Util.qs", "src/Main.qs", "src/ops/Ops.qs"}, rel); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWithoutManifest(t *testing.T) {
	_, ok, err := project.Load(t.TempDir())
	if err != nil || ok {
		t.Fatalf("Load = ok %v, err %v", ok, err)
	}
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		is      error
		msg     string
	}{
		{name: "no package", content: "[build]\nentry = \"A.B\"\n", is: project.ErrPackageSectionMissing},
		{name: "no name", content: "[package]\ncore = \"^0.3\"\n", is: project.ErrPackageNameMissing},
		{name: "incompatible core", content: "[package]\nname = \"p\"\ncore = \">=9.0\"\n", msg: "[package].core"},
		{name: "bad constraint", content: "[package]\nname = \"p\"\ncore = \"not a version\"\n", msg: "[package].core"},
		{name: "unknown profile", content: "[package]\nname = \"p\"\n[build]\nprofile = \"quantum\"\n", msg: "unknown profile"},
		{name: "negative limit", content: "[package]\nname = \"p\"\n[build]\nloop_limit = -1\n", msg: "loop_limit"},
		{name: "unknown emit", content: "[package]\nname = \"p\"\n[build]\nemit = \"llvm\"\n", msg: "unknown format"},
		{name: "unknown key", content: "[package]\nname = \"p\"\nauthor = \"me\"\n", msg: "unknown key"},
		{name: "syntax", content: "[package\n", msg: "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "quill.toml")
			write(t, path, tt.content)
			_, err := project.LoadFile(path)
			if err == nil {
				t.Fatal("manifest accepted")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error %v is not %v", err, tt.is)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q lacks %q", err, tt.msg)
			}
		})
	}
}

func TestSourceFilesRejectsOtherExtensions(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "quill.toml"), "[package]\nname = \"p\"\n[sources]\nfiles = [\"main.txt\"]\n")
	write(t, filepath.Join(root, "main.txt"), "")
	m, err := project.LoadFile(filepath.Join(root, "quill.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.SourceFiles(); err == nil {
		t.Errorf("non-.qs source accepted")
	}
}
