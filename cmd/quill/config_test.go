package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"quill/internal/capability"
)

func testCommand(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "quill"}
	root.PersistentFlags().Int("max-diagnostics", 100, "")
	root.PersistentFlags().Bool("timings", false, "")
	cmd := &cobra.Command{Use: "build"}
	addCompileFlags(cmd)
	cmd.Flags().String("emit", "rir", "")
	root.AddCommand(cmd)
	if err := cmd.ParseFlags(flags); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestResolveBuildManifestAndFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "quill.toml"), `
[package]
name = "demo"

[build]
entry = "Demo.Main"
profile = "base"
loop_limit = 10
emit = "hir"
`)
	writeFile(t, filepath.Join(dir, "src", "Main.qs"), "")

	cfg, err := resolveBuild(testCommand(t, "--profile", "adaptive"), []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.targets) != 1 || cfg.targets[0].job.Name != "demo" {
		t.Fatalf("targets = %+v", cfg.targets)
	}
	if cfg.opts.Profile != capability.AdaptiveRI {
		t.Errorf("profile = %s, flag must win", cfg.opts.Profile.Name)
	}
	if cfg.opts.Entry != "Demo.Main" || cfg.opts.LoopLimit != 10 || cfg.emit != "hir" {
		t.Errorf("manifest settings lost: %+v emit=%s", cfg.opts, cfg.emit)
	}
}

func TestResolveBuildTargets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "A.qs"), "")
	writeFile(t, filepath.Join(dir, "b", "B.qs"), "")
	writeFile(t, filepath.Join(dir, "One.qs"), "")
	writeFile(t, filepath.Join(dir, "Two.qs"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	cfg, err := resolveBuild(testCommand(t), []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.targets) != 2 {
		t.Fatalf("got %d targets", len(cfg.targets))
	}

	cfg, err = resolveBuild(testCommand(t), []string{filepath.Join(dir, "One.qs"), filepath.Join(dir, "Two.qs")})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.targets) != 1 || len(cfg.targets[0].job.Paths) != 2 || cfg.targets[0].job.Name != "One" {
		t.Errorf("files did not form one program: %+v", cfg.targets)
	}

	tests := []struct {
		name  string
		flags []string
		args  []string
	}{
		{name: "other extension", args: []string{filepath.Join(dir, "notes.txt")}},
		{name: "missing path", args: []string{filepath.Join(dir, "nope")}},
		{name: "unknown profile", flags: []string{"--profile", "quantum"}, args: []string{filepath.Join(dir, "One.qs")}},
		{name: "bad loop limit", flags: []string{"--loop-limit", "0"}, args: []string{filepath.Join(dir, "One.qs")}},
		{name: "unknown emit", flags: []string{"--emit", "llvm"}, args: []string{filepath.Join(dir, "One.qs")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resolveBuild(testCommand(t, tt.flags...), tt.args); err == nil {
				t.Errorf("accepted")
			}
		})
	}
}
