package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/capability"
	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/project"
)

const noManifestMessage = "no quill.toml found\nplease name the sources explicitly, e.g.:\n  quill build path/to/Main.qs"

// target is one program to compile and where its manifest, if any, lives.
type target struct {
	job      driver.Job
	manifest *project.Manifest
	root     string
}

type buildConfig struct {
	opts    driver.Options
	emit    string
	targets []target
}

func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "target capability profile ("+strings.Join(capability.Names(), "|")+")")
	cmd.Flags().String("entry", "", "entry callable as Namespace.Name")
	cmd.Flags().Int("loop-limit", 0, "maximum statically unrolled loop iterations")
	cmd.Flags().Bool("cache", false, "reuse compiled programs from the user cache")
}

// resolveBuild turns arguments into compilation targets. No arguments
// means the project around the working directory; a directory argument is
// a project if it has a manifest and a source tree otherwise; file
// arguments form one program. Flags override manifest settings.
func resolveBuild(cmd *cobra.Command, args []string) (*buildConfig, error) {
	targets, err := resolveTargets(args)
	if err != nil {
		return nil, err
	}
	cfg := &buildConfig{opts: driver.DefaultOptions(), emit: "rir", targets: targets}
	if len(targets) == 1 && targets[0].manifest != nil {
		if err := applyManifest(cfg, targets[0].manifest); err != nil {
			return nil, err
		}
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveTargets(args []string) ([]target, error) {
	if len(args) == 0 {
		m, ok, err := project.Load(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(noManifestMessage)
		}
		t, err := manifestTarget(m)
		if err != nil {
			return nil, err
		}
		return []target{t}, nil
	}

	var files []string
	var targets []target
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(arg) != ".qs" {
				return nil, fmt.Errorf("%s: expected a .qs file or a directory", arg)
			}
			files = append(files, arg)
			continue
		}
		manifestPath := filepath.Join(arg, project.ManifestName)
		if _, err := os.Stat(manifestPath); err == nil {
			m, err := project.LoadFile(manifestPath)
			if err != nil {
				return nil, err
			}
			t, err := manifestTarget(m)
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
			continue
		}
		paths, err := driver.ListSources(arg)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("%s: no .qs files", arg)
		}
		targets = append(targets, target{job: driver.Job{Name: filepath.Base(filepath.Clean(arg)), Paths: paths}, root: arg})
	}
	if len(files) > 0 {
		name := strings.TrimSuffix(filepath.Base(files[0]), ".qs")
		targets = append(targets, target{job: driver.Job{Name: name, Paths: files}, root: filepath.Dir(files[0])})
	}
	return targets, nil
}

func manifestTarget(m *project.Manifest) (target, error) {
	paths, err := m.SourceFiles()
	if err != nil {
		return target{}, err
	}
	if len(paths) == 0 {
		return target{}, fmt.Errorf("%s: no .qs sources", m.Path)
	}
	return target{job: driver.Job{Name: m.Package.Name, Paths: paths}, manifest: m, root: m.Root}, nil
}

func applyManifest(cfg *buildConfig, m *project.Manifest) error {
	b := m.Build
	if b.Profile != "" {
		p, err := capability.Lookup(b.Profile)
		if err != nil {
			return err
		}
		cfg.opts.Profile = p
	}
	if b.Entry != "" {
		cfg.opts.Entry = b.Entry
	}
	if b.LoopLimit > 0 {
		cfg.opts.LoopLimit = b.LoopLimit
	}
	if b.Emit != "" {
		cfg.emit = b.Emit
	}
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *buildConfig) error {
	flags := cmd.Flags()
	if flags.Changed("profile") {
		name, _ := flags.GetString("profile")
		p, err := capability.Lookup(name)
		if err != nil {
			return err
		}
		cfg.opts.Profile = p
	}
	if flags.Changed("entry") {
		cfg.opts.Entry, _ = flags.GetString("entry")
	}
	if flags.Changed("loop-limit") {
		limit, _ := flags.GetInt("loop-limit")
		if limit <= 0 {
			return fmt.Errorf("--loop-limit must be positive, got %d", limit)
		}
		cfg.opts.LoopLimit = limit
	}
	if flags.Lookup("emit") != nil && flags.Changed("emit") {
		cfg.emit, _ = flags.GetString("emit")
	}
	switch cfg.emit {
	case "rir", "msgpack", "hir":
	default:
		return fmt.Errorf("unknown --emit format %q (want rir|msgpack|hir)", cfg.emit)
	}

	root := cmd.Root().PersistentFlags()
	var err error
	if cfg.opts.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return err
	}
	if cfg.opts.Timings, err = root.GetBool("timings"); err != nil {
		return err
	}
	useCache, _ := flags.GetBool("cache")
	if useCache && cfg.emit != "hir" {
		if cfg.opts.Cache, err = driver.OpenCache("quill"); err != nil {
			return err
		}
	}
	return nil
}

// colorEnabled resolves --color for output written to f.
func colorEnabled(cmd *cobra.Command, f *os.File) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f), nil
	}
	return false, fmt.Errorf("unknown --color value %q (want auto|on|off)", mode)
}

// reportDiagnostics writes res's diagnostics to stderr in the
// --diag-format layout.
func reportDiagnostics(cmd *cobra.Command, res *driver.Result, baseDir string) error {
	if res.Bag.Len() == 0 {
		return nil
	}
	format, err := cmd.Root().PersistentFlags().GetString("diag-format")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		return diagfmt.JSON(os.Stderr, res.Bag, res.Files, diagfmt.JSONOpts{IncludePositions: true, PathMode: diagfmt.PathModeRelative, BaseDir: baseDir})
	case "pretty":
		useColor, err := colorEnabled(cmd, os.Stderr)
		if err != nil {
			return err
		}
		diagfmt.Pretty(os.Stderr, res.Bag, res.Files, diagfmt.PrettyOpts{
			Color:     useColor,
			Context:   1,
			PathMode:  diagfmt.PathModeRelative,
			BaseDir:   baseDir,
			ShowNotes: true,
		})
		if n := res.Bag.Dropped(); n > 0 {
			fmt.Fprintf(os.Stderr, "%d more diagnostics not shown (raise --max-diagnostics)\n", n)
		}
		return nil
	}
	return fmt.Errorf("unknown --diag-format %q (want pretty|json)", format)
}
