package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/driver"
	"quill/internal/hir"
	"quill/internal/observ"
	"quill/internal/rir"
)

var errCompileFailed = errors.New("compilation failed")

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path...]",
	Short: "Compile programs to the runtime instruction form",
	Long: `Build compiles a program for the target profile and writes the result.
With no path the project around the working directory is built; several
project directories are compiled concurrently.`,
	RunE: runBuild,
}

func init() {
	addCompileFlags(buildCmd)
	buildCmd.Flags().String("emit", "rir", "output format (rir|msgpack|hir)")
	buildCmd.Flags().StringP("output", "o", "", "write output to this file instead of stdout")
	buildCmd.Flags().Int("jobs", 0, "parallel compilations (0 = GOMAXPROCS)")
	buildCmd.Flags().String("ui", "auto", "progress view for several targets (auto|on|off)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := resolveBuild(cmd, args)
	if err != nil {
		return err
	}
	if cfg.emit == "hir" {
		cfg.opts.Until = driver.PhasePasses
	}
	output, _ := cmd.Flags().GetString("output")
	if cfg.emit == "msgpack" && output == "" && isTerminal(os.Stdout) {
		return errors.New("refusing to write msgpack to a terminal; use -o")
	}
	if output != "" && len(cfg.targets) > 1 {
		return errors.New("-o needs a single target")
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	results, err := compileTargets(cmd, cfg, jobs)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	failed := false
	var reports []observ.Report
	for i, res := range results {
		t := cfg.targets[i]
		if err := reportDiagnostics(cmd, res, t.root); err != nil {
			return err
		}
		if !res.OK() {
			failed = true
			continue
		}
		if len(results) > 1 && cfg.emit != "msgpack" {
			fmt.Fprintf(&out, "; %s\n", t.job.Name)
		}
		if err := emit(&out, cfg.emit, res); err != nil {
			return err
		}
		reports = append(reports, res.Timings)
		if !quiet {
			useColor, err := colorEnabled(cmd, os.Stderr)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, summaryBox(t.job.Name, cfg.opts, res, useColor))
		}
	}
	if cfg.opts.Timings && len(reports) > 1 {
		fmt.Fprint(os.Stderr, observ.Merge(reports...).Summary())
	}
	if err := writeOutput(output, out.Bytes()); err != nil {
		return err
	}
	if failed {
		return errCompileFailed
	}
	return nil
}

func compileTargets(cmd *cobra.Command, cfg *buildConfig, jobs int) ([]*driver.Result, error) {
	if len(cfg.targets) == 1 {
		res, err := driver.CompileFiles(cmd.Context(), cfg.targets[0].job.Paths, cfg.opts)
		if err != nil {
			return nil, err
		}
		return []*driver.Result{res}, nil
	}
	list := make([]driver.Job, len(cfg.targets))
	for i, t := range cfg.targets {
		list[i] = t.job
	}
	if useUI(cmd) {
		return compileWithUI(cmd.Context(), list, cfg.opts, jobs)
	}
	return driver.CompileMany(cmd.Context(), list, cfg.opts, jobs)
}

func useUI(cmd *cobra.Command) bool {
	if cmd.Flags().Lookup("ui") == nil {
		return false
	}
	mode, _ := cmd.Flags().GetString("ui")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	switch mode {
	case "on":
		return true
	case "auto":
		return !quiet && isTerminal(os.Stderr)
	}
	return false
}

func emit(w io.Writer, format string, res *driver.Result) error {
	switch format {
	case "hir":
		names := func(id hir.ItemID) string { return res.Unit.Resolver.Table().QualifiedName(id) }
		hir.Dump(w, res.Unit.HIR, names)
		return nil
	case "msgpack":
		data, err := driver.EncodeProgram(res.Program)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return rir.Dump(w, res.Program)
	}
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // build artefact
}
