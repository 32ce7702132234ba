package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quill/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path...]",
	Short: "Report diagnostics without producing output",
	Long: `Check runs the pipeline up to the capability check, or through partial
evaluation with --full, and prints the diagnostics.`,
	RunE: runCheck,
}

func init() {
	addCompileFlags(checkCmd)
	checkCmd.Flags().Bool("full", false, "also run partial evaluation")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := resolveBuild(cmd, args)
	if err != nil {
		return err
	}
	return check(cmd, cfg)
}

func check(cmd *cobra.Command, cfg *buildConfig) error {
	full, _ := cmd.Flags().GetBool("full")
	if !full {
		cfg.opts.Until = driver.PhaseCapabilities
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	results, err := compileTargets(cmd, cfg, 0)
	if err != nil {
		return err
	}
	useColor, err := colorEnabled(cmd, os.Stderr)
	if err != nil {
		return err
	}
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	if useColor {
		ok.EnableColor()
		bad.EnableColor()
	} else {
		ok.DisableColor()
		bad.DisableColor()
	}

	failed := false
	for i, res := range results {
		t := cfg.targets[i]
		if err := reportDiagnostics(cmd, res, t.root); err != nil {
			return err
		}
		switch {
		case !res.OK():
			failed = true
			fmt.Fprintf(os.Stderr, "%s %s: failed at %s\n", bad.Sprint("✗"), t.job.Name, res.Failed)
		case !quiet:
			fmt.Fprintf(os.Stderr, "%s %s: ok for %s\n", ok.Sprint("✓"), t.job.Name, cfg.opts.Profile.Name)
		}
	}
	if failed {
		return errCompileFailed
	}
	return nil
}
