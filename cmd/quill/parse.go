package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.qs",
	Short: "Parse a source file and list its declarations",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	result, err := driver.Parse(args[0], maxDiagnostics)
	if err != nil {
		return err
	}
	if err := reportDiagnostics(cmd, &driver.Result{Files: result.FileSet, Bag: result.Bag}, ""); err != nil {
		return err
	}
	for _, ns := range result.AST.Namespaces {
		parts := make([]string, len(ns.Name))
		for i, id := range ns.Name {
			parts[i] = id.Name
		}
		fmt.Fprintf(os.Stdout, "namespace %s: %d items\n", strings.Join(parts, "."), len(ns.Items))
	}
	if n := len(result.AST.Stmts); n > 0 {
		fmt.Fprintf(os.Stdout, "top level: %d statements\n", n)
	}
	if result.Bag.HasErrors() {
		return errCompileFailed
	}
	return nil
}
