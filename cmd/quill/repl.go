package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/capability"
	"quill/internal/driver"
	"quill/internal/rir"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Compile statements and declarations interactively",
	Long: `Repl reads fragments from stdin. A fragment ends at a line where all
braces are closed; each accepted fragment prints the program of every
statement entered so far.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().String("profile", capability.Unrestricted.Name, "target capability profile")
	replCmd.Flags().Int("loop-limit", 0, "maximum statically unrolled loop iterations")
}

func runRepl(cmd *cobra.Command, _ []string) error {
	opts := driver.DefaultOptions()
	name, _ := cmd.Flags().GetString("profile")
	p, err := capability.Lookup(name)
	if err != nil {
		return err
	}
	opts.Profile = p
	if limit, _ := cmd.Flags().GetInt("loop-limit"); limit > 0 {
		opts.LoopLimit = limit
	}
	opts.MaxDiagnostics, _ = cmd.Root().PersistentFlags().GetInt("max-diagnostics")

	session, err := driver.NewSession(opts)
	if err != nil {
		return err
	}
	defer session.Close()

	interactive := isTerminal(os.Stdin)
	return readFragments(os.Stdin, os.Stdout, interactive, func(input string) error {
		res, err := session.Fragment(cmd.Context(), input)
		if err != nil {
			return err
		}
		if err := reportDiagnostics(cmd, res, ""); err != nil {
			return err
		}
		if res.Program != nil {
			return rir.Dump(os.Stdout, res.Program)
		}
		return nil
	})
}

// readFragments splits r into brace-balanced fragments.
func readFragments(r io.Reader, prompt io.Writer, interactive bool, f func(string) error) error {
	sc := bufio.NewScanner(r)
	var buf strings.Builder
	depth := 0
	show := func() {
		if !interactive {
			return
		}
		if depth > 0 || buf.Len() > 0 {
			fmt.Fprint(prompt, "... ")
		} else {
			fmt.Fprint(prompt, "quill> ")
		}
	}
	show()
	for sc.Scan() {
		line := sc.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 && strings.TrimSpace(buf.String()) != "" {
			if err := f(buf.String()); err != nil {
				return err
			}
			buf.Reset()
			depth = 0
		} else if depth <= 0 {
			buf.Reset()
		}
		show()
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(buf.String()) != "" {
		return f(buf.String())
	}
	return nil
}
