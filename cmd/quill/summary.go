package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"quill/internal/driver"
)

var (
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// summaryBox renders the one-glance result of a successful build.
func summaryBox(name string, opts driver.Options, res *driver.Result, useColor bool) string {
	if useColor {
		lipgloss.SetColorProfile(termenv.ANSI256)
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	rows := [][2]string{
		{"profile", opts.Profile.Name},
		{"qubits", fmt.Sprint(res.Program.NumQubits)},
		{"results", fmt.Sprint(res.Program.NumResults)},
		{"blocks", fmt.Sprint(len(res.Program.Blocks))},
	}
	if res.Cached {
		rows = append(rows, [2]string{"source", "cache"})
	} else {
		rows = append(rows, [2]string{"time", fmt.Sprintf("%.1f ms", res.Timings.TotalMS)})
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("built " + name))
	for _, r := range rows {
		sb.WriteString("\n" + keyStyle.Render(fmt.Sprintf("%-8s", r[0])) + " " + r[1])
	}
	return boxStyle.Render(sb.String())
}
