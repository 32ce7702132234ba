package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quill/internal/driver"
	"quill/internal/ui"
)

type manyOutcome struct {
	results []*driver.Result
	err     error
}

// compileWithUI runs CompileMany while a progress view follows its phase
// events on stderr.
func compileWithUI(ctx context.Context, jobs []driver.Job, opts driver.Options, workers int) ([]*driver.Result, error) {
	events := make(chan driver.PhaseEvent, 256)
	outcomeCh := make(chan manyOutcome, 1)

	go func() {
		o := opts
		o.Observer = func(ev driver.PhaseEvent) { events <- ev }
		results, err := driver.CompileMany(ctx, jobs, o, workers)
		outcomeCh <- manyOutcome{results: results, err: err}
		close(events)
	}()

	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name
	}
	program := tea.NewProgram(ui.NewProgressModel("building", names, events), tea.WithOutput(os.Stderr), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// освобождаем воркеров, если UI упал раньше
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
