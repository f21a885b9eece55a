package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"mtlint/internal/driver"
	"mtlint/internal/ui"
)

type analysisOutcome struct {
	result *driver.Result
	err    error
}

// runAnalysisWithUI drives run in the background while a Bubble Tea model
// renders per-file progress on stdout.
func runAnalysisWithUI(title string, files []string, opts driver.Options, run func(driver.Options) (*driver.Result, error)) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan analysisOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = func(ev driver.Event) {
			events <- ev
		}
		res, err := run(optsCopy)
		outcomeCh <- analysisOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
