package main

import (
	"fmt"
	"strings"

	"github.com/peterh/liner"

	"sheetctl/internal/editor"
)

// newPrompter returns a configured liner instance. Callers must Close it.
func newPrompter() *liner.State {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return line
}

// promptValue fills dest from an interactive prompt when it is empty.
func promptValue(line *liner.State, label string, dest *string) error {
	if *dest != "" {
		return nil
	}
	value, err := line.Prompt(label)
	if err != nil {
		return promptError(err)
	}
	*dest = strings.TrimSpace(value)
	return nil
}

// promptSecret fills dest from a no-echo prompt when it is empty.
func promptSecret(line *liner.State, label string, dest *string) error {
	if *dest != "" {
		return nil
	}
	value, err := line.PasswordPrompt(label)
	if err != nil {
		return promptError(err)
	}
	*dest = value
	return nil
}

func promptError(err error) error {
	if err == liner.ErrPromptAborted {
		return fmt.Errorf("cancelled")
	}
	return err
}

// confirmAction asks a yes/no question. It reports false without error
// when the user declines. With force set the question is skipped; without
// a terminal it refuses instead of blocking.
func confirmAction(question string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if !editor.IsInteractive() {
		return false, fmt.Errorf("stdin is not a terminal, pass --force to skip confirmation")
	}

	line := newPrompter()
	defer line.Close()

	answer, err := line.Prompt(question + " (yes/no): ")
	if err != nil {
		return false, promptError(err)
	}
	switch strings.TrimSpace(strings.ToLower(answer)) {
	case "yes", "y":
		return true, nil
	}
	return false, nil
}
