package tui

import (
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Prompt asks yes/no questions through a styled form. It satisfies the
// dependency resolver's Confirmer interface.
type Prompt struct {
	// Accessible forces plain sequential output. Auto-enabled when
	// stdout is not a terminal.
	Accessible bool

	// DefaultAnswer is returned without prompting when AssumeDefault
	// is set, so scripted runs never block on input.
	AssumeDefault bool
	DefaultAnswer bool
}

// Confirm shows a yes/no form and reports the choice.
func (p *Prompt) Confirm(prompt string) (bool, error) {
	if p.AssumeDefault {
		return p.DefaultAnswer, nil
	}

	answer := p.DefaultAnswer
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	).WithTheme(Theme()).WithAccessible(p.Accessible || !isTerminal())

	if err := form.Run(); err != nil {
		return false, err
	}
	return answer, nil
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
