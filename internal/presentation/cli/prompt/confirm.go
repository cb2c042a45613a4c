// Package prompt provides the interactive confirmation dialogs guarding
// destructive sync steps.
package prompt

import (
	"github.com/charmbracelet/huh"
)

// Confirmer answers yes/no questions. AssumeYes short-circuits every
// question for scripted use (--yes).
type Confirmer struct {
	AssumeYes bool
}

// NewConfirmer creates a confirmer.
func NewConfirmer(assumeYes bool) *Confirmer {
	return &Confirmer{AssumeYes: assumeYes}
}

// Confirm asks the user a yes/no question and returns the answer. A failed
// prompt (no terminal, interrupt) counts as a decline: destructive steps
// need an explicit yes.
func (c *Confirmer) Confirm(message string) bool {
	if c.AssumeYes {
		return true
	}

	var confirmed bool
	err := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false
	}
	return confirmed
}
