// Package approval asks the person at the terminal to confirm a change
// before toolguard makes it.
package approval

import (
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

type Result struct {
	Approved   bool
	UserAction string
}

type Prompt struct {
	Title   string
	Details []string
}

// Asker runs confirmations. The zero value is not usable; see Default.
type Asker struct {
	Interactive func() bool
	Confirm     func(p Prompt) (bool, error)
}

// Default asks on the controlling terminal with a huh confirm form.
func Default() Asker {
	return Asker{Interactive: IsInteractive, Confirm: confirmForm}
}

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Ask shows p and waits for an answer. Without a terminal it denies.
func (a Asker) Ask(p Prompt) Result {
	if !a.Interactive() {
		return Result{
			Approved:   false,
			UserAction: "auto_deny_non_interactive",
		}
	}

	ok, err := a.Confirm(p)
	switch {
	case err != nil:
		return Result{Approved: false, UserAction: "error_reading_input"}
	case ok:
		return Result{Approved: true, UserAction: "approve"}
	default:
		return Result{Approved: false, UserAction: "deny"}
	}
}

func confirmForm(p Prompt) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(p.Title).
				Description(strings.Join(p.Details, "\n")).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}
