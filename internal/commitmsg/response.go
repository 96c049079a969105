package commitmsg

import (
	"fmt"
	"strings"
)

// Response is the JSON a commit hook prints.
type Response struct {
	Approve bool   `json:"approve"`
	Message string `json:"message"`
}

// Approve builds a passing response listing details.
func Approve(details []string) Response {
	msg := "✅ Commit message validation passed"
	if len(details) > 0 {
		msg += "\n" + strings.Join(details, "\n")
	}
	return Response{Approve: true, Message: msg}
}

// Block builds a rejecting response followed by the format reference.
func (v *Validator) Block(errs, suggestions []string) Response {
	var lines []string
	lines = append(lines, "❌ Invalid commit message format:")
	for _, e := range errs {
		lines = append(lines, "  - "+e)
	}
	lines = append(lines, "")
	for _, s := range suggestions {
		lines = append(lines, "  "+s)
	}
	lines = append(lines, "", "Commit format: type(scope): subject", "", "Types:")
	for _, t := range v.rules.Types {
		doc := typeDocs[t]
		if doc == "" {
			doc = "Project-specific type"
		}
		lines = append(lines, fmt.Sprintf("  %-8s - %s", t, doc))
	}
	lines = append(lines, "", "Example: feat(providers): add location filter to provider list")
	return Response{Approve: false, Message: strings.Join(lines, "\n")}
}

// Failed approves with the error that kept validation from running.
func Failed(err error) Response {
	return Response{Approve: true, Message: fmt.Sprintf("Commit validator error: %v", err)}
}
