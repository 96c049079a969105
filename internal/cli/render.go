package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/gzhole/toolguard/internal/policy"
)

// renderer prints decisions for people. Color is on only for terminals
// and never when NO_COLOR is set.
type renderer struct {
	w     io.Writer
	block *color.Color
	warn  *color.Color
	hint  *color.Color
	ok    *color.Color
}

func newRenderer(w io.Writer) *renderer {
	r := &renderer{
		w:     w,
		block: color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		hint:  color.New(color.FgCyan),
		ok:    color.New(color.FgGreen),
	}
	enabled := isTerminal(w) && os.Getenv("NO_COLOR") == ""
	for _, c := range []*color.Color{r.block, r.warn, r.hint, r.ok} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// decision prints every verdict in d: reasons in the verdict's color and
// suggestions as hints.
func (r *renderer) decision(d policy.Decision) {
	if d.Blocked() {
		r.block.Fprintln(r.w, "🛑 BLOCKED by toolguard")
	}
	for _, v := range d.Verdicts {
		head := r.warn
		if v.Severity == policy.SeverityBlock {
			head = r.block
		}
		for _, reason := range v.Reasons {
			head.Fprintln(r.w, reason)
		}
		for _, s := range v.Suggestions {
			r.hint.Fprintln(r.w, s)
		}
		fmt.Fprintln(r.w)
	}
}

// summary prints a one-line outcome, used by check.
func (r *renderer) summary(d policy.Decision) {
	line := fmt.Sprintf("Decision: %s", d.Outcome)
	if len(d.Triggered) > 0 {
		line += " (" + strings.Join(d.Triggered, ", ") + ")"
	}
	switch {
	case d.Blocked():
		r.block.Fprintln(r.w, line)
	case len(d.Triggered) > 0:
		r.warn.Fprintln(r.w, line)
	default:
		r.ok.Fprintln(r.w, line)
	}
}
