package policy

import (
	"time"

	"github.com/gzhole/toolguard/internal/audit"
	"github.com/gzhole/toolguard/internal/request"
)

// Outcome is the final answer for one request.
type Outcome string

const (
	OutcomeAllow Outcome = "ALLOW"
	OutcomeBlock Outcome = "BLOCK"
)

// Severity is what a guard does when it fires.
type Severity string

const (
	SeverityBlock Severity = "BLOCK"
	SeverityWarn  Severity = "WARN"
)

// Finding is what a guard reports when it fires.
type Finding struct {
	Reasons     []string
	Suggestions []string
}

// Verdict is a Finding stamped with the guard that produced it and the
// guard's severity.
type Verdict struct {
	Guard       string
	Severity    Severity
	Reasons     []string
	Suggestions []string
}

// Messages returns reasons followed by suggestions.
func (v Verdict) Messages() []string {
	msgs := make([]string, 0, len(v.Reasons)+len(v.Suggestions))
	msgs = append(msgs, v.Reasons...)
	return append(msgs, v.Suggestions...)
}

// Decision is the aggregate result for one request.
type Decision struct {
	Outcome   Outcome
	Messages  []string
	Triggered []string
	Verdicts  []Verdict
}

// Blocked reports whether the request must not run.
func (d Decision) Blocked() bool { return d.Outcome == OutcomeBlock }

// Env is the read-only context a guard may consult besides the request.
type Env struct {
	History audit.Reader
	Now     time.Time
}

// Guard is one independent rule. Check is only called for requests whose
// kind the guard applies to; a blocking guard's verdict stops evaluation.
type Guard interface {
	Name() string
	Severity() Severity
	AppliesTo(kind request.Kind) bool
	Check(req request.Request, env Env) (Finding, bool)
}
