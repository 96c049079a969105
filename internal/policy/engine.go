package policy

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gzhole/toolguard/internal/audit"
	"github.com/gzhole/toolguard/internal/request"
)

// Engine runs guards in a fixed priority order and folds their verdicts
// into one Decision.
type Engine struct {
	blocking []Guard
	warning  []Guard
	history  audit.Reader
	now      func() time.Time
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistory gives guards read access to the audit log.
func WithHistory(r audit.Reader) Option {
	return func(e *Engine) { e.history = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets where recovered guard faults are reported.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine builds an engine over guards. Blocking guards keep their
// relative order and always run before warn-only ones.
func NewEngine(guards []Guard, opts ...Option) *Engine {
	e := &Engine{
		history: noHistory{},
		now:     time.Now,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, g := range guards {
		if g.Severity() == SeverityBlock {
			e.blocking = append(e.blocking, g)
		} else {
			e.warning = append(e.warning, g)
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides req. The first blocking verdict wins outright; if none
// fires, every warning is collected into an Allow.
func (e *Engine) Evaluate(req request.Request) Decision {
	env := Env{History: e.history, Now: e.now()}

	for _, g := range e.blocking {
		if v, ok := e.run(g, req, env); ok {
			return Decision{
				Outcome:   OutcomeBlock,
				Messages:  v.Messages(),
				Triggered: []string{v.Guard},
				Verdicts:  []Verdict{v},
			}
		}
	}

	d := Decision{Outcome: OutcomeAllow}
	for _, g := range e.warning {
		if v, ok := e.run(g, req, env); ok {
			d.Messages = append(d.Messages, v.Messages()...)
			d.Triggered = append(d.Triggered, v.Guard)
			d.Verdicts = append(d.Verdicts, v)
		}
	}
	return d
}

// run evaluates one guard. A panicking guard counts as not firing.
func (e *Engine) run(g Guard, req request.Request, env Env) (v Verdict, ok bool) {
	if !g.AppliesTo(req.Kind) {
		return Verdict{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("guard failed, skipping", "guard", g.Name(), "panic", fmt.Sprint(r))
			v, ok = Verdict{}, false
		}
	}()

	f, hit := g.Check(req, env)
	if !hit {
		return Verdict{}, false
	}
	e.log.Debug("guard fired", "guard", g.Name(), "severity", g.Severity())
	return Verdict{
		Guard:       g.Name(),
		Severity:    g.Severity(),
		Reasons:     f.Reasons,
		Suggestions: f.Suggestions,
	}, true
}

// Explanation renders a plain-text summary of d.
func Explanation(d Decision) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Decision: %s\n", d.Outcome)
	if len(d.Triggered) > 0 {
		fmt.Fprintf(&sb, "Triggered guards: %s\n", strings.Join(d.Triggered, ", "))
	}
	for _, v := range d.Verdicts {
		for _, r := range v.Reasons {
			fmt.Fprintf(&sb, "  - %s\n", r)
		}
		for _, s := range v.Suggestions {
			fmt.Fprintf(&sb, "    %s\n", s)
		}
	}
	return sb.String()
}

// noHistory is the empty audit log.
type noHistory struct{}

func (noHistory) RecentMatching(time.Time, time.Duration, func(audit.Entry) bool) (bool, error) {
	return false, nil
}
