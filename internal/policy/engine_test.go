package policy

import (
	"testing"
	"time"

	"github.com/gzhole/toolguard/internal/request"
	"github.com/stretchr/testify/assert"
)

// stubGuard fires whenever fire says so and counts its calls.
type stubGuard struct {
	name     string
	severity Severity
	kinds    []request.Kind
	fire     func(request.Request, Env) bool
	calls    *int
}

func (s stubGuard) Name() string       { return s.name }
func (s stubGuard) Severity() Severity { return s.severity }
func (s stubGuard) AppliesTo(k request.Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	for _, kk := range s.kinds {
		if kk == k {
			return true
		}
	}
	return false
}

func (s stubGuard) Check(req request.Request, env Env) (Finding, bool) {
	if s.calls != nil {
		*s.calls++
	}
	if !s.fire(req, env) {
		return Finding{}, false
	}
	return Finding{
		Reasons:     []string{s.name + " reason"},
		Suggestions: []string{s.name + " suggestion"},
	}, true
}

func always(request.Request, Env) bool { return true }
func never(request.Request, Env) bool  { return false }

func bash(cmd string) request.Request {
	return request.Request{Kind: request.KindExecute, Tool: "Bash", Command: cmd}
}

func TestEngine_NoGuardsFireIsBareAllow(t *testing.T) {
	e := NewEngine([]Guard{
		stubGuard{name: "b", severity: SeverityBlock, fire: never},
		stubGuard{name: "w", severity: SeverityWarn, fire: never},
	})

	d := e.Evaluate(bash("ls"))
	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Empty(t, d.Messages)
	assert.Empty(t, d.Triggered)
	assert.False(t, d.Blocked())
}

func TestEngine_FirstBlockingGuardWins(t *testing.T) {
	var warnCalls, secondCalls int
	e := NewEngine([]Guard{
		stubGuard{name: "warn-first-in-table", severity: SeverityWarn, fire: always, calls: &warnCalls},
		stubGuard{name: "first", severity: SeverityBlock, fire: always},
		stubGuard{name: "second", severity: SeverityBlock, fire: always, calls: &secondCalls},
	})

	d := e.Evaluate(bash("rm -rf /"))
	assert.True(t, d.Blocked())
	assert.Equal(t, []string{"first"}, d.Triggered)
	assert.Equal(t, []string{"first reason", "first suggestion"}, d.Messages)
	assert.Zero(t, secondCalls, "evaluation short-circuits after the first block")
	assert.Zero(t, warnCalls, "warnings are not collected for blocked requests")
}

func TestEngine_WarningsAreConcatenatedInOrder(t *testing.T) {
	e := NewEngine([]Guard{
		stubGuard{name: "w1", severity: SeverityWarn, fire: always},
		stubGuard{name: "b", severity: SeverityBlock, fire: never},
		stubGuard{name: "w2", severity: SeverityWarn, fire: always},
	})

	d := e.Evaluate(bash("ls"))
	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Equal(t, []string{"w1", "w2"}, d.Triggered)
	assert.Equal(t, []string{"w1 reason", "w1 suggestion", "w2 reason", "w2 suggestion"}, d.Messages)
	assert.Len(t, d.Verdicts, 2)
	assert.Equal(t, SeverityWarn, d.Verdicts[0].Severity)
}

func TestEngine_GuardsOnlySeeTheirKinds(t *testing.T) {
	var calls int
	e := NewEngine([]Guard{
		stubGuard{name: "files", severity: SeverityBlock, kinds: []request.Kind{request.KindWrite}, fire: always, calls: &calls},
	})

	d := e.Evaluate(bash("ls"))
	assert.False(t, d.Blocked())
	assert.Zero(t, calls)
}

func TestEngine_PanickingGuardFailsOpen(t *testing.T) {
	e := NewEngine([]Guard{
		stubGuard{name: "broken", severity: SeverityBlock, fire: func(request.Request, Env) bool { panic("boom") }},
		stubGuard{name: "w", severity: SeverityWarn, fire: always},
	})

	d := e.Evaluate(bash("ls"))
	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Equal(t, []string{"w"}, d.Triggered)
}

func TestEngine_ClockAndHistoryReachGuards(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var seen Env
	e := NewEngine([]Guard{
		stubGuard{name: "w", severity: SeverityWarn, fire: func(_ request.Request, env Env) bool {
			seen = env
			return false
		}},
	}, WithClock(func() time.Time { return fixed }))

	e.Evaluate(bash("ls"))
	assert.Equal(t, fixed, seen.Now)
	found, err := seen.History.RecentMatching(fixed, time.Minute, nil)
	assert.NoError(t, err)
	assert.False(t, found, "default history is empty")
}

func TestEngine_Deterministic(t *testing.T) {
	e := NewEngine([]Guard{
		stubGuard{name: "w1", severity: SeverityWarn, fire: always},
		stubGuard{name: "w2", severity: SeverityWarn, fire: always},
	}, WithClock(func() time.Time { return time.Unix(0, 0) }))

	first := e.Evaluate(bash("echo hi"))
	second := e.Evaluate(bash("echo hi"))
	assert.Equal(t, first, second)
}

func TestExplanation(t *testing.T) {
	d := Decision{
		Outcome:   OutcomeBlock,
		Triggered: []string{"dangerous-command"},
		Verdicts: []Verdict{{
			Guard:       "dangerous-command",
			Severity:    SeverityBlock,
			Reasons:     []string{"Dangerous rm command detected"},
			Suggestions: []string{"Use explicit paths"},
		}},
	}
	out := Explanation(d)
	assert.Contains(t, out, "Decision: BLOCK")
	assert.Contains(t, out, "Triggered guards: dangerous-command")
	assert.Contains(t, out, "  - Dangerous rm command detected")
}
