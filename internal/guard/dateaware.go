package guard

import (
	"regexp"
	"strings"
	"time"

	"github.com/gzhole/toolguard/internal/audit"
	"github.com/gzhole/toolguard/internal/normalize"
	"github.com/gzhole/toolguard/internal/policy"
	"github.com/gzhole/toolguard/internal/request"
)

// Heuristic calendar references. RE2 keeps these linear on any input.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\bq[1-4]\s+\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`(?i)\b(by|in|on|before|after)\s+(end\s+of\s+)?\d{4}\b`),
	regexp.MustCompile(`(?i)\b(early|mid|late)\s+\d{4}\b`),
	regexp.MustCompile(`(?i)(next|last|this)\s+(month|quarter|year)`),
	regexp.MustCompile(`(?i)(within|in)\s+\d+\s+(days|weeks|months)`),
}

// ContainsDateReference reports whether text mentions a calendar date or a
// relative period.
func ContainsDateReference(text string) bool {
	for _, re := range datePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsDateQuery reports whether command only prints the current date: a
// single `date` invocation, optionally with a +FORMAT or display flags,
// and never one that sets the clock.
func IsDateQuery(command string) bool {
	parsed := normalize.ParseDepth(strings.TrimSpace(command), 1)
	if len(parsed.Segments) != 1 || len(parsed.Subcommands) != 0 {
		return false
	}
	seg := parsed.Segments[0]
	if seg.Executable != "date" || len(seg.Redirects) != 0 {
		return false
	}
	if seg.HasFlag("s", "set") {
		return false
	}
	for _, a := range seg.Args {
		if !strings.HasPrefix(a, "+") {
			return false
		}
	}
	return true
}

func isDateQueryEntry(e audit.Entry) bool {
	req := e.Request()
	return req.Kind == request.KindExecute && IsDateQuery(req.Command)
}

func dateAwarenessChecker(window time.Duration) func(request.Request, policy.Env) (policy.Finding, bool) {
	return func(req request.Request, env policy.Env) (policy.Finding, bool) {
		if !ContainsDateReference(req.Text()) {
			return policy.Finding{}, false
		}
		if env.History != nil {
			found, err := env.History.RecentMatching(env.Now, window, isDateQueryEntry)
			if err == nil && found {
				return policy.Finding{}, false
			}
		}
		return policy.Finding{
			Reasons: []string{
				"Date Awareness Check: Content contains date references",
				"WARNING: You're writing date-sensitive content without verifying the current date!",
			},
			Suggestions: []string{
				"Recommendation: Run 'date' command first to ensure accuracy",
				"Common date hallucination patterns detected:",
				"  • Month/Year references (e.g., 'January 2025')",
				"  • Quarter references (e.g., 'Q1 2025')",
				"  • Relative dates (e.g., 'next quarter', 'by end of 2025')",
				"To proceed accurately: Run the Bash tool with command 'date' first",
			},
		}, true
	}
}
