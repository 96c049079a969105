// Package commitmsg validates git commit messages proposed through a shell
// command against the conventional-commit format.
package commitmsg

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gzhole/toolguard/internal/request"
)

var (
	singleQuoted = regexp.MustCompile(`-m\s+'([^']+)'`)
	doubleQuoted = regexp.MustCompile(`-m\s+"([^"]+)"`)
	heredoc      = regexp.MustCompile(`cat\s*<<\s*['"]?EOF['"]?\s*([\s\S]*?)\s*EOF`)

	conventional = regexp.MustCompile(`^(\w+)(?:\(([^)]+)\))?:\s*(.+)$`)
)

var pastTense = map[string]bool{
	"added": true, "updated": true, "fixed": true, "removed": true,
	"implemented": true, "created": true, "deleted": true, "improved": true,
	"refactored": true, "changed": true, "moved": true, "renamed": true,
}

var typeDocs = map[string]string{
	"feat":     "New feature",
	"fix":      "Bug fix",
	"docs":     "Documentation only",
	"style":    "Code style changes",
	"refactor": "Code refactoring",
	"test":     "Add/update tests",
	"chore":    "Maintenance tasks",
}

// Rules are the tunable limits of the format.
type Rules struct {
	Types      []string
	MaxScope   int
	MaxSubject int
}

// DefaultRules returns the stock conventional-commit rules.
func DefaultRules() Rules {
	return Rules{
		Types:      []string{"feat", "fix", "docs", "style", "refactor", "test", "chore"},
		MaxScope:   20,
		MaxSubject: 50,
	}
}

// Result is the outcome of checking one message line.
type Result struct {
	Errors      []string
	Suggestions []string
	Details     []string
}

// Valid reports whether no rule was violated.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Validator checks commit commands.
type Validator struct {
	rules Rules
	types map[string]bool
}

// New returns a Validator. Zero fields of rules take their defaults.
func New(rules Rules) *Validator {
	def := DefaultRules()
	if len(rules.Types) == 0 {
		rules.Types = def.Types
	}
	if rules.MaxScope <= 0 {
		rules.MaxScope = def.MaxScope
	}
	if rules.MaxSubject <= 0 {
		rules.MaxSubject = def.MaxSubject
	}
	v := &Validator{rules: rules, types: make(map[string]bool, len(rules.Types))}
	for _, t := range rules.Types {
		v.types[t] = true
	}
	return v
}

// IsCommitCommand reports whether command looks like a git commit,
// including the common `git cm` and `gc -m` aliases.
func IsCommitCommand(command string) bool {
	return strings.Contains(command, "git commit") ||
		strings.Contains(command, "git cm") ||
		strings.Contains(command, "gc -m")
}

// ExtractMessage returns the first line of the commit message in command,
// or "" when none of the supported forms is present.
func ExtractMessage(command string) string {
	var msg string
	if m := singleQuoted.FindStringSubmatch(command); m != nil {
		msg = m[1]
	} else if m := doubleQuoted.FindStringSubmatch(command); m != nil {
		msg = m[1]
	} else if m := heredoc.FindStringSubmatch(command); m != nil {
		msg = strings.TrimSpace(m[1])
	}
	first, _, _ := strings.Cut(msg, "\n")
	return strings.TrimSpace(first)
}

// Evaluate checks req. Anything that is not a commit, or whose message
// cannot be extracted, is approved.
func (v *Validator) Evaluate(req request.Request) Response {
	if req.Kind != request.KindExecute || !IsCommitCommand(req.Command) {
		return Approve(nil)
	}
	msg := ExtractMessage(req.Command)
	if msg == "" {
		return Approve(nil)
	}
	res := v.Validate(msg)
	if res.Valid() {
		return Approve(res.Details)
	}
	return v.Block(res.Errors, res.Suggestions)
}

// Validate checks a single message line.
func (v *Validator) Validate(msg string) Result {
	var res Result
	if msg == "" {
		res.Errors = append(res.Errors, "Commit message cannot be empty")
		return res
	}

	m := conventional.FindStringSubmatch(msg)
	if m == nil {
		res.Errors = append(res.Errors, "Commit message must follow conventional format: type(scope): subject")
		res.Suggestions = append(res.Suggestions,
			"Examples:",
			"  feat(auth): add login functionality",
			"  fix: resolve memory leak in provider list",
			"  docs(api): update REST endpoint documentation",
		)
		// The whole line stands in for the subject so style problems are
		// reported in the same pass.
		v.checkSubject(&res, msg)
		return res
	}

	typ, scope, subject := m[1], m[2], m[3]
	if v.types[typ] {
		res.Details = append(res.Details, fmt.Sprintf("Type: %s ✓", typ))
	} else {
		res.Errors = append(res.Errors, fmt.Sprintf("Invalid commit type '%s'", typ))
		res.Suggestions = append(res.Suggestions, "Valid types: "+strings.Join(v.rules.Types, ", "))
	}

	switch {
	case scope != "" && utf8.RuneCountInString(scope) > v.rules.MaxScope:
		res.Errors = append(res.Errors, fmt.Sprintf("Scope should be concise (max %d characters)", v.rules.MaxScope))
	case scope != "":
		res.Details = append(res.Details, fmt.Sprintf("Scope: %s ✓", scope))
	case typ == "feat" || typ == "fix":
		res.Suggestions = append(res.Suggestions, "Consider adding a scope for better context")
	}

	v.checkSubject(&res, subject)
	if res.Valid() {
		res.Details = append(res.Details, fmt.Sprintf("Subject: \"%s\" ✓", subject))
	}
	return res
}

func (v *Validator) checkSubject(res *Result, subject string) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		res.Errors = append(res.Errors, "Subject cannot be empty")
		return
	}
	if first, _ := utf8.DecodeRuneInString(subject); first <= unicode.MaxASCII && unicode.IsUpper(first) {
		res.Errors = append(res.Errors, "Subject should start with lowercase letter")
	}
	if strings.ContainsAny(subject[len(subject)-1:], ".!?") {
		res.Errors = append(res.Errors, "Subject should not end with punctuation")
	}
	if n := utf8.RuneCountInString(subject); n > v.rules.MaxSubject {
		res.Suggestions = append(res.Suggestions, fmt.Sprintf("Subject is %d characters (recommended: max %d)", n, v.rules.MaxSubject))
	}
	if pastTense[strings.ToLower(strings.Fields(subject)[0])] {
		res.Errors = append(res.Errors, `Use imperative mood in subject (e.g., "add" not "added")`)
	}
}
