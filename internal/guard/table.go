// Package guard holds the built-in guard rules and the ordered table the
// policy engine runs them from.
package guard

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/gzhole/toolguard/internal/config"
	"github.com/gzhole/toolguard/internal/policy"
	"github.com/gzhole/toolguard/internal/request"
)

// Guard names, in evaluation order.
const (
	NameDangerousCommand = "dangerous-command"
	NameSensitiveFile    = "sensitive-file"
	NameRootStructure    = "root-structure"
	NameCommandTemplate  = "command-template"
	NameDateAwareness    = "date-awareness"
)

var fileWrites = []request.Kind{request.KindWrite, request.KindEdit, request.KindMultiEdit}

// Rule is one row of the guard table. It satisfies policy.Guard.
type Rule struct {
	ID    string
	Level policy.Severity
	Kinds []request.Kind
	Match func(req request.Request, env policy.Env) (policy.Finding, bool)
}

func (r Rule) Name() string              { return r.ID }
func (r Rule) Severity() policy.Severity { return r.Level }

func (r Rule) AppliesTo(kind request.Kind) bool {
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (r Rule) Check(req request.Request, env policy.Env) (policy.Finding, bool) {
	return r.Match(req, env)
}

// Options parameterizes the built-in rules.
type Options struct {
	ProjectRoot        string
	AllowedMarkdown    []string
	ForbiddenPatterns  []string
	CommandsDir        string
	TemplateCandidates []string
	DateWindow         time.Duration

	// Exists reports whether a template candidate is present. Defaults to
	// an os.Stat check relative to the working directory.
	Exists func(path string) bool
}

// OptionsFromConfig maps the loaded configuration onto rule options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ProjectRoot:        cfg.ProjectRoot,
		AllowedMarkdown:    cfg.Structure.AllowedMarkdown,
		ForbiddenPatterns:  cfg.Structure.ForbiddenPatterns,
		CommandsDir:        cfg.Commands.Dir,
		TemplateCandidates: cfg.Commands.TemplateCandidates,
		DateWindow:         cfg.Audit.DateWindow,
	}
}

// Table returns the guards in priority order: the blocking rules first,
// then the warn-only ones. Invalid user patterns are skipped and reported
// in the returned error; the table is usable either way.
func Table(opts Options) ([]policy.Guard, error) {
	if opts.Exists == nil {
		opts.Exists = fileExists
	}
	if opts.DateWindow <= 0 {
		opts.DateWindow = 5 * time.Minute
	}
	if opts.CommandsDir == "" {
		opts.CommandsDir = config.DefaultCommandsDir
	}

	extra, err := compilePatterns(opts.ForbiddenPatterns)
	structure := newStructureGuard(opts, extra)

	return []policy.Guard{
		Rule{
			ID:    NameDangerousCommand,
			Level: policy.SeverityBlock,
			Kinds: []request.Kind{request.KindExecute},
			Match: checkDangerousCommand,
		},
		Rule{
			ID:    NameSensitiveFile,
			Level: policy.SeverityBlock,
			Kinds: append([]request.Kind{request.KindExecute}, fileWrites...),
			Match: checkSensitiveFile,
		},
		Rule{
			ID:    NameRootStructure,
			Level: policy.SeverityBlock,
			Kinds: fileWrites,
			Match: structure.check,
		},
		Rule{
			ID:    NameCommandTemplate,
			Level: policy.SeverityWarn,
			Kinds: fileWrites,
			Match: commandTemplateChecker(opts),
		},
		Rule{
			ID:    NameDateAwareness,
			Level: policy.SeverityWarn,
			Kinds: fileWrites,
			Match: dateAwarenessChecker(opts.DateWindow),
		},
	}, err
}

func compilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	var errs []error
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("forbidden pattern %q: %w", expr, err))
			continue
		}
		out = append(out, re)
	}
	return out, errors.Join(errs...)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
