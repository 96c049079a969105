package guard

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gzhole/toolguard/internal/normalize"
	"github.com/gzhole/toolguard/internal/policy"
	"github.com/gzhole/toolguard/internal/request"
)

var defaultAllowedMarkdown = []string{
	"README.md", "CHANGELOG.md", "CLAUDE.md", "ROADMAP.md", "SECURITY.md", "LICENSE.md",
}

type rootPattern struct {
	re   *regexp.Regexp
	kind string
	dir  string
}

// Anchored; matched against the bare file name only.
var builtinRootPatterns = []rootPattern{
	{regexp.MustCompile(`^jest\.config.*\.js$`), "config file", "config/"},
	{regexp.MustCompile(`^babel\.config\.js$`), "config file", "config/"},
	{regexp.MustCompile(`^webpack\.config.*\.js$`), "config file", "config/"},
	{regexp.MustCompile(`^tsconfig.*\.json$`), "config file", "config/"},
	{regexp.MustCompile(`^docker-compose\.ya?ml$`), "config file", "config/"},
	{regexp.MustCompile(`^Dockerfile`), "config file", "config/"},
	{regexp.MustCompile(`^.*\.sh$`), "script", "scripts/"},
	{regexp.MustCompile(`^debug-.*\.js$`), "script", "scripts/"},
	{regexp.MustCompile(`^test-.*\.js$`), "script", "scripts/"},
	{regexp.MustCompile(`^.*-report\.md$`), "document", "docs/"},
	{regexp.MustCompile(`^.*enforcement.*\.md$`), "document", "docs/"},
	{regexp.MustCompile(`^.*-plan\.md$`), "document", "docs/"},
	{regexp.MustCompile(`^USAGE\.md$`), "document", "docs/"},
	{regexp.MustCompile(`^CONTRIBUTING\.md$`), "document", "docs/"},
	{regexp.MustCompile(`^ARCHITECTURE\.md$`), "document", "docs/"},
	{regexp.MustCompile(`^API\.md$`), "document", "docs/"},
	{regexp.MustCompile(`^.*\.yaml$`), "config file", "config/"},
	{regexp.MustCompile(`^.*\.yml$`), "config file", "config/"},
}

type structureGuard struct {
	root     string
	markdown map[string]bool
	patterns []rootPattern
}

func newStructureGuard(opts Options, extra []*regexp.Regexp) *structureGuard {
	allowed := opts.AllowedMarkdown
	if len(allowed) == 0 {
		allowed = defaultAllowedMarkdown
	}
	g := &structureGuard{
		root:     opts.ProjectRoot,
		markdown: make(map[string]bool, len(allowed)),
		patterns: append([]rootPattern(nil), builtinRootPatterns...),
	}
	for _, name := range allowed {
		g.markdown[name] = true
	}
	for _, re := range extra {
		g.patterns = append(g.patterns, rootPattern{re: re, kind: "file", dir: "an appropriate subdirectory"})
	}
	return g
}

// violation returns the guidance for a root-level name, or ok=false when
// the name may live in the root.
func (g *structureGuard) violation(name string) (kind, dir string, ok bool) {
	if strings.HasSuffix(name, ".md") && !g.markdown[name] {
		return "document", "docs/", true
	}
	for _, p := range g.patterns {
		if p.re.MatchString(name) {
			return p.kind, p.dir, true
		}
	}
	return "", "", false
}

func (g *structureGuard) check(req request.Request, _ policy.Env) (policy.Finding, bool) {
	rel, ok := normalize.RelativeToRoot(req.FilePath, g.root)
	if !ok || !normalize.AtRoot(rel) {
		return policy.Finding{}, false
	}
	name := path.Base(rel)
	kind, dir, hit := g.violation(name)
	if !hit {
		return policy.Finding{}, false
	}
	return policy.Finding{
		Reasons: []string{
			"ROOT STRUCTURE VIOLATION BLOCKED",
			fmt.Sprintf("File: %s", name),
			"Reason: Unauthorized file in root directory",
		},
		Suggestions: []string{
			fmt.Sprintf("Move this %s to %s", kind, dir),
			"Root directory rules:",
			"  • Only these .md files allowed: " + strings.Join(g.allowedList(), ", "),
			"  • Config files belong in config/ directory",
			"  • Scripts belong in scripts/ directory",
			"  • Documentation belongs in docs/ directory",
		},
	}, true
}

func (g *structureGuard) allowedList() []string {
	out := make([]string, 0, len(g.markdown))
	for _, name := range defaultAllowedMarkdown {
		if g.markdown[name] {
			out = append(out, name)
		}
	}
	for name := range g.markdown {
		if !contains(defaultAllowedMarkdown, name) {
			out = append(out, name)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
