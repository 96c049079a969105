package guard

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/gzhole/toolguard/internal/policy"
	"github.com/gzhole/toolguard/internal/request"
)

var templateRequirements = []string{
	"Key requirements:",
	"  • 6-part structure: YAML frontmatter, heading, description, arguments, instructions, context",
	"  • Use action verbs and keep descriptions under 80 characters",
	"  • Include dynamic data gathering with ! commands",
	"  • Reference files with @ syntax",
	"  • Follow consistent naming and formatting patterns",
}

// commandTemplateChecker reminds writers of command documents of the
// expected layout and points at the first template that exists.
func commandTemplateChecker(opts Options) func(request.Request, policy.Env) (policy.Finding, bool) {
	dir := strings.Trim(path.Clean(opts.CommandsDir), "/") + "/"
	candidates := opts.TemplateCandidates
	exists := opts.Exists

	return func(req request.Request, _ policy.Env) (policy.Finding, bool) {
		p := strings.ToLower(req.FilePath)
		if !strings.HasSuffix(p, ".md") || !underDir(req.FilePath, dir) {
			return policy.Finding{}, false
		}
		f := policy.Finding{
			Reasons: []string{"Command Template Reminder: Editing " + req.FilePath},
		}
		for _, c := range candidates {
			if exists(c) {
				f.Suggestions = append(f.Suggestions, "Reference template: "+c)
				break
			}
		}
		f.Suggestions = append(f.Suggestions, templateRequirements...)
		return f, true
	}
}

// underDir reports whether p has dir ("a/b/") as a leading component or
// anywhere after a slash, so absolute paths into a project match too.
func underDir(p, dir string) bool {
	p = path.Clean(filepath.ToSlash(p))
	return strings.HasPrefix(p, dir) || strings.Contains(p, "/"+dir)
}
