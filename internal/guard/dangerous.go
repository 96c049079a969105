package guard

import (
	"fmt"
	"strings"

	"github.com/gzhole/toolguard/internal/normalize"
	"github.com/gzhole/toolguard/internal/policy"
	"github.com/gzhole/toolguard/internal/request"
)

var rmSuggestions = []string{
	"Safe alternatives:",
	"  • For single files: rm filename",
	"  • For directories: rm -r dirname (no -f flag)",
	"  • Use specific paths instead of wildcards",
	"  • Consider using trash/archive instead of permanent deletion",
}

// checkDangerousCommand blocks rm invocations that combine recursive and
// force, or recursive with a root, home, parent, current-directory or
// wildcard target. rm is found wherever the shell would run it: inside
// loops and conditionals, substitutions, sh -c code and wrappers such as
// xargs, env or find -exec.
func checkDangerousCommand(req request.Request, _ policy.Env) (policy.Finding, bool) {
	if !strings.Contains(normalize.Command(req.Command), "rm") {
		return policy.Finding{}, false
	}

	for _, seg := range normalize.AllSegments(normalize.Parse(req.Command)) {
		if strings.ToLower(seg.Executable) != "rm" {
			continue
		}
		if detail, ok := dangerousRm(seg); ok {
			return policy.Finding{
				Reasons: []string{
					"BLOCKED: Dangerous rm command detected and prevented",
					detail,
				},
				Suggestions: rmSuggestions,
			}, true
		}
	}
	return policy.Finding{}, false
}

// dangerousRm inspects one rm segment. Flag and target case is folded:
// -R and -r both mean recursive.
func dangerousRm(seg normalize.Segment) (string, bool) {
	recursive := seg.HasFlag("r", "R", "recursive", "RECURSIVE")
	if !recursive {
		return "", false
	}
	if seg.HasFlag("f", "F", "force", "FORCE") {
		return "recursive and force flags combined: " + seg.Raw, true
	}
	for _, arg := range seg.Args {
		if isDangerousTarget(strings.ToLower(arg)) {
			return fmt.Sprintf("recursive delete of dangerous path %q", arg), true
		}
	}
	return "", false
}

// isDangerousTarget matches root, home, parent-directory, current-directory
// and wildcard targets. arg arrives lowercased, so $HOME reads $home.
func isDangerousTarget(arg string) bool {
	switch {
	case arg == "/" || arg == "/*" || strings.Trim(arg, "/") == "" && arg != "":
		return true
	case arg == "~" || strings.HasPrefix(arg, "~/"):
		return true
	case strings.Contains(arg, "$home"):
		return true
	case arg == "." || arg == "./":
		return true
	case strings.Contains(arg, "*"):
		return true
	}
	for _, elem := range strings.Split(arg, "/") {
		if elem == ".." {
			return true
		}
	}
	return false
}
