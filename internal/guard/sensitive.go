package guard

import (
	"fmt"
	"strings"

	"github.com/gzhole/toolguard/internal/normalize"
	"github.com/gzhole/toolguard/internal/policy"
	"github.com/gzhole/toolguard/internal/request"
)

var editors = map[string]bool{
	"vi": true, "vim": true, "nvim": true, "nano": true, "emacs": true, "code": true,
}

// isProtectedEnvPath matches paths naming a .env file other than the
// .env.sample / .env.example templates.
func isProtectedEnvPath(p string) bool {
	p = strings.Trim(p, `'"`)
	if !strings.Contains(p, ".env") {
		return false
	}
	return !strings.HasSuffix(p, ".env.sample") && !strings.HasSuffix(p, ".env.example")
}

func checkSensitiveFile(req request.Request, _ policy.Env) (policy.Finding, bool) {
	var target string
	if req.Kind == request.KindExecute {
		target = envWriteTarget(req.Command)
	} else if isProtectedEnvPath(req.FilePath) {
		target = req.FilePath
	}
	if target == "" {
		return policy.Finding{}, false
	}
	return policy.Finding{
		Reasons: []string{
			"BLOCKED: Access to .env files containing sensitive data is prohibited",
			fmt.Sprintf("target: %s", target),
		},
		Suggestions: []string{"Use .env.sample for template files instead"},
	}, true
}

// envWriteTarget returns the protected .env path a command would write,
// or "". Reading (cat .env, grep KEY .env) is not a write. Every segment
// counts, including loop bodies and substitutions.
func envWriteTarget(command string) string {
	if !strings.Contains(command, ".env") {
		return ""
	}
	for _, seg := range normalize.AllSegments(normalize.Parse(command)) {
		if p, ok := seg.OutputTarget(isProtectedEnvPath); ok {
			return p
		}

		exe := strings.ToLower(seg.Executable)
		switch {
		case exe == "touch" || exe == "tee" || editors[exe]:
			if p := firstProtected(seg.Args); p != "" {
				return p
			}
		case exe == "cp" || exe == "mv":
			if n := len(seg.Args); n >= 2 && isProtectedEnvPath(seg.Args[n-1]) {
				return seg.Args[n-1]
			}
		case exe == "sed" && seg.HasFlag("i", "in-place"):
			if p := firstProtected(seg.Args); p != "" {
				return p
			}
		case exe == "perl" && seg.HasFlag("i"):
			if p := firstProtected(seg.Args); p != "" {
				return p
			}
		}
	}
	return ""
}

func firstProtected(args []string) string {
	for _, a := range args {
		if isProtectedEnvPath(a) {
			return a
		}
	}
	return ""
}
