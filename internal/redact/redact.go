// Package redact masks credentials in request text before it is written to
// the audit log.
package redact

import "regexp"

const Placeholder = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	// Cloud and VCS credentials
	regexp.MustCompile(`(?i)(aws_access_key_id|aws_secret_access_key|aws_session_token)\s*[=:]\s*['"]?[A-Za-z0-9/+=]{20,}['"]?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(github_token|gh_token|github_pat)\s*[=:]\s*['"]?[A-Za-z0-9_-]{16,}['"]?`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),

	// LLM provider keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-(proj-)?[A-Za-z0-9]{32,}`),

	// Generic key/value credentials, including dotenv lines
	regexp.MustCompile(`(?i)(api_key|apikey|api-key|secret_key|secretkey|secret-key|access_token|auth_token|client_secret)\s*[=:]\s*['"]?[A-Za-z0-9_\-./+=]{16,}['"]?`),
	regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),

	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.]{20,}`),
	regexp.MustCompile(`[a-z][a-z0-9+.-]*://[^:/\s]+:[^@\s]+@`),
	regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`),
	regexp.MustCompile(`[sr]k_live_[0-9a-zA-Z]{24}`),
}

// Redact replaces every credential-looking span of input with Placeholder.
func Redact(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, Placeholder)
	}
	return result
}

// Strings redacts each pointed-to string in place. Nil pointers are skipped.
func Strings(values ...*string) {
	for _, v := range values {
		if v != nil && *v != "" {
			*v = Redact(*v)
		}
	}
}
