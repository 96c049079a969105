package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gzhole/toolguard/internal/audit"
	"github.com/gzhole/toolguard/internal/request"
)

// maxPayload caps how much of stdin the hook reads.
const maxPayload = 4 << 20

func newHookCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Claude Code PreToolUse hook handler",
		Long: `Reads a Claude Code PreToolUse payload from stdin, evaluates the proposed
tool call against the guard rules and records allowed calls in the audit
log.

  Block  - reasons on stderr, exit code 2 (the agent does not run the tool)
  Allow  - warnings, if any, on stderr, exit code 0

Any failure inside toolguard allows the call. Set TOOLGUARD_BYPASS=1 to
skip evaluation entirely.

Setup:
  toolguard setup claude-code`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runHook(cmd)
		},
	}
}

func (o *rootOptions) runHook(cmd *cobra.Command) (err error) {
	stderr := cmd.ErrOrStderr()
	log := o.logger(stderr)
	defer failOpen(log, &err)

	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxPayload))
	if os.Getenv("TOOLGUARD_BYPASS") == "1" {
		log.Debug("bypass enabled, allowing")
		return nil
	}
	if err != nil {
		log.Warn("could not read hook input", "err", err)
		return nil
	}

	req, err := request.Decode(data)
	if err != nil {
		log.Warn("could not parse hook input", "err", err)
		return nil
	}

	rt := o.newRuntime(workingDir(req.Cwd), log)
	defer rt.close()

	d := rt.engine.Evaluate(req)
	log.Debug("evaluated", "tool", req.Tool, "decision", d.Outcome, "triggered", d.Triggered)

	// Only calls that go ahead are history; the date lookback must not see
	// a command that never ran.
	if rt.audit != nil && !d.Blocked() {
		entry := audit.NewEntry(req, time.Now())
		entry.Decision = string(d.Outcome)
		entry.Triggered = d.Triggered
		if err := rt.audit.Append(entry); err != nil {
			log.Warn("audit log failed", "err", err)
		}
	}

	newRenderer(stderr).decision(d)
	if d.Blocked() {
		return &ExitError{Code: 2}
	}
	return nil
}
