package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gzhole/toolguard/internal/policy"
	"github.com/gzhole/toolguard/internal/request"
)

type checkOptions struct {
	tool    request.Kind
	command string
	file    string
	content string
	commit  bool
	plain   bool
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	co := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a tool call given on the command line",
		Long: `Evaluates one tool call without going through a hook. The audit log is
only read (for the date lookback), never written.

Examples:
  toolguard check --command "rm -rf build"
  toolguard check --tool Write --file notes-report.md --content "draft"
  toolguard check --commit --command 'git commit -m "Added login."'
  toolguard check --plain --command "rm -r ~"   # uncolored, for scripts

Exits 2 when the call would be blocked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runCheck(cmd, co)
		},
	}
	cmd.Flags().Var(&co.tool, "tool", "Tool name or kind: Bash, Write, Edit, MultiEdit, Read (default: inferred)")
	cmd.Flags().StringVar(&co.command, "command", "", "Shell command (Bash)")
	cmd.Flags().StringVar(&co.file, "file", "", "Target file path (Write, Edit, MultiEdit, Read)")
	cmd.Flags().StringVar(&co.content, "content", "", "Text being written")
	cmd.Flags().BoolVar(&co.commit, "commit", false, "Run the commit message validator instead of the guards")
	cmd.Flags().BoolVar(&co.plain, "plain", false, "Print a plain-text explanation without colors")
	return cmd
}

func (co *checkOptions) toRequest() (request.Request, error) {
	kind := co.tool
	if kind == "" {
		switch {
		case co.command != "":
			kind = request.KindExecute
		case co.file != "":
			kind = request.KindWrite
		default:
			return request.Request{}, errors.New("nothing to check: pass --command or --file")
		}
	}

	if kind.IsFileWrite() && co.file == "" {
		return request.Request{}, fmt.Errorf("--file is required for %s", kind)
	}

	req := request.Request{Kind: kind, Tool: kind.ToolName()}
	switch kind {
	case request.KindExecute:
		req.Command = co.command
	case request.KindWrite:
		req.FilePath, req.Content = co.file, co.content
	case request.KindEdit, request.KindMultiEdit:
		req.FilePath = co.file
		req.Edits = []request.Edit{{New: co.content}}
	default:
		req.FilePath = co.file
	}
	return req, nil
}

func (o *rootOptions) runCheck(cmd *cobra.Command, co *checkOptions) error {
	out := cmd.OutOrStdout()
	log := o.logger(cmd.ErrOrStderr())

	req, err := co.toRequest()
	if err != nil {
		return err
	}

	if co.commit {
		cfg := o.loadConfig(workingDir(""), log)
		resp := newValidator(cfg.Commit.Types, cfg.Commit.MaxScope, cfg.Commit.MaxSubject).Evaluate(req)
		fmt.Fprintln(out, resp.Message)
		if !resp.Approve {
			return &ExitError{Code: 2}
		}
		return nil
	}

	rt := o.newRuntime(workingDir(""), log)
	defer rt.close()

	d := rt.engine.Evaluate(req)
	if co.plain {
		fmt.Fprint(out, policy.Explanation(d))
	} else {
		r := newRenderer(out)
		r.summary(d)
		r.decision(d)
	}
	if d.Blocked() {
		return &ExitError{Code: 2}
	}
	return nil
}
