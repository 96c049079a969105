package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logPath    string
	debug      bool
}

// ExitError asks main to exit with Code. Commands return it after they
// have already written their own diagnostics.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCmd builds the toolguard command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "toolguard",
		Short: "toolguard - pre-execution guard for AI agent tool calls",
		Long: `toolguard intercepts the tool calls an AI coding agent proposes (shell
commands, file writes and edits) before they run, checks them against an
ordered set of guard rules and blocks, warns or allows them. It also
validates commit messages against the conventional-commit format.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config YAML (default: ./.toolguard.yaml, then ~/.toolguard/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logPath, "log", "", "Path to audit log (default: ./logs/pre_tool_use.json)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Write debug logs to stderr")

	root.AddCommand(
		newHookCmd(opts),
		newCommitMsgCmd(opts),
		newCheckCmd(opts),
		newLogCmd(opts),
		newSetupCmd(opts),
		newVersionCmd(),
	)
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
