package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gzhole/toolguard/internal/commitmsg"
	"github.com/gzhole/toolguard/internal/request"
)

func newCommitMsgCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "commit-msg",
		Short: "Validate the commit message of a proposed git commit",
		Long: `Reads a Claude Code PreToolUse payload from stdin. If the tool call is a
git commit with an extractable message, the first line is checked against
the conventional-commit format:

  type(scope): subject

The result is printed as {"approve": bool, "message": string}. The command
always exits 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runCommitMsg(cmd)
		},
	}
}

func (o *rootOptions) runCommitMsg(cmd *cobra.Command) error {
	log := o.logger(cmd.ErrOrStderr())

	resp := safeResponse(log, func() commitmsg.Response {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxPayload))
		if err != nil {
			return commitmsg.Failed(err)
		}
		req, err := request.Decode(data)
		if err != nil {
			return commitmsg.Failed(err)
		}
		cfg := o.loadConfig(workingDir(req.Cwd), log)
		return newValidator(cfg.Commit.Types, cfg.Commit.MaxScope, cfg.Commit.MaxSubject).Evaluate(req)
	})

	out, err := json.Marshal(resp)
	if err != nil {
		log.Warn("encoding commit response", "err", err)
		return nil
	}
	_, _ = cmd.OutOrStdout().Write(append(out, '\n'))
	return nil
}

// safeResponse runs build and turns a panic into an approving response.
func safeResponse(log *slog.Logger, build func() commitmsg.Response) (resp commitmsg.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered panic, approving", "panic", r)
			resp = commitmsg.Failed(fmt.Errorf("panic: %v", r))
		}
	}()
	return build()
}

func newValidator(types []string, maxScope, maxSubject int) *commitmsg.Validator {
	return commitmsg.New(commitmsg.Rules{Types: types, MaxScope: maxScope, MaxSubject: maxSubject})
}
