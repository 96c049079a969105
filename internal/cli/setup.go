package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gzhole/toolguard/internal/approval"
)

const (
	hookCommand   = "toolguard hook"
	commitCommand = "toolguard commit-msg"
)

// toolguardHookEntries are the PreToolUse entries inserted into Claude Code
// settings: the guard hook for every tool it evaluates and the commit
// validator for shell commands.
var toolguardHookEntries = []map[string]interface{}{
	{
		"matcher": "Bash|Write|Edit|MultiEdit",
		"hooks": []interface{}{
			map[string]interface{}{"type": "command", "command": hookCommand},
		},
	},
	{
		"matcher": "Bash",
		"hooks": []interface{}{
			map[string]interface{}{"type": "command", "command": commitCommand},
		},
	},
}

type setupOptions struct {
	disable  bool
	yes      bool
	settings string
	asker    approval.Asker
}

func newSetupCmd(opts *rootOptions) *cobra.Command {
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Set up toolguard for your environment",
		Long: `Set up toolguard integration with an agent.

  toolguard setup claude-code           # install Claude Code PreToolUse hooks
  toolguard setup claude-code --disable # remove Claude Code hooks`,
	}
	setupCmd.AddCommand(newSetupClaudeCodeCmd(opts))
	return setupCmd
}

func newSetupClaudeCodeCmd(_ *rootOptions) *cobra.Command {
	so := &setupOptions{asker: approval.Default()}
	cmd := &cobra.Command{
		Use:   "claude-code",
		Short: "Set up toolguard for Claude Code (PreToolUse hooks)",
		Long: `Install or remove the PreToolUse hooks so every tool call Claude Code
makes is evaluated by toolguard, and every git commit it makes has its
message validated, before execution.

  toolguard setup claude-code             # enable hooks
  toolguard setup claude-code --disable   # disable hooks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if so.settings == "" {
				so.settings = filepath.Join(workingDir(""), ".claude", "settings.json")
			}
			if so.disable {
				return disableClaudeCodeHooks(cmd.OutOrStdout(), so.settings)
			}
			return so.enable(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&so.disable, "disable", false, "Remove toolguard hooks")
	cmd.Flags().BoolVarP(&so.yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().StringVar(&so.settings, "settings", "", "Claude Code settings file (default: ./.claude/settings.json)")
	return cmd
}

func (so *setupOptions) enable(out io.Writer) error {
	settings, err := readClaudeSettings(so.settings)
	if err != nil {
		return err
	}

	hooks := getOrCreateMap(settings, "hooks")
	preToolUse := getOrCreateSlice(hooks, "PreToolUse")

	var missing []interface{}
	for _, want := range toolguardHookEntries {
		if !hasHookCommand(preToolUse, hookEntryCommand(want)) {
			missing = append(missing, want)
		}
	}
	if len(missing) == 0 {
		fmt.Fprintf(out, "✅ Claude Code hooks already configured: %s\n", so.settings)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To disable: toolguard setup claude-code --disable")
		return nil
	}

	if !so.yes && so.asker.Interactive() {
		res := so.asker.Ask(approval.Prompt{
			Title:   "Install toolguard hooks?",
			Details: []string{"Settings: " + so.settings, "Adds: " + hookCommand + ", " + commitCommand},
		})
		if !res.Approved {
			fmt.Fprintln(out, "Aborted, settings unchanged.")
			return nil
		}
	}

	hooks["PreToolUse"] = append(preToolUse, missing...)
	settings["hooks"] = hooks
	if err := writeClaudeSettings(so.settings, settings); err != nil {
		return err
	}

	fmt.Fprintf(out, "✅ PreToolUse hooks installed: %s\n", so.settings)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "How it works:")
	fmt.Fprintln(out, "  1. Claude Code is about to run Bash, Write, Edit or MultiEdit")
	fmt.Fprintln(out, "  2. The PreToolUse hook calls `toolguard hook`")
	fmt.Fprintln(out, "  3. toolguard evaluates the call against its guard rules")
	fmt.Fprintln(out, "  4. If BLOCK: Claude Code is prevented from running the tool")
	fmt.Fprintln(out, "  5. If ALLOW: warnings are shown and the tool runs normally")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To disable: toolguard setup claude-code --disable")
	return nil
}

func disableClaudeCodeHooks(out io.Writer, settingsPath string) error {
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "ℹ  No settings.json found for Claude Code, nothing to disable.")
		return nil
	}

	settings, err := readClaudeSettings(settingsPath)
	if err != nil {
		return err
	}

	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		fmt.Fprintln(out, "ℹ  Claude Code settings.json has no hooks, nothing to disable.")
		return nil
	}

	preToolUse, _ := hooks["PreToolUse"].([]interface{})
	filtered := preToolUse[:0]
	removed := false
	for _, entry := range preToolUse {
		if isToolguardHookEntry(entry) {
			removed = true
			continue
		}
		filtered = append(filtered, entry)
	}

	if !removed {
		fmt.Fprintln(out, "ℹ  toolguard hooks not found in Claude Code settings, nothing to disable.")
		return nil
	}

	if len(filtered) == 0 {
		delete(hooks, "PreToolUse")
	} else {
		hooks["PreToolUse"] = filtered
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	} else {
		settings["hooks"] = hooks
	}

	if err := writeClaudeSettings(settingsPath, settings); err != nil {
		return err
	}

	fmt.Fprintln(out, "✅ toolguard hooks disabled for Claude Code")
	fmt.Fprintf(out, "   Settings: %s\n", settingsPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Re-enable anytime with: toolguard setup claude-code")
	return nil
}

func hookEntryCommand(entry map[string]interface{}) string {
	sub, _ := entry["hooks"].([]interface{})
	for _, h := range sub {
		if hm, ok := h.(map[string]interface{}); ok {
			if c, ok := hm["command"].(string); ok {
				return c
			}
		}
	}
	return ""
}

func hasHookCommand(entries []interface{}, command string) bool {
	for _, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if ok && hookEntryCommand(m) == command {
			return true
		}
	}
	return false
}

// isToolguardHookEntry returns true if the hook entry runs one of our commands.
func isToolguardHookEntry(entry interface{}) bool {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return false
	}
	c := hookEntryCommand(m)
	return c == hookCommand || c == commitCommand
}

func readClaudeSettings(path string) (map[string]interface{}, error) {
	settings := make(map[string]interface{})
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return settings, nil
}

func writeClaudeSettings(path string, settings map[string]interface{}) error {
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func getOrCreateMap(parent map[string]interface{}, key string) map[string]interface{} {
	if v, ok := parent[key].(map[string]interface{}); ok {
		return v
	}
	m := make(map[string]interface{})
	parent[key] = m
	return m
}

func getOrCreateSlice(parent map[string]interface{}, key string) []interface{} {
	if v, ok := parent[key].([]interface{}); ok {
		return v
	}
	return nil
}
