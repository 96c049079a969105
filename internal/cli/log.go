package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gzhole/toolguard/internal/audit"
)

type logOptions struct {
	warned  bool
	tool    string
	last    int
	summary bool
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	lo := &logOptions{}
	cmd := &cobra.Command{
		Use:   "log",
		Short: "View and filter the audit log",
		Long: `View the toolguard audit log with filtering and summary options.

The log holds the tool calls toolguard let through. Blocked calls never
reach it.

Examples:
  toolguard log                        # Show all entries
  toolguard log --last 20              # Show last 20 entries
  toolguard log --warned               # Show only calls that drew a warning
  toolguard log --tool Bash            # Show only shell commands
  toolguard log --summary              # Show summary stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runLog(cmd, lo)
		},
	}
	cmd.Flags().BoolVar(&lo.warned, "warned", false, "Show only entries where a warning guard fired")
	cmd.Flags().StringVar(&lo.tool, "tool", "", "Filter by tool name (Bash, Write, Edit, MultiEdit)")
	cmd.Flags().IntVar(&lo.last, "last", 0, "Show last N entries")
	cmd.Flags().BoolVar(&lo.summary, "summary", false, "Show summary statistics")
	return cmd
}

func (o *rootOptions) runLog(cmd *cobra.Command, lo *logOptions) error {
	out := cmd.OutOrStdout()
	log := o.logger(cmd.ErrOrStderr())

	cfg := o.loadConfig(workingDir(""), log)
	store, err := openAudit(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Entries()
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No audit log entries found.")
		return nil
	}

	filtered := lo.filter(entries)
	if lo.last > 0 && lo.last < len(filtered) {
		filtered = filtered[len(filtered)-lo.last:]
	}

	if lo.summary {
		fmt.Fprintln(out, renderSummary(entries))
		return nil
	}
	printEntries(out, filtered)
	return nil
}

func (lo *logOptions) filter(entries []audit.Entry) []audit.Entry {
	if !lo.warned && lo.tool == "" {
		return entries
	}

	var filtered []audit.Entry
	for _, e := range entries {
		if lo.warned && len(e.Triggered) == 0 {
			continue
		}
		if lo.tool != "" && !strings.EqualFold(e.ToolName, lo.tool) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// describe is the one-line form of what an entry asked for.
func describe(e audit.Entry) string {
	in := e.ToolInput
	if in.Command != "" {
		return in.Command
	}
	return fmt.Sprintf("%s %s", e.ToolName, in.FilePath)
}

func printEntries(w io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s %s\n", entryIcon(e), formatTimestamp(e.Timestamp), describe(e))
		if len(e.Triggered) > 0 {
			fmt.Fprintf(w, "     Guards: %s\n", strings.Join(e.Triggered, ", "))
		}
		if e.Cwd != "" {
			fmt.Fprintf(w, "     Cwd: %s\n", e.Cwd)
		}
		fmt.Fprintln(w)
	}
}

var (
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			PaddingLeft(2).
			PaddingRight(2)
	summaryTitle = lipgloss.NewStyle().Bold(true)
)

func renderSummary(all []audit.Entry) string {
	tools := map[string]int{}
	guards := map[string]int{}
	var warned []audit.Entry
	for _, e := range all {
		tools[e.ToolName]++
		for _, g := range e.Triggered {
			guards[g]++
		}
		if len(e.Triggered) > 0 {
			warned = append(warned, e)
		}
	}

	var sb strings.Builder
	sb.WriteString(summaryTitle.Render("toolguard audit summary"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Total entries:  %d\n", len(all))
	fmt.Fprintf(&sb, "Warned:         %d\n", len(warned))
	if first, ok := all[0].Time(); ok {
		fmt.Fprintf(&sb, "First entry:    %s\n", first.Local().Format("2006-01-02 15:04:05"))
	}
	if last, ok := all[len(all)-1].Time(); ok {
		fmt.Fprintf(&sb, "Last entry:     %s\n", last.Local().Format("2006-01-02 15:04:05"))
	}

	sb.WriteString("\nTools:\n")
	for _, name := range slices.Sorted(maps.Keys(tools)) {
		fmt.Fprintf(&sb, "  %-18s %d\n", name, tools[name])
	}

	if len(guards) > 0 {
		sb.WriteString("\nGuards triggered:\n")
		for _, name := range slices.Sorted(maps.Keys(guards)) {
			fmt.Fprintf(&sb, "  %-18s %d\n", name, guards[name])
		}
	}

	if len(warned) > 0 {
		sb.WriteString("\nRecent warnings:\n")
		if len(warned) > 10 {
			warned = warned[len(warned)-10:]
		}
		for _, e := range warned {
			fmt.Fprintf(&sb, "  %s %s\n", formatTimestamp(e.Timestamp), describe(e))
		}
	}
	return summaryBox.Render(strings.TrimRight(sb.String(), "\n"))
}

func entryIcon(e audit.Entry) string {
	switch {
	case len(e.Triggered) > 0:
		return "\xe2\x9a\xa0\xef\xb8\x8f" // warning sign
	case e.Decision == "ALLOW":
		return "\xe2\x9c\x85" // check mark
	default:
		return "\xe2\x9d\x93" // question mark
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
