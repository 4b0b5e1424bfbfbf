package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/agentmind/internal/memory"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <agent>",
	Short: "Show an agent's memory status",
	Long: `Display persona version, buffer size, token estimate and pending work
for an agent.

Examples:
  agentmind status support-bot
  agentmind status support-bot --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	mgr, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}
	st := mgr.Status()
	out := cmd.OutOrStdout()

	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	opts := mgr.Options()
	fmt.Fprintf(out, "Agent: %s\n", st.AgentID)
	fmt.Fprintln(out, "------")
	fmt.Fprintf(out, "Persona version:  %d\n", st.PersonaVersion)
	for _, c := range memory.Categories {
		fmt.Fprintf(out, "  %-11s %d/%d\n", c, st.PersonaCounts[c], c.Cap())
	}
	fmt.Fprintf(out, "Recent messages:  %d\n", st.RecentMessages)
	fmt.Fprintf(out, "Lane summaries:   %s\n", yesNo(st.HasLaneSummaries))
	fmt.Fprintf(out, "Estimated tokens: %d / %d (high-water %d)\n",
		st.EstimatedTokens, opts.ContextTokens, int(float64(opts.ContextTokens)*opts.HighRatio))
	fmt.Fprintf(out, "%s Summarization needed\n", statusIcon(st.NeedsSummarization))
	fmt.Fprintf(out, "%s Reflection needed\n", statusIcon(st.NeedsReflection))
	return nil
}

func statusIcon(pending bool) string {
	if pending {
		return "◐"
	}
	return "●"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
