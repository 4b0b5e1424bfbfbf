package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/agentmind/internal/telemetry"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Summarize the metrics file",
	Long: `Read the JSONL file written when metrics.path (or --metrics) is set and
print the latest recorded state per agent.`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if cfg.Metrics.Path == "" {
		fmt.Fprintln(out, "Metrics are disabled. Set metrics.path or pass --metrics.")
		return nil
	}

	snaps, skipped, err := telemetry.ReadSnapshots(cfg.Metrics.Path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(out, "No metrics recorded yet in %s\n", cfg.Metrics.Path)
			return nil
		}
		return fmt.Errorf("failed to read metrics: %w", err)
	}

	latest := telemetry.LatestByAgent(snaps)
	agents := make([]string, 0, len(latest))
	for id := range latest {
		agents = append(agents, id)
	}
	sort.Strings(agents)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tPERSONA\tMESSAGES\tTOKENS\tLAST SAVE")
	for _, id := range agents {
		s := latest[id]
		fmt.Fprintf(w, "%s\tv%d\t%d\t%d\t%s\n", id, s.PersonaVersion, s.Messages, s.EstimatedTokens,
			s.Timestamp.Format("2006-01-02 15:04:05"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if n := len(snaps); n > 0 {
		c := snaps[n-1].Counters
		fmt.Fprintf(out, "\n%d records (%d unreadable). Last: %d saves, %d save failures, %d tool calls\n",
			n, skipped, c.Saves, c.SaveFailures, c.ToolCalls)
	}
	return nil
}
