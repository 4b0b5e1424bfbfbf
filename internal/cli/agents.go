package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List agents with persisted memory",
	Args:  cobra.NoArgs,
	RunE:  runAgents,
}

func runAgents(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.registry.Agents()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No agents found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tPERSONA\tMESSAGES\tTOKENS")
	for _, id := range ids {
		mgr, err := a.registry.Get(id)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\n", id)
			continue
		}
		st := mgr.Status()
		fmt.Fprintf(w, "%s\tv%d\t%d\t%d\n", id, st.PersonaVersion, st.RecentMessages, st.EstimatedTokens)
	}
	return w.Flush()
}
