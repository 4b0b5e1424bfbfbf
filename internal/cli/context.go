package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var contextTokens bool

var contextCmd = &cobra.Command{
	Use:   "context <agent>",
	Short: "Print the rendered context for an agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().BoolVar(&contextTokens, "tokens", false, "print the token estimate after the context")
}

func runContext(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	mgr, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}
	a.metrics.IncContextsRendered()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, mgr.RenderContext())
	if contextTokens {
		fmt.Fprintf(out, "\n(~%d tokens)\n", mgr.EstimateTokens())
	}
	return nil
}
