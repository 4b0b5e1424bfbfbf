package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/agentmind/internal/event"
)

var addCmd = &cobra.Command{
	Use:   "add <agent> <role> <content...>",
	Short: "Append a message to an agent's memory",
	Long: `Append a message and save the agent's state.

Roles: assistant, user, system, tool.

Examples:
  agentmind add support-bot user "How do I reset my password?"`,
	Args: cobra.MinimumNArgs(3),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	agentID := args[0]
	mgr, err := a.registry.Get(agentID)
	if err != nil {
		return err
	}
	msg, err := mgr.AddMessage(args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	a.metrics.IncMessagesAdded()
	if err := a.registry.Commit(agentID, event.MessageAdded, map[string]interface{}{"role": string(msg.Role)}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Added %s message (%d in buffer)\n", msg.Role, mgr.Status().RecentMessages)
	if mgr.NeedsSummarization() {
		fmt.Fprintln(out, "Context is over the high-water mark; summarize a lane.")
	}
	return nil
}
