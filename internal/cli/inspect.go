package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/inspect"
	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/state"
)

var (
	inspectFormat   string
	inspectOut      string
	inspectSnapshot string
	inspectHistory  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <agent>",
	Short: "Render an agent's stored memory for reading",
	Long: `Render the persisted state as markdown, YAML or JSON.

Examples:
  agentmind inspect support-bot
  agentmind inspect support-bot --format yaml --out memory.yaml
  agentmind inspect support-bot --history
  agentmind inspect support-bot --snapshot 01J...`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "markdown", "output format: markdown, yaml, json")
	inspectCmd.Flags().StringVarP(&inspectOut, "out", "o", "", "write to a file instead of stdout")
	inspectCmd.Flags().StringVar(&inspectSnapshot, "snapshot", "", "render a history snapshot (file driver)")
	inspectCmd.Flags().BoolVar(&inspectHistory, "history", false, "list history snapshot IDs (file driver)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	agentID := args[0]
	out := cmd.OutOrStdout()

	if inspectHistory || inspectSnapshot != "" {
		fs, ok := a.registry.Store().(*state.FileStore)
		if !ok {
			return apperrors.New(apperrors.CodeInvalidArguments, "history is only kept by the file driver")
		}
		if inspectHistory {
			ids, err := fs.History(agentID)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		}
		st, err := fs.LoadSnapshot(agentID, inspectSnapshot)
		if err != nil {
			return err
		}
		return writeInspect(cmd, st)
	}

	var st *memory.MemoryState
	st, err = a.registry.Store().Load(agentID)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeStateNotFound) {
			return err
		}
		return apperrors.Newf(apperrors.CodeStateNotFound, "no stored memory for %s", agentID).
			WithSuggestion("Run 'agentmind agents' to list known agents")
	}
	return writeInspect(cmd, st)
}

func writeInspect(cmd *cobra.Command, st *memory.MemoryState) error {
	data, err := inspect.Render(inspectFormat, st)
	if err != nil {
		return err
	}
	if inspectOut == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(inspectOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", inspectOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", inspectOut)
	return nil
}
