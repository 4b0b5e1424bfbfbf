package cli

import (
	"database/sql"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/agentmind/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and state storage",
	Long:  "Validate the configuration, open the state store and list the available storage drivers.",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "agentmind doctor: checking your environment")
	fmt.Fprintln(out)
	allOK := true

	fmt.Fprintf(out, "  Go version: %s ✓\n", runtime.Version())
	fmt.Fprintf(out, "  Platform:   %s/%s ✓\n", runtime.GOOS, runtime.GOARCH)

	if _, err := os.Stat(configPath()); err == nil {
		fmt.Fprintf(out, "  Config:     %s ✓\n", configPath())
	} else {
		fmt.Fprintln(out, "  Config:     none, using defaults")
		fmt.Fprintln(out, "    → Run 'agentmind init' to write one")
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "  Validate:   FAILED (%s) ✗\n", err)
		allOK = false
	} else {
		fmt.Fprintln(out, "  Validate:   ok ✓")
	}

	if cfg != nil {
		store, err := config.OpenStore(cfg)
		if err != nil {
			fmt.Fprintf(out, "  State:      FAILED (%s) ✗\n", err)
			allOK = false
		} else {
			ids, listErr := store.List()
			store.Close()
			if listErr != nil {
				fmt.Fprintf(out, "  State:      FAILED (%s) ✗\n", listErr)
				allOK = false
			} else {
				fmt.Fprintf(out, "  State:      %s %s, %d agents ✓\n", cfg.State.Driver, cfg.State.Path, len(ids))
			}
		}

		hooks, err := config.BuildHooks(cfg.Hooks, nil)
		if err != nil {
			fmt.Fprintf(out, "  Hooks:      FAILED (%s) ✗\n", err)
			allOK = false
		} else {
			fmt.Fprintf(out, "  Hooks:      %d active ✓\n", len(hooks))
		}
	}

	fmt.Fprintf(out, "  SQL drivers: %v\n", sql.Drivers())

	fmt.Fprintln(out)
	if allOK {
		fmt.Fprintln(out, "All checks passed!")
	} else {
		fmt.Fprintln(out, "Some checks failed. See above for details.")
	}
	return nil
}
