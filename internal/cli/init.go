package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/agentmind/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter agentmind.yaml",
	Long: `Write agentmind.yaml with every option at its default value.

An existing file is left alone unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	path, err := config.WriteTemplate(dir, initForce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Tune the memory budget in agentmind.yaml")
	fmt.Fprintln(out, "  2. Run 'agentmind doctor' to check the state store")
	fmt.Fprintln(out, "  3. Register 'agentmind serve' with your MCP client")
	return nil
}
