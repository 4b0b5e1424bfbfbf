package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/agentmind/internal/mcp"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP memory server on stdio",
	Long: `Serve every memory operation as an MCP tool over JSON-RPC 2.0 on
stdin/stdout. Logs go to stderr. Register it with an MCP client, e.g.:

  {"command": "agentmind", "args": ["serve"]}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	server := mcp.NewServer(a.registry,
		mcp.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
		mcp.WithLogger(a.logger),
		mcp.WithVersion(Version),
	)
	err = server.Run(ctx)
	a.metrics.Flush(telemetry.Snapshot{Event: "session.end", SessionID: server.SessionID()})
	if err == context.Canceled {
		return nil
	}
	return err
}
