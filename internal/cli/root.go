package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "agentmind",
	Short: "Layered memory for conversational agents",
	Long: `agentmind - long-lived memory for LLM agents.

Keeps a per-agent base identity, normative policy, an evolving persona and
rolling lane summaries within a fixed context budget. Serve it over MCP or
drive it from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./agentmind.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("state-driver", "", "state driver: file, sqlite, sqlite-nocgo, memory")
	flags.String("state-path", "", "state directory or database file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("metrics", "", "append metrics snapshots as JSONL to this file")

	_ = viper.BindPFlag("state.driver", flags.Lookup("state-driver"))
	_ = viper.BindPFlag("state.path", flags.Lookup("state-path"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("metrics.path", flags.Lookup("metrics"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// initConfig wires viper for environment and flag overrides. The YAML file
// itself is read by config.LoadFile so ${VAR} interpolation applies.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.SetEnvPrefix("agentmind")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}
