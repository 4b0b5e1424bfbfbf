package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cadre-oss/agentmind/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and modifying configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a value in the config file using a dotted key.

Examples:
  agentmind config set memory.context_tokens 16384
  agentmind config set state.driver sqlite`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintln(out, string(data))
	if _, err := os.Stat(configPath()); err == nil {
		fmt.Fprintf(out, "Config file: %s\n", configPath())
	} else {
		fmt.Fprintln(out, "Config file: none (defaults)")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	path := configPath()

	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	if err := setNestedValue(doc, key, parseScalar(value)); err != nil {
		return err
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	cfg, err := config.Parse(out)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", configPath())
	return nil
}

// setNestedValue walks a dotted key, creating intermediate maps.
func setNestedValue(m map[string]interface{}, key string, value interface{}) error {
	parts := splitKey(key)
	if len(parts) == 0 {
		return fmt.Errorf("empty config key")
	}

	current := m
	for _, p := range parts[:len(parts)-1] {
		if _, ok := current[p]; !ok {
			current[p] = make(map[string]interface{})
		}
		next, ok := current[p].(map[string]interface{})
		if !ok {
			return fmt.Errorf("config key %s is not a section", p)
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

func splitKey(key string) []string {
	var parts []string
	for _, p := range strings.Split(key, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// parseScalar lets YAML type the value so numbers and booleans survive.
func parseScalar(s string) interface{} {
	var v interface{}
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return s
	}
	return v
}
