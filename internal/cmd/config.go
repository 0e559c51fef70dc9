package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View resgen settings",
	Long: `Settings are read from resgen.yaml in the project directory or
$HOME/.resgen/, then RESGEN_* environment variables, then flags.

Example resgen.yaml:

  api:
    url: https://res.ionic.io
    timeout: 2m
  transform:
    concurrency: 8
  resources:
    dir: art
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

func init() {
	addGenerateFlags(configViewCmd.Flags())
	configCmd.AddCommand(configViewCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	data, err := yaml.Marshal(cc.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	source := cc.Settings.File
	if source == "" {
		source = "defaults (no settings file found)"
	}
	text := fmt.Sprintf("# source: %s\n%s", source, strings.TrimSuffix(string(data), "\n"))
	return cc.Render(text, cc.Settings)
}
