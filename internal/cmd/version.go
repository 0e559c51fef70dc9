package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/resgen/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	info := version.GetInfo()
	cc := &CommandContext{Format: format, Out: cmd.OutOrStdout()}

	text := "resgen " + info.Short()
	if verbose {
		text = info.String()
	}
	if err := cc.Render(text, info); err != nil {
		return fmt.Errorf("failed to render version info: %w", err)
	}
	return nil
}
