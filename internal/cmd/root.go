package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resgen",
	Short: "Generate app icons and splash screens",
	Long: `resgen turns one icon and one splash source image into every icon and
splash screen size each platform needs, writes them under resources/ and
declares them in config.xml.

Source artwork is looked up per platform first (resources/<platform>/icon.png)
and then at the resource root (resources/icon.png). PNG, PSD, AI and SVG
sources are accepted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with a context that is canceled on
// interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "settings file (default is ./resgen.yaml or $HOME/.resgen/resgen.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("format", "text", "output format: text, json or yaml")
	pf.BoolP("quiet", "q", false, "suppress logs and progress")
	pf.Bool("verbose", false, "list every generated file")
	pf.Bool("no-color", false, "disable colored output")
}
