package cmd

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/resgen/internal/fingerprint"
	"github.com/felixgeelhaar/resgen/internal/metrics"
	"github.com/felixgeelhaar/resgen/internal/progress"
	"github.com/felixgeelhaar/resgen/internal/remote"
	"github.com/felixgeelhaar/resgen/internal/resources"
	"github.com/felixgeelhaar/resgen/internal/ux"
)

var generateCmd = &cobra.Command{
	Use:     "generate [platform...]",
	Aliases: []string{"resources"},
	Short:   "Generate icons and splash screens",
	Long: `Generate every icon and splash screen for the given platforms, or for
each platform under platforms/ when none are given, and declare them in
config.xml.

Examples:
  # Generate everything for every installed platform
  resgen generate

  # Only Android icons
  resgen generate android --icon

  # Only landscape splash screens, report as JSON
  resgen generate --splash --landscape --format json

  # Write placeholder source artwork
  resgen generate --default
`,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd.Flags())
	generateCmd.Flags().Bool("default", false, "write placeholder source artwork instead of generating")
	generateCmd.Flags().Bool("force", false, "with --default, overwrite existing source artwork")
	generateCmd.Flags().String("metrics-file", "", "write prometheus metrics to this file after the run")

	rootCmd.AddCommand(generateCmd)
}

// addGenerateFlags registers the flags shared by generate and watch.
func addGenerateFlags(fs *pflag.FlagSet) {
	fs.BoolP("icon", "i", false, "generate icons only")
	fs.BoolP("splash", "s", false, "generate splash screens only")
	fs.BoolP("landscape", "l", false, "generate landscape splash screens only")
	fs.BoolP("portrait", "p", false, "generate portrait splash screens only")
	fs.String("api", remote.DefaultBaseURL, "image service base URL")
	fs.Duration("timeout", 0, "per-request timeout (default from settings)")
	fs.Int("concurrency", resources.DefaultConcurrency, "maximum outstanding transform requests")
	fs.String("cache-dir", fingerprint.DefaultDir(), "fingerprint cache directory")
	fs.String("project", ".", "project directory (searched upward for config.xml)")
	fs.String("resources-dir", resources.DefaultResourcesDir, "resource directory, relative to the project")
	fs.Bool("no-progress", false, "disable the progress bar")
}

// generateOptions builds run options from the settings and the command's
// generation flags.
func generateOptions(cmd *cobra.Command, cc *CommandContext, args []string) (resources.Options, error) {
	flags := cmd.Flags()
	opts := resources.Options{
		ProjectDir:   cc.Settings.Project.Dir,
		ResourcesDir: cc.Settings.Resources.Dir,
		Concurrency:  cc.Settings.Transform.Concurrency,
	}

	for _, a := range args {
		opts.Platforms = append(opts.Platforms, strings.ToLower(a))
	}

	var err error
	for name, dst := range map[string]*bool{
		"icon":      &opts.Icon,
		"splash":    &opts.Splash,
		"landscape": &opts.Landscape,
		"portrait":  &opts.Portrait,
	} {
		if *dst, err = flags.GetBool(name); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// newPipeline wires the image service client, fingerprint cache, metrics
// and progress bar for one command invocation.
func newPipeline(cmd *cobra.Command, cc *CommandContext, m *metrics.Metrics) (*resources.Pipeline, error) {
	noProgress, err := cmd.Flags().GetBool("no-progress")
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(cc.Settings.ClientConfig(cc.Logger))
	p := &resources.Pipeline{
		Service: client,
		Cache:   fingerprint.NewCache(cc.Settings.Cache.Dir),
		Metrics: m,
		Logger:  cc.Logger,
		APIURL:  client.BaseURL,
	}

	if !noProgress && !cc.Quiet && strings.EqualFold(cc.Format, "text") {
		p.NewProgress = func(total int) resources.Progress {
			return progress.NewBarIndicator(cc.ErrOut, total).WithLabel("Generating")
		}
	}
	return p, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	opts, err := generateOptions(cmd, cc, args)
	if err != nil {
		return err
	}

	if useDefault, _ := cmd.Flags().GetBool("default"); useDefault {
		return runDefaults(cmd, cc, opts)
	}

	reg, m := metrics.NewRegistry()
	p, err := newPipeline(cmd, cc, m)
	if err != nil {
		return err
	}

	report, runErr := p.Run(cmd.Context(), opts)
	if err := writeMetrics(cmd, cc, reg); err != nil {
		return err
	}
	if report != nil {
		if err := renderReport(cc, report); err != nil {
			return err
		}
	}
	return runErr
}

func runDefaults(cmd *cobra.Command, cc *CommandContext, opts resources.Options) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	result, err := resources.WriteDefaults(opts, force)
	if err != nil {
		return err
	}
	for _, path := range result.Written {
		cc.Logger.Info("wrote placeholder artwork", "path", path)
	}
	for _, path := range result.Kept {
		cc.Logger.Info("kept existing artwork", "path", path, "hint", "use --force to overwrite")
	}

	var text strings.Builder
	for _, path := range result.Written {
		fmt.Fprintf(&text, "wrote %s\n", path)
	}
	for _, path := range result.Kept {
		fmt.Fprintf(&text, "kept  %s\n", path)
	}
	return cc.Render(strings.TrimSuffix(text.String(), "\n"), result)
}

func renderReport(cc *CommandContext, report *resources.Report) error {
	view := ux.ReportView{Report: report, NoColor: cc.NoColor, Verbose: cc.Verbose}
	return cc.Render(view, report)
}

func writeMetrics(cmd *cobra.Command, cc *CommandContext, reg prometheus.Gatherer) error {
	path, err := cmd.Flags().GetString("metrics-file")
	if err != nil || path == "" {
		return err
	}
	if err := metrics.WriteFile(reg, path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	cc.Logger.Debug("wrote metrics", "path", path)
	return nil
}
