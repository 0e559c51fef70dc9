package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/resgen/internal/config"
	"github.com/felixgeelhaar/resgen/internal/log"
	"github.com/felixgeelhaar/resgen/internal/ux"
)

// CommandContext holds the flags and settings a command runs with.
// Commands build one in RunE instead of reading package globals.
type CommandContext struct {
	// Output control
	Quiet   bool
	Verbose bool
	Format  string
	NoColor bool

	Settings *config.Config
	Logger   *log.Logger

	Out    io.Writer
	ErrOut io.Writer
}

// NewCommandContext extracts the persistent flags from cmd and loads
// settings, letting flags set on cmd override every other source.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, err
	}

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}

	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// Validate the format before doing any work.
	if _, err := ux.NewFormatter(format, nil); err != nil {
		return nil, err
	}

	settings, err := config.Load(configPath, flags)
	if err != nil {
		return nil, err
	}

	cc := &CommandContext{
		Quiet:    quiet,
		Verbose:  verbose,
		Format:   format,
		NoColor:  noColor,
		Settings: settings,
		Out:      cmd.OutOrStdout(),
		ErrOut:   cmd.ErrOrStderr(),
	}

	if quiet {
		cc.Logger = log.Discard()
	} else {
		logCfg := settings.LoggerConfig()
		logCfg.Output = log.NewOutput(cc.ErrOut)
		cc.Logger = log.New(logCfg)
	}
	log.SetDefaultLogger(cc.Logger)
	if settings.File != "" {
		cc.Logger.Debug("loaded settings", "file", settings.File)
	}
	return cc, nil
}

// Render writes text with the text format and data with json or yaml.
func (c *CommandContext) Render(text, data any) error {
	formatter, err := ux.NewFormatter(c.Format, &ux.FormatterOptions{
		Writer:  c.Out,
		NoColor: c.NoColor,
	})
	if err != nil {
		return err
	}
	if _, ok := formatter.(*ux.TextFormatter); ok {
		return formatter.Format(text)
	}
	return formatter.Format(data)
}
