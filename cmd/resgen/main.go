package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/resgen/internal/cmd"
	"github.com/felixgeelhaar/resgen/internal/exitcode"
	"github.com/felixgeelhaar/resgen/internal/log"
	"github.com/felixgeelhaar/resgen/internal/ux"
)

func main() {
	// Create a context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		// Check if error was due to context cancellation (e.g., Ctrl+C)
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		fmt.Fprintln(os.Stderr, ux.RenderError(err, os.Getenv("NO_COLOR") != ""))

		code := exitcode.DetermineExitCode(err)
		log.DefaultLogger().Debug("exiting", "code", code, "reason", exitcode.GetExitCodeDescription(code))
		exitcode.Exit(code)
	}
	exitcode.Exit(exitcode.Success)
}
