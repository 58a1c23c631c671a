// Package main provides the notebooklm command line client. It drives an
// authenticated browser session against the NotebookLM web application to
// create notebooks from video URLs, trigger infographic or summary
// generation, and retrieve the results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	flagConfig string
	flagHeaded bool
)

func main() {
	// Cancel the root context on interrupt so suspension points
	// (navigation, polling sleeps) unwind cleanly.
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	root := &cobra.Command{
		Use:     "notebooklm",
		Short:   "Client for the NotebookLM batch RPC protocol",
		Version: version,
		Long: `notebooklm drives an authenticated browser session against the
NotebookLM web application: it creates notebooks from video URLs, triggers
infographic or summary generation, and polls until the result is ready.

Run "notebooklm login" once in headed mode to establish login state; the
browser profile keeps it across runs.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath(), "path to config file")
	root.PersistentFlags().BoolVar(&flagHeaded, "headed", false, "run the browser with a visible window")

	root.AddCommand(
		newLoginCmd(ctx),
		newGenerateCmd(ctx),
		newSummarizeCmd(ctx),
		newPollCmd(ctx),
		newDownloadCmd(ctx),
		newDeleteCmd(ctx),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
