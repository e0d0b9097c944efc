package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/notecache/internal/smoketest"
	"github.com/okian/notecache/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

func newRootCmd() *cobra.Command {
	var (
		cfg       smoketest.Config
		verbose   bool
		runTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:           "notes-smoke",
		Short:         "Drive the note lifecycle against a running notecache server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if verbose {
				_ = logger.SetLevelString("debug")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			_, err := smoketest.Run(ctx, &cfg, logger.Named("smoke"))
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", smoketest.DefaultBaseURL, "base URL of the service")
	f.IntVarP(&cfg.Notes, "notes", "n", smoketest.DefaultNotes, "number of notes to drive through the lifecycle")
	f.IntVarP(&cfg.Workers, "workers", "w", smoketest.DefaultWorkers, "number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", smoketest.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "overall time limit")
	f.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "smoke test failed:", err)
		os.Exit(1)
	}
}
