package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/pkg/log"
	"github.com/sandevgo/chorus/pkg/srv"
	"github.com/spf13/cobra"
)

var (
	noMaintenance bool
	noTelegram    bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the personas",
	Long:  `Loads the personas, connects the configured transports (console, Telegram) and runs the maintenance schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)

		// Set before .env is loaded, which never overrides the environment.
		if noMaintenance {
			os.Setenv("CHORUS_ENABLE_MAINTENANCE", "false")
		}
		if noTelegram {
			os.Setenv("CHORUS_ENABLE_TELEGRAM", "false")
		}

		logger.Info().
			Str("version", core.AppVersion).
			Bool("maintenance", !noMaintenance).
			Msg("starting chorus")

		services := NewServices(ctx, stop)
		srv.StartServices(ctx, services)

		// Blocks until a signal arrives or the console exits.
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("chorus has been shut down gracefully")

		return nil
	},
}

func init() {
	startCmd.Flags().BoolVar(&noMaintenance, "no-maintenance", false, "skip the scheduled maintenance pass")
	startCmd.Flags().BoolVar(&noTelegram, "no-telegram", false, "run without the Telegram transport even if it is configured")
	rootCmd.AddCommand(startCmd)
}
