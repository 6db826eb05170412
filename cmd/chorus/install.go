package main

import (
	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/internal/service/installer"
	"github.com/sandevgo/chorus/pkg/log"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:           "install",
	Short:         "Configure Chorus and write sample personas",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Setup logger
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting installation process")

		// run wizard (includes save step)
		if _, err := installer.RunWizard(); err != nil {
			return err
		}

		logger.Info().Msgf("initialized runtime directory at: %s", config.GetRuntimePath())
		logger.Info().Msg("Installation complete! Edit personas.yaml, then run 'chorus start'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
