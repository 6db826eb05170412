package main

import (
	"context"
	"os"

	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/internal/service/ui"
	"github.com/sandevgo/chorus/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug   bool
	runtime string
)

var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: "Chorus: personas that share your channels",
	Long:  `Chorus runs a set of AI personas that listen in chat channels, answer when spoken to and talk to each other.`,
	Example: `  chorus install
  chorus start --debug
  chorus --runtime /srv/chorus personas --memories 5`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Every command resolves .env, the store and personas.yaml from
		// CHORUS_RUNTIME_PATH, so the flag is applied before any of them run.
		if runtime == "" {
			return nil
		}
		return os.Setenv("CHORUS_RUNTIME_PATH", runtime)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&runtime, "runtime", "", "runtime directory holding .env, personas.yaml and the database (default ~/.chorus)")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if .HasExample}}{{StyleTitle "EXAMPLES"}}
{{StyleDesc .Example}}
{{end}}{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{StyleFlag (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
