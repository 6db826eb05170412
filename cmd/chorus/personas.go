package main

import (
	"fmt"

	"github.com/sandevgo/chorus/internal/service/ui"
	"github.com/spf13/cobra"
)

var personasMemories int

var personasCmd = &cobra.Command{
	Use:          "personas",
	Short:        "List the stored personas",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		b := initBase(ctx)
		defer b.db.Close()

		out := cmd.OutOrStdout()
		for _, p := range b.personas {
			fmt.Fprintf(out, "%s %s\n", ui.PersonaStyle.Render(p.DisplayName()), ui.ChannelStyle.Render(p.HomeChannel))
			fmt.Fprintf(out, "  %s\n", ui.DescStyle.Render(p.Personality))

			if personasMemories <= 0 {
				continue
			}
			recs, err := b.records.ListMemories(ctx, p.Name, personasMemories)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Fprintf(out, "  %s %s\n", ui.FlagStyle.Render(string(r.Kind)), r.Content)
			}
		}
		return nil
	},
}

func init() {
	personasCmd.Flags().IntVarP(&personasMemories, "memories", "m", 0, "also show the last N maintenance notes")
	rootCmd.AddCommand(personasCmd)
}
