package main

import (
	"context"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/providers/llm"
	"github.com/sandevgo/chorus/internal/service/maintenance"
	"github.com/sandevgo/chorus/internal/service/memory"
	"github.com/sandevgo/chorus/pkg/log"
	"github.com/spf13/cobra"
)

var maintainCmd = &cobra.Command{
	Use:          "maintain",
	Short:        "Run one dream, summary and goal pass and exit",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		b := initBase(ctx)
		defer b.db.Close()

		model, err := llm.NewProvider(ctx, b.cfg, b.cfg.MaintenanceModel)
		if err != nil {
			return err
		}

		mem := memory.NewMemory(b.cfg.HistoryLimit)
		restoreMemory(ctx, b, mem)

		return maintenance.NewRoutine(b.personas, mem, model, b.records).Run(ctx)
	},
}

// restoreMemory fills a fresh memory with what each persona said last, so
// an offline pass has something to reflect on.
func restoreMemory(ctx context.Context, b *base, mem *memory.Memory) {
	logger := log.FromCtx(ctx)
	for _, p := range b.personas {
		msgs, err := b.records.ListMessages(ctx, p.Name, mem.Limit())
		if err != nil {
			logger.Warn().Err(err).Str("persona", p.Name).Msg("failed to restore messages")
			continue
		}
		for _, m := range msgs {
			mem.Append(p.Name, core.NewTextTurn(core.RoleAssistant, m.Content))
		}
	}
}

func init() {
	rootCmd.AddCommand(maintainCmd)
}
