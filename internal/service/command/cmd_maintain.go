package command

import (
	"context"

	"github.com/sandevgo/chorus/pkg/log"
)

// MaintenanceRunner starts a pass in the background, or fails with
// maintenance.ErrRunning while the scheduler or an earlier command is
// still running one.
type MaintenanceRunner interface {
	Start(ctx context.Context) (<-chan error, error)
}

// MaintainCommand starts a maintenance pass in the background.
type MaintainCommand struct {
	runner    MaintenanceRunner
	formatter *ResponseFormatter
}

func NewMaintainCommand(runner MaintenanceRunner) *MaintainCommand {
	return &MaintainCommand{
		runner:    runner,
		formatter: NewResponseFormatter(),
	}
}

func (c *MaintainCommand) Name() string {
	return "maintain"
}

func (c *MaintainCommand) Description() string {
	return "Run the maintenance routine now"
}

func (c *MaintainCommand) Execute(ctx context.Context, _ string, _ []string) (string, error) {
	ctx = context.WithoutCancel(ctx)

	done, err := c.runner.Start(ctx)
	if err != nil {
		return "", err
	}

	go func() {
		if err := <-done; err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("manual maintenance failed")
		}
	}()

	return c.formatter.Success("Maintenance started"), nil
}
