package command

import (
	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/memory"
)

type Directory interface {
	PersonaLister
	PersonaLookup
}

func NewCommands(
	personas Directory,
	attention TargetResolver,
	mem *memory.Memory,
	records core.RecordRepository,
	maintenance MaintenanceRunner,
) []core.Command {
	return []core.Command{
		NewPersonasCommand(personas, attention),
		NewMemoryCommand(personas, mem, records),
		NewMaintainCommand(maintenance),
	}
}
