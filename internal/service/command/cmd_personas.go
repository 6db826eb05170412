package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/chorus/internal/core"
)

type PersonaLister interface {
	Personas() []core.Persona
}

type TargetResolver interface {
	ResolveTarget(p core.Persona) string
}

type PersonasCommand struct {
	personas  PersonaLister
	attention TargetResolver
	formatter *ResponseFormatter
}

func NewPersonasCommand(personas PersonaLister, attention TargetResolver) *PersonasCommand {
	return &PersonasCommand{
		personas:  personas,
		attention: attention,
		formatter: NewResponseFormatter(),
	}
}

func (c *PersonasCommand) Name() string {
	return "personas"
}

func (c *PersonasCommand) Description() string {
	return "List personas with their home and current channel"
}

func (c *PersonasCommand) Execute(_ context.Context, _ string, _ []string) (string, error) {
	personas := c.personas.Personas()
	if len(personas) == 0 {
		return c.formatter.Info("No personas configured"), nil
	}

	items := make([]string, 0, len(personas))
	for _, p := range personas {
		line := fmt.Sprintf("**%s** home `%s`", p.DisplayName(), p.HomeChannel)
		if target := c.attention.ResolveTarget(p); target != p.HomeChannel {
			line += fmt.Sprintf(", attending `%s`", target)
		}
		items = append(items, line)
	}
	return c.formatter.Combine(c.formatter.Info("Personas"), c.formatter.List(items)), nil
}
