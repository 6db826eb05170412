package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/memory"
)

type PersonaLookup interface {
	Lookup(name string) (core.Persona, error)
}

const (
	memoryTurnsShown   = 5
	memoryRecordsShown = 3
	previewLength      = 160
)

type MemoryCommand struct {
	lookup    PersonaLookup
	memory    *memory.Memory
	records   core.RecordRepository
	formatter *ResponseFormatter
}

func NewMemoryCommand(lookup PersonaLookup, mem *memory.Memory, records core.RecordRepository) *MemoryCommand {
	return &MemoryCommand{
		lookup:    lookup,
		memory:    mem,
		records:   records,
		formatter: NewResponseFormatter(),
	}
}

func (c *MemoryCommand) Name() string {
	return "memory"
}

func (c *MemoryCommand) Description() string {
	return "Show a persona's recent turns and maintenance notes"
}

func (c *MemoryCommand) Execute(ctx context.Context, _ string, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Usage("/memory <persona>"), nil
	}

	p, err := c.lookup.Lookup(strings.Join(args, " "))
	if err != nil {
		return "", err
	}

	turns := c.memory.Recent(p.Name, memoryTurnsShown)
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		text := t.Text()
		if n := len(t.Images()); n > 0 {
			text = strings.TrimSpace(fmt.Sprintf("%s [%d image(s)]", text, n))
		}
		lines = append(lines, fmt.Sprintf("_%s_: %s", t.Role, preview(text)))
	}
	if len(lines) == 0 {
		lines = append(lines, "nothing yet")
	}

	sections := []string{
		c.formatter.Info(p.DisplayName()),
		c.formatter.Label("Turns", fmt.Sprintf("%d/%d", c.memory.Len(p.Name), c.memory.Limit())),
		c.formatter.Section("💬", "Recent", c.formatter.List(lines)),
	}

	if c.records != nil {
		recs, err := c.records.ListMemories(ctx, p.Name, memoryRecordsShown)
		if err != nil {
			return "", fmt.Errorf("load memories: %w", err)
		}
		if len(recs) > 0 {
			items := make([]string, 0, len(recs))
			for _, r := range recs {
				items = append(items, fmt.Sprintf("%s (%s): %s", r.Kind, r.CreatedAt.Format("2006-01-02"), preview(r.Content)))
			}
			sections = append(sections, c.formatter.Section("🌙", "Maintenance", c.formatter.List(items)))
		}
	}

	return c.formatter.Combine(sections...), nil
}

func preview(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= previewLength {
		return string(r)
	}
	return string(r[:previewLength]) + "…"
}
