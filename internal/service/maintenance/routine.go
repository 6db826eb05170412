package maintenance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/memory"
	"github.com/sandevgo/chorus/pkg/log"
)

// ErrRunning is returned when a pass is requested while another one is in
// flight, whoever started it.
var ErrRunning = errors.New("maintenance is already running")

// Routine makes every persona dream, summarize its memory and set a goal.
// Each step is stored as a memory record even when its model call fails.
// At most one pass runs at a time.
type Routine struct {
	running  sync.Mutex
	personas []core.Persona
	memory   *memory.Memory
	model    core.ModelCaller
	records  core.RecordRepository
	now      func() time.Time
}

func NewRoutine(
	personas []core.Persona,
	mem *memory.Memory,
	model core.ModelCaller,
	records core.RecordRepository,
) *Routine {
	return &Routine{
		personas: personas,
		memory:   mem,
		model:    model,
		records:  records,
		now:      time.Now,
	}
}

type step struct {
	kind  core.MemoryKind
	build func(p core.Persona, history []core.Turn) (string, []core.Turn)
}

var steps = []step{
	{
		kind: core.MemoryDream,
		build: func(p core.Persona, history []core.Turn) (string, []core.Turn) {
			return memory.SystemPrompt(p), memory.WithInstruction(history, memory.DreamInstruction)
		},
	},
	{
		kind: core.MemorySummary,
		build: func(_ core.Persona, history []core.Turn) (string, []core.Turn) {
			return memory.SummaryPrompt, history
		},
	},
	{
		kind: core.MemoryGoal,
		build: func(p core.Persona, history []core.Turn) (string, []core.Turn) {
			return memory.SystemPrompt(p), memory.WithInstruction(history, memory.GoalInstruction)
		},
	},
}

// Run processes personas one after another. It stops early only when ctx
// is cancelled, and returns ErrRunning without doing anything while another
// pass is in flight.
func (r *Routine) Run(ctx context.Context) error {
	if !r.running.TryLock() {
		return ErrRunning
	}
	defer r.running.Unlock()
	return r.pass(ctx)
}

// Start claims the routine and runs a pass in the background. The channel
// yields the result of the pass once it ends.
func (r *Routine) Start(ctx context.Context) (<-chan error, error) {
	if !r.running.TryLock() {
		return nil, ErrRunning
	}

	done := make(chan error, 1)
	go func() {
		defer r.running.Unlock()
		done <- r.pass(ctx)
		close(done)
	}()
	return done, nil
}

func (r *Routine) pass(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	start := r.now()
	logger.Info().Int("personas", len(r.personas)).Msg("maintenance started")

	for _, p := range r.personas {
		if err := ctx.Err(); err != nil {
			return err
		}
		history := r.memory.Snapshot(p.Name)
		for _, s := range steps {
			system, turns := s.build(p, history)
			r.store(ctx, p, s.kind, r.call(ctx, p, s.kind, system, turns))
		}
	}

	logger.Info().Dur("took", r.now().Sub(start)).Msg("maintenance finished")
	return nil
}

func (r *Routine) call(ctx context.Context, p core.Persona, kind core.MemoryKind, system string, turns []core.Turn) string {
	out, err := r.model.Complete(ctx, system, turns)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).
			Str("persona", p.Name).
			Str("kind", string(kind)).
			Msg("maintenance call failed")
		return ""
	}
	return strings.TrimSpace(out)
}

func (r *Routine) store(ctx context.Context, p core.Persona, kind core.MemoryKind, content string) {
	err := r.records.SaveMemory(ctx, core.MemoryRecord{
		Persona:   p.Name,
		Kind:      kind,
		Content:   content,
		CreatedAt: r.now(),
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).
			Str("persona", p.Name).
			Str("kind", string(kind)).
			Msg("failed to save memory record")
	}
}
