package agent

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/debounce"
	"github.com/sandevgo/chorus/internal/service/memory"
	"github.com/sandevgo/chorus/pkg/conv"
	"github.com/sandevgo/chorus/pkg/log"
)

type Settings struct {
	InteractionLimit int
	DebounceWindow   time.Duration
	PropagationDepth int
	MaxMessageLength int
}

// Engine turns routed events into persona replies: it records what a
// persona hears, gates how often it speaks, asks the model for a reply,
// delivers it and lets another persona answer back.
type Engine struct {
	settings   Settings
	personas   []core.Persona
	memory     *memory.Memory
	debouncer  *debounce.Debouncer
	model      core.ModelCaller
	records    core.RecordRepository
	transports map[string]core.Transport

	rndMu sync.Mutex
	rnd   *rand.Rand
	now   func() time.Time
}

type Option func(*Engine)

// WithRand makes the propagation target choice reproducible.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(
	settings Settings,
	personas []core.Persona,
	mem *memory.Memory,
	debouncer *debounce.Debouncer,
	model core.ModelCaller,
	records core.RecordRepository,
	transports []core.Transport,
	opts ...Option,
) *Engine {
	e := &Engine{
		settings:   settings,
		personas:   personas,
		memory:     mem,
		debouncer:  debouncer,
		model:      model,
		records:    records,
		transports: make(map[string]core.Transport, len(transports)),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
	for _, t := range transports {
		e.transports[t.Name()] = t
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest appends the event to the persona's memory as a user turn. It
// returns false when the event has neither text nor images.
func (e *Engine) Ingest(p core.Persona, event core.InboundEvent) bool {
	text := strings.TrimSpace(event.Text)

	var parts []core.Part
	if text != "" {
		name := event.ChannelName
		if name == "" {
			name = event.ChannelID
		}
		parts = append(parts, core.TextPart(memory.InboundText(name, event.Author, text)))
	}
	for _, a := range event.Attachments {
		switch {
		case a.URL == "":
		case a.IsImage():
			parts = append(parts, core.ImagePart(a.URL))
			if a.Description != "" {
				parts = append(parts, core.TextPart("[image: "+a.Description+"]"))
			}
		case a.Description != "":
			parts = append(parts, core.TextPart("[link "+a.URL+": "+a.Description+"]"))
		}
	}

	if len(parts) == 0 {
		return false
	}
	e.memory.Append(p.Name, core.Turn{Role: core.RoleUser, Parts: parts})
	return true
}

// Gate reports whether the persona may respond in channelID to an event
// received at the given time.
func (e *Engine) Gate(p core.Persona, channelID string, at time.Time) bool {
	return e.debouncer.TryAcquire(p.Name+"-"+channelID, at, e.settings.DebounceWindow)
}

// Respond generates and delivers the persona's reply in channel, then
// gives another persona the chance to continue. It returns the reply, or
// "" when the model produced nothing.
func (e *Engine) Respond(ctx context.Context, p core.Persona, channel core.Channel) string {
	reply := e.speak(ctx, p, channel)
	if reply == "" {
		return ""
	}
	e.propagate(ctx, p, channel, 1)
	return reply
}

func (e *Engine) speak(ctx context.Context, p core.Persona, channel core.Channel) string {
	reply := e.generate(ctx, p)
	if reply == "" {
		return ""
	}
	e.commit(ctx, p, channel, reply)
	return reply
}

func (e *Engine) generate(ctx context.Context, p core.Persona) string {
	logger := log.FromCtx(ctx).With().Str("persona", p.Name).Logger()

	system := memory.SystemPrompt(p)
	turns := memory.WithInstruction(e.memory.Snapshot(p.Name), memory.ContinueInstruction)

	if log.DebugEnabled(ctx) {
		logger.Debug().
			Int("turns", len(turns)).
			Int("tokens", memory.EstimateTokens(system, turns)).
			Msg("calling chat model")
	}

	reply, err := e.model.Complete(ctx, system, turns)
	if err != nil {
		logger.Warn().Err(err).Msg("model call failed, no response")
		return ""
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		logger.Warn().Msg("model returned an empty response")
	}
	return reply
}

func (e *Engine) commit(ctx context.Context, p core.Persona, channel core.Channel, reply string) {
	logger := log.FromCtx(ctx).With().Str("persona", p.Name).Str("channel", channel.ID).Logger()
	logger.Info().Msg("persona responds")

	e.memory.Append(p.Name, core.NewTextTurn(core.RoleAssistant, reply))

	if e.records != nil {
		err := e.records.SaveMessage(ctx, core.MessageRecord{
			Persona:     p.Name,
			ChannelID:   channel.ID,
			ChannelName: channel.Name,
			Content:     reply,
			IsBot:       true,
			CreatedAt:   e.now(),
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to persist message")
		}
	}

	transport, ok := e.transports[channel.Transport]
	if !ok {
		logger.Error().Str("transport", channel.Transport).Msg("no transport for channel")
		return
	}

	for i, chunk := range conv.Chunk(reply, e.settings.MaxMessageLength) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		if err := transport.Deliver(ctx, channel.ID, p, chunk); err != nil {
			logger.Error().Err(err).Int("chunk", i).Msg("failed to deliver chunk")
		}
	}
}

// propagate lets a random other persona answer when p has been talking
// without hearing anyone for interactionLimit turns.
func (e *Engine) propagate(ctx context.Context, p core.Persona, channel core.Channel, depth int) {
	if depth > e.settings.PropagationDepth || !e.shouldContinue(p) {
		return
	}

	next, ok := e.pickOther(p)
	if !ok {
		return
	}

	log.FromCtx(ctx).Debug().
		Str("persona", next.Name).
		Str("prompted_by", p.Name).
		Int("depth", depth).
		Msg("continuing conversation")

	if reply := e.speak(ctx, next, channel); reply != "" {
		e.propagate(ctx, next, channel, depth+1)
	}
}

func (e *Engine) shouldContinue(p core.Persona) bool {
	limit := e.settings.InteractionLimit
	if limit < 1 {
		return false
	}
	recent := e.memory.Recent(p.Name, limit)
	if len(recent) < limit {
		return false
	}
	for _, t := range recent {
		if t.Role != core.RoleAssistant {
			return false
		}
	}
	return true
}

func (e *Engine) pickOther(p core.Persona) (core.Persona, bool) {
	others := make([]core.Persona, 0, len(e.personas))
	for _, o := range e.personas {
		if o.Name != p.Name {
			others = append(others, o)
		}
	}
	if len(others) == 0 {
		return core.Persona{}, false
	}

	e.rndMu.Lock()
	i := e.rnd.Intn(len(others))
	e.rndMu.Unlock()
	return others[i], true
}

func (e *Engine) Memory() *memory.Memory {
	return e.memory
}
