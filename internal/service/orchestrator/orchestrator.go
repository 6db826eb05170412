package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/agent"
	"github.com/sandevgo/chorus/internal/service/attention"
	"github.com/sandevgo/chorus/internal/service/router"
	"github.com/sandevgo/chorus/pkg/log"
)

const queueSize = 64

// Orchestrator owns the dispatch loop. Events are routed, ingested and
// gated one at a time; replies are generated in their own goroutines so
// reception never waits on the model.
type Orchestrator struct {
	events    chan core.InboundEvent
	router    *router.Router
	engine    *agent.Engine
	attention *attention.Tracker
	decay     time.Duration
	now       func() time.Time

	inflight sync.WaitGroup
}

func New(
	r *router.Router,
	engine *agent.Engine,
	tracker *attention.Tracker,
	decay time.Duration,
) *Orchestrator {
	return &Orchestrator{
		events:    make(chan core.InboundEvent, queueSize),
		router:    r,
		engine:    engine,
		attention: tracker,
		decay:     decay,
		now:       time.Now,
	}
}

// Publish queues an event for dispatch. It blocks while the queue is full
// unless ctx ends first.
func (o *Orchestrator) Publish(ctx context.Context, event core.InboundEvent) {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = o.now()
	}
	select {
	case o.events <- event:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("orchestrator started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-o.events:
			o.dispatch(ctx, event)
		}
	}
}

// Shutdown waits for replies that are still being generated.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, event core.InboundEvent) {
	logger := log.FromCtx(ctx).With().
		Str("channel", event.ChannelID).
		Str("author", event.Author).
		Logger()

	p, reason, ok := o.router.Route(event)
	if !ok {
		logger.Debug().Str("reason", string(reason)).Msg("event not routed")
		return
	}
	logger = logger.With().Str("persona", p.Name).Logger()

	if !o.engine.Ingest(p, event) {
		logger.Debug().Msg("empty event skipped")
		return
	}

	if o.engine.Gate(p, event.ChannelID, event.ReceivedAt) {
		logger.Debug().Str("reason", string(reason)).Msg("dispatching response")
		channel := event.Channel()
		rctx := context.WithoutCancel(ctx)
		o.inflight.Add(1)
		go func() {
			defer o.inflight.Done()
			o.engine.Respond(rctx, p, channel)
		}()
	} else {
		logger.Debug().Msg("debounced")
	}

	if o.attention.DecayIfStale(p, event.ReceivedAt, o.decay) {
		logger.Info().Str("home", p.HomeChannel).Msg("decayed back to home channel")
	}
}
