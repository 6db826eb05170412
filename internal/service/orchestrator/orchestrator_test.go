package orchestrator

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/agent"
	"github.com/sandevgo/chorus/internal/service/attention"
	"github.com/sandevgo/chorus/internal/service/debounce"
	"github.com/sandevgo/chorus/internal/service/memory"
	"github.com/sandevgo/chorus/internal/service/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoModel struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
	reply string
}

func (m *echoModel) Complete(ctx context.Context, system string, turns []core.Turn) (string, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.reply != "" {
		return m.reply, nil
	}
	return "ok", nil
}

func (m *echoModel) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type sink struct {
	mu    sync.Mutex
	texts []string
}

func (s *sink) Name() string { return "test" }

func (s *sink) Deliver(_ context.Context, channelID string, p core.Persona, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, p.Name+"@"+channelID+": "+text)
	return nil
}

func (s *sink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

var personas = []core.Persona{
	{Name: "Nova", Emoji: "🦊", Personality: "A curious fox", HomeChannel: "#general"},
	{Name: "Orion", Personality: "A stoic hunter", HomeChannel: "#lab"},
}

type harness struct {
	orch    *Orchestrator
	model   *echoModel
	out     *sink
	mem     *memory.Memory
	tracker *attention.Tracker
}

func newHarness(model *echoModel) *harness {
	return newHarnessFor(model, personas)
}

func newHarnessFor(model *echoModel, personas []core.Persona) *harness {
	h := &harness{model: model, out: &sink{}, mem: memory.NewMemory(10), tracker: attention.NewTracker()}
	engine := agent.NewEngine(agent.Settings{
		InteractionLimit: 2,
		DebounceWindow:   5 * time.Second,
		PropagationDepth: 1,
		MaxMessageLength: 2000,
	}, personas, h.mem, debounce.New(), model, nil, []core.Transport{h.out},
		agent.WithRand(rand.New(rand.NewSource(7))))
	h.orch = New(router.New(personas, h.tracker), engine, h.tracker, 5*time.Minute)
	return h
}

func (h *harness) run(t *testing.T, events ...core.InboundEvent) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.orch.Start(ctx)
		close(done)
	}()
	for _, e := range events {
		h.orch.Publish(ctx, e)
	}
	// the queue drains before cancellation is observed only if we wait
	require.Eventually(t, func() bool { return len(h.orch.events) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
	require.NoError(t, h.orch.Shutdown(context.Background()))
}

func TestOrchestrator_RoutesAndResponds(t *testing.T) {
	h := newHarness(&echoModel{})

	h.run(t, core.InboundEvent{Transport: "test", ChannelID: "#general", ChannelName: "general", Author: "alice", Text: "hello Nova"})

	assert.Equal(t, []string{"Nova@#general: ok"}, h.out.delivered())
	assert.Equal(t, 2, h.mem.Len("Nova"))
}

func TestOrchestrator_DebouncedEventStillIngested(t *testing.T) {
	h := newHarness(&echoModel{})
	now := time.Now()

	h.run(t,
		core.InboundEvent{Transport: "test", ChannelID: "#general", Author: "alice", Text: "hi", ReceivedAt: now},
		core.InboundEvent{Transport: "test", ChannelID: "#general", Author: "bob", Text: "hey", ReceivedAt: now},
	)

	assert.Equal(t, 1, h.model.count())
	assert.Equal(t, 3, h.mem.Len("Nova"), "two user turns and one reply")
}

func TestOrchestrator_Unrouted(t *testing.T) {
	h := newHarness(&echoModel{})

	h.run(t,
		core.InboundEvent{Transport: "test", ChannelID: "#random", Author: "alice", Text: "nobody here"},
		core.InboundEvent{Transport: "test", ChannelID: "#general", Author: "Nova 🦊", Text: "talking to myself"},
	)

	assert.Zero(t, h.model.count())
	assert.Empty(t, h.out.delivered())
}

func TestOrchestrator_MentionAndDecay(t *testing.T) {
	h := newHarness(&echoModel{})
	t0 := time.Now()

	h.run(t,
		core.InboundEvent{Transport: "test", ChannelID: "#random", Author: "alice", Text: "Orion come here", ReceivedAt: t0},
	)
	assert.Equal(t, "#random", h.tracker.ResolveTarget(personas[1]))

	h.run(t,
		core.InboundEvent{Transport: "test", ChannelID: "#lab", Author: "alice", Text: "back home?", ReceivedAt: t0.Add(6 * time.Minute)},
	)
	assert.Equal(t, "#lab", h.tracker.ResolveTarget(personas[1]))
}

func TestOrchestrator_ShutdownWaitsForReplies(t *testing.T) {
	model := &echoModel{gate: make(chan struct{})}
	h := newHarness(model)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.orch.Start(ctx) }()

	h.orch.Publish(ctx, core.InboundEvent{Transport: "test", ChannelID: "#general", Author: "alice", Text: "slow question"})
	require.Eventually(t, func() bool { return len(h.orch.events) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()

	short, stop := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer stop()
	assert.ErrorIs(t, h.orch.Shutdown(short), context.DeadlineExceeded)

	close(model.gate)
	assert.NoError(t, h.orch.Shutdown(context.Background()))
	assert.Equal(t, []string{"Nova@#general: ok"}, h.out.delivered())
}

func TestOrchestrator_DebounceUsesEventTime(t *testing.T) {
	h := newHarness(&echoModel{})
	t0 := time.Now().Add(-time.Minute)

	// Dispatched back to back, but received six seconds apart.
	h.run(t,
		core.InboundEvent{Transport: "test", ChannelID: "#general", Author: "alice", Text: "hi", ReceivedAt: t0},
		core.InboundEvent{Transport: "test", ChannelID: "#general", Author: "bob", Text: "hey", ReceivedAt: t0.Add(6 * time.Second)},
	)

	var novaReplies int
	for _, d := range h.out.delivered() {
		if strings.HasPrefix(d, "Nova@#general: ") {
			novaReplies++
		}
	}
	assert.Equal(t, 2, novaReplies)
}

func TestOrchestrator_MentionOutsideHomeChannel(t *testing.T) {
	nova := core.Persona{Name: "Nova", Emoji: "🦊", Personality: "A curious fox", HomeChannel: "#lab"}
	orion := core.Persona{Name: "Orion", Personality: "A stoic hunter", HomeChannel: "#den"}
	reply := strings.Repeat("Stars are just old light. ", 180)
	h := newHarnessFor(&echoModel{reply: reply}, []core.Persona{nova, orion})

	h.run(t, core.InboundEvent{
		Transport:   "test",
		ChannelID:   "#general",
		ChannelName: "general",
		Author:      "alice",
		Text:        "Nova, what do you think?",
	})

	assert.Equal(t, "#general", h.tracker.ResolveTarget(nova))

	history := h.mem.Snapshot("Nova")
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, "(general) alice: Nova, what do you think?", history[0].Text())
	assert.Equal(t, core.RoleAssistant, history[1].Role)
	assert.Equal(t, strings.TrimSpace(reply), history[1].Text())

	delivered := h.out.delivered()
	require.Len(t, delivered, 3)
	var joined strings.Builder
	for _, d := range delivered {
		text, ok := strings.CutPrefix(d, "Nova@#general: ")
		require.True(t, ok, d)
		assert.LessOrEqual(t, len([]rune(text)), 2000)
		joined.WriteString(text)
	}
	assert.Equal(t, strings.TrimSpace(reply), strings.TrimSpace(joined.String()))
	assert.Zero(t, h.mem.Len("Orion"))
}
