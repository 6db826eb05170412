package agent

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/debounce"
	"github.com/sandevgo/chorus/internal/service/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nova  = core.Persona{Name: "Nova", Emoji: "🦊", Personality: "A curious fox", HomeChannel: "#general"}
	orion = core.Persona{Name: "Orion", Emoji: "🏹", Personality: "A stoic hunter", HomeChannel: "#lab"}
	lyra  = core.Persona{Name: "Lyra", Personality: "A wandering bard", HomeChannel: "#music"}
)

type modelCall struct {
	system string
	turns  []core.Turn
}

type fakeModel struct {
	mu    sync.Mutex
	calls []modelCall
	reply func(system string) (string, error)
}

func (m *fakeModel) Complete(_ context.Context, system string, turns []core.Turn) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, modelCall{system: system, turns: turns})
	m.mu.Unlock()
	return m.reply(system)
}

func (m *fakeModel) speakers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, c := range m.calls {
		name := strings.TrimPrefix(c.system, "You are ")
		names = append(names, name[:strings.Index(name, ".")])
	}
	return names
}

type delivery struct {
	channelID string
	persona   string
	text      string
}

type fakeTransport struct {
	mu        sync.Mutex
	delivered []delivery
	failOn    map[int]bool
	attempts  int
}

func (t *fakeTransport) Name() string { return "test" }

func (t *fakeTransport) Deliver(_ context.Context, channelID string, p core.Persona, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.attempts
	t.attempts++
	if t.failOn[n] {
		return errors.New("send failed")
	}
	t.delivered = append(t.delivered, delivery{channelID: channelID, persona: p.Name, text: text})
	return nil
}

type fakeRecords struct {
	mu       sync.Mutex
	messages []core.MessageRecord
	err      error
}

func (r *fakeRecords) SaveMessage(_ context.Context, rec core.MessageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, rec)
	return nil
}

func (r *fakeRecords) SaveMemory(context.Context, core.MemoryRecord) error { return nil }

func (r *fakeRecords) ListMemories(context.Context, string, int) ([]core.MemoryRecord, error) {
	return nil, nil
}

type fixture struct {
	engine    *Engine
	memory    *memory.Memory
	model     *fakeModel
	transport *fakeTransport
	records   *fakeRecords
	now       time.Time
}

func newFixture(t *testing.T, personas []core.Persona, settings Settings, reply func(string) (string, error)) *fixture {
	t.Helper()
	f := &fixture{
		memory:    memory.NewMemory(10),
		model:     &fakeModel{reply: reply},
		transport: &fakeTransport{failOn: map[int]bool{}},
		records:   &fakeRecords{},
		now:       time.Unix(1700000000, 0),
	}
	f.engine = NewEngine(settings, personas, f.memory, debounce.New(), f.model, f.records,
		[]core.Transport{f.transport},
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func defaultSettings() Settings {
	return Settings{
		InteractionLimit: 2,
		DebounceWindow:   5 * time.Second,
		PropagationDepth: 1,
		MaxMessageLength: 2000,
	}
}

func fixedReply(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}

var general = core.Channel{ID: "#general", Name: "general", Transport: "test"}

func TestEngine_EndToEnd(t *testing.T) {
	f := newFixture(t, []core.Persona{nova, orion}, defaultSettings(), fixedReply("Hi alice, lovely day!"))
	ctx := context.Background()

	event := core.InboundEvent{Transport: "test", ChannelID: "#general", ChannelName: "general", Author: "alice", Text: "hello Nova"}
	require.True(t, f.engine.Ingest(nova, event))
	require.True(t, f.engine.Gate(nova, event.ChannelID, f.now))

	reply := f.engine.Respond(ctx, nova, event.Channel())
	assert.Equal(t, "Hi alice, lovely day!", reply)

	history := f.memory.Snapshot("Nova")
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, "(general) alice: hello Nova", history[0].Text())
	assert.Equal(t, core.RoleAssistant, history[1].Role)
	assert.Equal(t, "Hi alice, lovely day!", history[1].Text())

	require.Len(t, f.model.calls, 1)
	call := f.model.calls[0]
	assert.Equal(t, "You are Nova. A curious fox. Only respond with one or two sentence replies unless asked to explain in detail.", call.system)
	require.Len(t, call.turns, 2)
	assert.Equal(t, memory.ContinueInstruction, call.turns[1].Text())

	assert.Equal(t, []delivery{{channelID: "#general", persona: "Nova", text: "Hi alice, lovely day!"}}, f.transport.delivered)

	require.Len(t, f.records.messages, 1)
	rec := f.records.messages[0]
	assert.Equal(t, "Nova", rec.Persona)
	assert.Equal(t, "#general", rec.ChannelID)
	assert.True(t, rec.IsBot)
}

func TestEngine_LongReplyIsChunked(t *testing.T) {
	long := strings.Repeat("a", 4500)
	f := newFixture(t, []core.Persona{nova}, defaultSettings(), fixedReply(long))

	f.engine.Ingest(nova, core.InboundEvent{ChannelID: "#general", Author: "alice", Text: "tell me a story"})
	f.engine.Respond(context.Background(), nova, general)

	require.Len(t, f.transport.delivered, 3)
	var joined strings.Builder
	for _, d := range f.transport.delivered {
		assert.LessOrEqual(t, len([]rune(d.text)), 2000)
		joined.WriteString(d.text)
	}
	assert.Equal(t, long, joined.String())
}

func TestEngine_DeliveryFailureContinues(t *testing.T) {
	f := newFixture(t, []core.Persona{nova}, defaultSettings(), fixedReply(strings.Repeat("b", 5000)))
	f.transport.failOn[0] = true

	f.engine.Ingest(nova, core.InboundEvent{ChannelID: "#general", Author: "alice", Text: "go"})
	reply := f.engine.Respond(context.Background(), nova, general)

	assert.NotEmpty(t, reply)
	assert.Equal(t, 3, f.transport.attempts)
	assert.Len(t, f.transport.delivered, 2)
}

func TestEngine_PersistenceFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, []core.Persona{nova}, defaultSettings(), fixedReply("still here"))
	f.records.err = errors.New("disk full")

	f.engine.Ingest(nova, core.InboundEvent{ChannelID: "#general", Author: "alice", Text: "ping"})
	f.engine.Respond(context.Background(), nova, general)

	assert.Len(t, f.transport.delivered, 1)
	assert.Equal(t, 2, f.memory.Len("Nova"))
}

func TestEngine_NoResponse(t *testing.T) {
	tests := []struct {
		name  string
		reply func(string) (string, error)
	}{
		{name: "model error", reply: func(string) (string, error) { return "", errors.New("503") }},
		{name: "blank output", reply: fixedReply("   \n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []core.Persona{nova, orion}, defaultSettings(), tt.reply)

			f.engine.Ingest(nova, core.InboundEvent{ChannelID: "#general", Author: "alice", Text: "hello Nova"})
			reply := f.engine.Respond(context.Background(), nova, general)

			assert.Empty(t, reply)
			assert.Equal(t, 1, f.memory.Len("Nova"), "only the ingested turn remains")
			assert.Empty(t, f.transport.delivered)
			assert.Empty(t, f.records.messages)
		})
	}
}

func TestEngine_Ingest(t *testing.T) {
	tests := []struct {
		name      string
		event     core.InboundEvent
		want      bool
		wantParts []core.Part
	}{
		{
			name:  "blank text no attachments",
			event: core.InboundEvent{ChannelID: "#general", Author: "alice", Text: "   "},
			want:  false,
		},
		{
			name: "non-image attachment only",
			event: core.InboundEvent{ChannelID: "#general", Author: "alice",
				Attachments: []core.Attachment{{ContentType: "application/pdf", URL: "https://x/doc.pdf"}}},
			want: false,
		},
		{
			name: "image only",
			event: core.InboundEvent{ChannelID: "#general", Author: "alice",
				Attachments: []core.Attachment{{ContentType: "image/png", URL: "https://x/cat.png"}}},
			want:      true,
			wantParts: []core.Part{core.ImagePart("https://x/cat.png")},
		},
		{
			name: "text with described image",
			event: core.InboundEvent{ChannelID: "#general", ChannelName: "general", Author: "alice", Text: "look",
				Attachments: []core.Attachment{{ContentType: "image/jpeg", URL: "https://x/dog.jpg", Description: "a dog"}}},
			want: true,
			wantParts: []core.Part{
				core.TextPart("(general) alice: look"),
				core.ImagePart("https://x/dog.jpg"),
				core.TextPart("[image: a dog]"),
			},
		},
		{
			name: "link preview",
			event: core.InboundEvent{ChannelID: "#general", ChannelName: "general", Author: "alice", Text: "read https://a.io",
				Attachments: []core.Attachment{{ContentType: "text/html", URL: "https://a.io", Description: "A page"}}},
			want: true,
			wantParts: []core.Part{
				core.TextPart("(general) alice: read https://a.io"),
				core.TextPart("[link https://a.io: A page]"),
			},
		},
		{
			name:      "channel id stands in for missing name",
			event:     core.InboundEvent{ChannelID: "#general", Author: "bob", Text: "  hey  "},
			want:      true,
			wantParts: []core.Part{core.TextPart("(#general) bob: hey")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []core.Persona{nova}, defaultSettings(), fixedReply(""))

			got := f.engine.Ingest(nova, tt.event)

			assert.Equal(t, tt.want, got)
			history := f.memory.Snapshot("Nova")
			if !tt.want {
				assert.Empty(t, history)
				return
			}
			require.Len(t, history, 1)
			assert.Equal(t, core.RoleUser, history[0].Role)
			assert.Equal(t, tt.wantParts, history[0].Parts)
		})
	}
}

func TestEngine_Gate(t *testing.T) {
	f := newFixture(t, []core.Persona{nova}, defaultSettings(), fixedReply(""))

	assert.True(t, f.engine.Gate(nova, "#general", f.now))
	assert.False(t, f.engine.Gate(nova, "#general", f.now))
	assert.True(t, f.engine.Gate(nova, "#random", f.now))

	f.now = f.now.Add(5 * time.Second)
	assert.True(t, f.engine.Gate(nova, "#general", f.now))
}

func TestEngine_Propagate(t *testing.T) {
	f := newFixture(t, []core.Persona{nova, orion}, defaultSettings(), func(system string) (string, error) {
		if strings.HasPrefix(system, "You are Nova.") {
			return "Orion, what do you think?", nil
		}
		return "I think we hunt at dawn.", nil
	})
	f.memory.Append("Nova", core.NewTextTurn(core.RoleAssistant, "The stars are bright tonight."))

	reply := f.engine.Respond(context.Background(), nova, general)

	assert.Equal(t, "Orion, what do you think?", reply)
	assert.Equal(t, []string{"Nova", "Orion"}, f.model.speakers())
	assert.Equal(t, []delivery{
		{channelID: "#general", persona: "Nova", text: "Orion, what do you think?"},
		{channelID: "#general", persona: "Orion", text: "I think we hunt at dawn."},
	}, f.transport.delivered)

	orionHistory := f.memory.Snapshot("Orion")
	require.Len(t, orionHistory, 1)
	assert.Equal(t, core.RoleAssistant, orionHistory[0].Role)
	assert.Len(t, f.records.messages, 2)
}

func TestEngine_NoPropagationAfterUserTurn(t *testing.T) {
	f := newFixture(t, []core.Persona{nova, orion}, defaultSettings(), fixedReply("hello"))

	f.engine.Ingest(nova, core.InboundEvent{ChannelID: "#general", Author: "alice", Text: "hi Nova"})
	f.engine.Respond(context.Background(), nova, general)

	assert.Equal(t, []string{"Nova"}, f.model.speakers())
}

func TestEngine_PropagationDepth(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		want  []string
	}{
		{name: "disabled", depth: 0, want: []string{"Nova"}},
		{name: "one level", depth: 1, want: []string{"Nova", "Orion"}},
		{name: "two levels", depth: 2, want: []string{"Nova", "Orion", "Nova"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := defaultSettings()
			settings.PropagationDepth = tt.depth
			f := newFixture(t, []core.Persona{nova, orion}, settings, fixedReply("and so on"))
			f.memory.Append("Nova", core.NewTextTurn(core.RoleAssistant, "earlier"))
			f.memory.Append("Orion", core.NewTextTurn(core.RoleAssistant, "earlier"))

			f.engine.Respond(context.Background(), nova, general)

			assert.Equal(t, tt.want, f.model.speakers())
		})
	}
}

func TestEngine_PropagationNeverPicksSelf(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		f := newFixture(t, []core.Persona{nova, orion, lyra}, defaultSettings(), fixedReply("mm"))
		f.engine.rnd = rand.New(rand.NewSource(seed))
		f.memory.Append("Nova", core.NewTextTurn(core.RoleAssistant, "earlier"))

		f.engine.Respond(context.Background(), nova, general)

		speakers := f.model.speakers()
		require.Len(t, speakers, 2)
		assert.NotEqual(t, "Nova", speakers[1])
	}
}

func TestEngine_SinglePersonaDoesNotPropagate(t *testing.T) {
	f := newFixture(t, []core.Persona{nova}, defaultSettings(), fixedReply("alone"))
	f.memory.Append("Nova", core.NewTextTurn(core.RoleAssistant, "earlier"))

	f.engine.Respond(context.Background(), nova, general)

	assert.Equal(t, []string{"Nova"}, f.model.speakers())
}
