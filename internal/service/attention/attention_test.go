package attention

import (
	"testing"
	"time"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/stretchr/testify/assert"
)

var nova = core.Persona{Name: "Nova", Emoji: "🦊", HomeChannel: "#general"}

func TestTracker_ResolveDefaultsToHome(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, "#general", tr.ResolveTarget(nova))
}

func TestTracker_HomeMentionNotRecorded(t *testing.T) {
	tr := NewTracker()
	now := time.Unix(1000, 0)

	tr.RecordMention(nova, "#general", now)

	assert.Equal(t, "#general", tr.ResolveTarget(nova))
	assert.False(t, tr.DecayIfStale(nova, now.Add(time.Hour), time.Minute))
}

func TestTracker_Decay(t *testing.T) {
	window := 300000 * time.Millisecond
	mentioned := time.Unix(1000, 0)

	tests := []struct {
		name      string
		elapsed   time.Duration
		decayed   bool
		wantAfter string
	}{
		{name: "fresh", elapsed: time.Minute, decayed: false, wantAfter: "#random"},
		{name: "exactly at window", elapsed: window, decayed: false, wantAfter: "#random"},
		{name: "past window", elapsed: window + time.Millisecond, decayed: true, wantAfter: "#general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tr.RecordMention(nova, "#random", mentioned)
			assert.Equal(t, "#random", tr.ResolveTarget(nova))

			got := tr.DecayIfStale(nova, mentioned.Add(tt.elapsed), window)

			assert.Equal(t, tt.decayed, got)
			assert.Equal(t, tt.wantAfter, tr.ResolveTarget(nova))
		})
	}
}

func TestTracker_LatestMentionWins(t *testing.T) {
	tr := NewTracker()
	now := time.Unix(1000, 0)

	tr.RecordMention(nova, "#random", now)
	tr.RecordMention(nova, "#lab", now.Add(time.Second))

	assert.Equal(t, "#lab", tr.ResolveTarget(nova))
}
