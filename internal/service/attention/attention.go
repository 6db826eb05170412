package attention

import (
	"sync"
	"time"

	"github.com/sandevgo/chorus/internal/core"
)

type record struct {
	channelID   string
	mentionedAt time.Time
}

// Tracker remembers the channel a persona was last mentioned in outside
// its home channel. A persona with no record is at home.
type Tracker struct {
	mu      sync.Mutex
	records map[string]record
}

func NewTracker() *Tracker {
	return &Tracker{records: make(map[string]record)}
}

// RecordMention stores channelID as the persona's focus. Mentions in the
// home channel are ignored.
func (t *Tracker) RecordMention(p core.Persona, channelID string, now time.Time) {
	if channelID == p.HomeChannel {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[p.Name] = record{channelID: channelID, mentionedAt: now}
}

// ResolveTarget returns the channel the persona is currently attending.
func (t *Tracker) ResolveTarget(p core.Persona) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.records[p.Name]; ok {
		return r.channelID
	}
	return p.HomeChannel
}

// DecayIfStale drops the persona's record once more than window has
// passed since the mention. It reports whether a record was dropped.
func (t *Tracker) DecayIfStale(p core.Persona, now time.Time, window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[p.Name]
	if !ok || r.channelID == p.HomeChannel {
		return false
	}
	if now.Sub(r.mentionedAt) <= window {
		return false
	}
	delete(t.records, p.Name)
	return true
}
