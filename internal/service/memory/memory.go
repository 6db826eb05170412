package memory

import (
	"sync"

	"github.com/sandevgo/chorus/internal/core"
)

// Memory keeps a bounded, ordered conversation history per persona.
// Oldest turns are evicted first once a history exceeds its limit.
type Memory struct {
	mu        sync.RWMutex
	limit     int
	histories map[string][]core.Turn
}

func NewMemory(limit int) *Memory {
	if limit < 1 {
		limit = 1
	}
	return &Memory{
		limit:     limit,
		histories: make(map[string][]core.Turn),
	}
}

func (m *Memory) Limit() int {
	return m.limit
}

func (m *Memory) Append(personaID string, turn core.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := append(m.histories[personaID], turn)
	if over := len(h) - m.limit; over > 0 {
		// copy down so the backing array does not grow without bound
		h = append(h[:0:0], h[over:]...)
	}
	m.histories[personaID] = h
}

// Recent returns up to the last n turns, oldest first.
func (m *Memory) Recent(personaID string, n int) []core.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.histories[personaID]
	if n <= 0 || len(h) == 0 {
		return nil
	}
	if n > len(h) {
		n = len(h)
	}
	out := make([]core.Turn, n)
	copy(out, h[len(h)-n:])
	return out
}

func (m *Memory) Snapshot(personaID string) []core.Turn {
	return m.Recent(personaID, m.limit)
}

func (m *Memory) Len(personaID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.histories[personaID])
}
