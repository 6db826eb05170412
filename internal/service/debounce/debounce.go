package debounce

import (
	"sync"
	"time"
)

// Debouncer admits at most one trigger per key per window. Entries are
// kept for the life of the process.
type Debouncer struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func New() *Debouncer {
	return &Debouncer{last: make(map[string]time.Time)}
}

// TryAcquire records now and returns true if key was never seen or its
// last trigger is at least window old. Otherwise it changes nothing.
func (d *Debouncer) TryAcquire(key string, now time.Time, window time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.last[key]; ok && now.Sub(last) < window {
		return false
	}
	d.last[key] = now
	return true
}
