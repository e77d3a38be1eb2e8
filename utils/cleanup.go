package utils

import (
	"context"
	"time"
)

// Sweep drops revocations whose token has already expired and returns how many went.
func (m *MemoryRevocations) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for key, until := range m.entries {
		if now.After(until) {
			delete(m.entries, key)
			n++
		}
	}
	return n
}

// StartRevocationSweeper prunes m every interval until ctx is done.
// Redis-backed revocations expire on their own and need no sweeper.
func StartRevocationSweeper(ctx context.Context, m *MemoryRevocations, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := m.Sweep(); n > 0 {
					Sugar.Debugf("revocation sweeper removed %d expired entries", n)
				}
			}
		}
	}()
}
