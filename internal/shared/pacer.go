package shared

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between consecutive calls to the metadata
// services. It is a single mutually-exclusive timer shared by the MusicBrainz
// and AcoustID clients, not a token bucket: each caller takes the lock,
// sleeps out the remainder of the interval since the previous call, then
// stamps the clock and releases.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewPacer creates a pacer with the given minimum interval between calls.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until at least the configured interval has passed since the
// previous call. It returns early with the context error on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if remaining := p.interval - time.Since(p.last); remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	p.last = time.Now()
	return nil
}
