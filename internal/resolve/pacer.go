package resolve

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces call starts at least minDelay apart. The gap is measured from
// the moment the previous Wait returned, which is when that call started.
type Pacer struct {
	minDelay time.Duration

	mu        sync.Mutex
	lastStart time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter returns a Pacer with the given minimum spacing. minDelay <= 0
// disables pacing.
func NewLimiter(minDelay time.Duration) *Pacer {
	return &Pacer{minDelay: minDelay, now: time.Now, sleep: sleepContext}
}

// Wait blocks until minDelay has passed since the previous call start, then
// records the new start. It returns early with ctx's error when cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if p.minDelay > 0 && !p.lastStart.IsZero() {
		// Re-check after each sleep; the gap must fully elapse.
		for {
			remaining := p.lastStart.Add(p.minDelay).Sub(p.now())
			if remaining <= 0 {
				break
			}
			if err := p.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	p.lastStart = p.now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
