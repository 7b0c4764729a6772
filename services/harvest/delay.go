package harvest

import (
	"context"
	"time"

	"github.com/mazen160/go-random"
)

// Delay is the randomized pause inserted between consecutive
// storefront requests. rate-limiting courtesy, not correctness: the
// bounds come straight from configuration and a zero Delay disables
// the pause, which is the explicit override tests and impatient
// operators use.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

func (d Delay) Wait(ctx context.Context) error {
	if d.Max <= 0 || d.Max < d.Min {
		return nil
	}

	ms, err := random.IntRange(int(d.Min.Milliseconds()), int(d.Max.Milliseconds())+1)
	if err != nil {
		ms = int(d.Max.Milliseconds())
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
