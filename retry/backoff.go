// Package retry wraps client-side cache calls in exponential back-off with
// jitter. Server interceptors never retry; only the client uses it.
package retry

import (
	"math/rand/v2"
	"time"
)

// spread returns a value in [-1, 1). Tests replace it to pin the jitter.
var spread = func() float64 { return rand.Float64()*2 - 1 }

// delay returns the wait after the failed attempt (0-indexed): BaseDelay
// doubled per attempt, capped at MaxDelay, then moved by up to ±Jitter of
// itself. Doubling stops at the cap, so large attempt numbers cannot
// overflow.
func (c Config) delay(attempt int) time.Duration {
	d := c.BaseDelay
	for range attempt {
		if c.MaxDelay > 0 && d >= c.MaxDelay {
			break
		}
		d *= 2
	}
	if c.MaxDelay > 0 {
		d = min(d, c.MaxDelay)
	}
	if c.Jitter > 0 {
		d += time.Duration(float64(d) * c.Jitter * spread())
	}
	return max(d, 0)
}
