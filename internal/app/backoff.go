package app

import "time"

// Default retry configuration values.
const (
	DefaultMaxAttempts = 3
	DefaultRetryStep   = 300 * time.Millisecond
)

// backoff waits attempt*step after a failed attempt, so the gaps grow
// linearly: step, 2*step, ...
type backoff struct {
	step  time.Duration
	sleep func(time.Duration)
}

func newBackoff(step time.Duration) *backoff {
	return &backoff{step: step, sleep: time.Sleep}
}

// Delay returns the wait after the given failed attempt (1-based).
func (b *backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * b.step
}

// Sleep blocks for Delay(attempt). It is not interruptible.
func (b *backoff) Sleep(attempt int) {
	b.sleep(b.Delay(attempt))
}
