package webhook

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff returns the pause before retry number attempt (1-based).
type Backoff interface {
	Next(attempt int) time.Duration
}

// ExponentialBackoff multiplies Initial by Multiplier per attempt, capped at
// Max, with up to JitterFactor relative jitter in both directions.
type ExponentialBackoff struct {
	Initial      time.Duration
	Max          time.Duration
	Multiplier   float64
	JitterFactor float64
}

func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	initial := cmpOr(b.Initial, time.Second)
	ceiling := cmpOr(b.Max, 30*time.Second)
	mult := b.Multiplier
	if mult <= 0 {
		mult = 2
	}

	d := float64(initial) * math.Pow(mult, float64(attempt-1))
	if b.JitterFactor > 0 {
		d *= 1 + (rand.Float64()*2-1)*b.JitterFactor
	}
	return min(time.Duration(d), ceiling)
}

// FixedBackoff always waits Interval.
type FixedBackoff time.Duration

func (b FixedBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(b)
}

// DefaultBackoff starts at one second and doubles up to 30 seconds with 10%
// jitter.
func DefaultBackoff() Backoff {
	return ExponentialBackoff{Initial: time.Second, Max: 30 * time.Second, Multiplier: 2, JitterFactor: 0.1}
}

func cmpOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
