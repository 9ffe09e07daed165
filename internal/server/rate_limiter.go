package server

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter guards one connection's inbound commands. Burst commands may
// arrive at once; the bucket refills at Burst per RefillInterval.
type rateLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst),
		now:     time.Now,
	}
}

// allow takes one token, reporting false when the bucket is empty.
func (rl *rateLimiter) allow() bool {
	return rl.limiter.AllowN(rl.now(), 1)
}
