package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// tokenBucket adapts rate.Limiter to RateLimiter.
type tokenBucket struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns a token-bucket limiter allowing requestsPerSecond
// with the given burst. A non-positive rate returns nil (no limiting).
func NewRateLimiter(requestsPerSecond float64, burst int) RateLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a request is allowed under the rate limit.
func (b *tokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}
