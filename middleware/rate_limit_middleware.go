package middleware

import (
	"context"
	"errors"

	"admin-rpc/message"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitMiddleware rejects calls beyond a token bucket of r calls per second
// with the given burst. Rejected calls never open a connection.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *message.Call) message.Outcome {
			if !limiter.Allow() {
				return message.Fail(ErrRateLimited)
			}
			return next(ctx, call)
		}
	}
}
