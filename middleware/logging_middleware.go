package middleware

import (
	"context"
	"time"

	"admin-rpc/message"

	"github.com/sirupsen/logrus"
)

// LoggingMiddleware logs every admin call with its duration and, on failure, the cause.
func LoggingMiddleware(log *logrus.Entry) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *message.Call) message.Outcome {
			start := time.Now()
			out := next(ctx, call)

			entry := log.WithFields(logrus.Fields{
				"player_id": call.PlayerID,
				"call_id":   call.CallID,
				"address":   call.Address,
				"duration":  time.Since(start),
			})
			if out.Failed() {
				entry.WithError(out.Err).Warn("admin call failed")
			} else {
				entry.Info("admin call completed")
			}
			return out
		}
	}
}
