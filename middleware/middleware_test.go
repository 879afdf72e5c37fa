package middleware

import (
	"context"
	"errors"
	"testing"

	"admin-rpc/message"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Simulates a conductor that always answers
func echoHandler(ctx context.Context, call *message.Call) message.Outcome {
	return message.Ok(map[string]any{"player": call.PlayerID})
}

// Simulates a conductor that is not listening
func refusedHandler(ctx context.Context, call *message.Call) message.Outcome {
	return message.Fail(errors.New("connection refused"))
}

func newCall() *message.Call {
	return &message.Call{CallID: "c1", PlayerID: "p1", Address: "ws://localhost:9000"}
}

func TestLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	handler := LoggingMiddleware(logrus.NewEntry(logger))(echoHandler)

	out := handler(context.Background(), newCall())
	require.False(t, out.Failed())
	assert.Equal(t, map[string]any{"player": "p1"}, out.Payload)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "p1", entry.Data["player_id"])
	assert.Equal(t, "c1", entry.Data["call_id"])
	assert.Contains(t, entry.Data, "duration")
}

func TestLoggingFailure(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	handler := LoggingMiddleware(logrus.NewEntry(logger))(refusedHandler)

	out := handler(context.Background(), newCall())
	require.True(t, out.Failed())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "connection refused")
}

func TestRateLimit(t *testing.T) {
	// rate=1 per second, burst=2 → the first 2 pass, the 3rd is rejected
	calls := 0
	counting := func(ctx context.Context, call *message.Call) message.Outcome {
		calls++
		return echoHandler(ctx, call)
	}
	handler := RateLimitMiddleware(1, 2)(counting)

	for i := 0; i < 2; i++ {
		out := handler(context.Background(), newCall())
		require.False(t, out.Failed(), "call %d should pass", i)
	}

	out := handler(context.Background(), newCall())
	require.ErrorIs(t, out.Err, ErrRateLimited)
	assert.Equal(t, 2, calls)
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, call *message.Call) message.Outcome {
				order = append(order, name+".before")
				out := next(ctx, call)
				order = append(order, name+".after")
				return out
			}
		}
	}

	handler := Chain(mark("A"), mark("B"))(echoHandler)
	out := handler(context.Background(), newCall())

	require.False(t, out.Failed())
	assert.Equal(t, []string{"A.before", "B.before", "B.after", "A.after"}, order)
}

func TestChainEmpty(t *testing.T) {
	out := Chain()(echoHandler)(context.Background(), newCall())
	assert.False(t, out.Failed())
}
