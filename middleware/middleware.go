// Package middleware wraps the client-side admin call in an onion of
// cross-cutting concerns (logging, rate limiting).
//
//	Chain(A, B)(bridge) → A(B(bridge))
//	A.before → B.before → bridge → B.after → A.after
package middleware

import (
	"context"

	"admin-rpc/message"
)

// HandlerFunc performs one admin call and reports its single outcome.
type HandlerFunc func(ctx context.Context, call *message.Call) message.Outcome

type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares; the first one listed runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
