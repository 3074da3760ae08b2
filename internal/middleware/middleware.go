// Package middleware implements the cooperative middleware chain (spec.md
// §4.5): an ordered list where each entry may act before and/or after
// calling next, with pre-phases running in list order and post-phases in
// reverse ("onion" model).
package middleware

import (
	"context"

	"taskgrid/internal/taskcontext"
)

// Next is the zero-argument continuation passed to a Middleware's Invoke.
// Awaiting it runs the remainder of the chain; the sentinel at the tail is
// a no-op that returns immediately (§4.5).
type Next func(ctx context.Context) error

// Middleware is invoked with a next continuation and the current
// TaskContext (§3 "Middleware"). A TaskEntry (internal/registry)
// implements this interface structurally — it fans out to handlers in its
// pre-phase, then calls next, with no import cycle required.
type Middleware interface {
	Invoke(ctx context.Context, tc *taskcontext.Context, next Next) error
}

// MiddlewareFunc adapts a plain function to Middleware.
type MiddlewareFunc func(ctx context.Context, tc *taskcontext.Context, next Next) error

func (f MiddlewareFunc) Invoke(ctx context.Context, tc *taskcontext.Context, next Next) error {
	return f(ctx, tc, next)
}

// Chain is an ordered middleware list, typically ending in a TaskEntry
// (§4.5 "m_k is a TaskEntry").
type Chain []Middleware

// Run executes the chain starting at index 0, threading each Middleware's
// next into the following one, with the final sentinel Next being a no-op
// (§4.5).
func (c Chain) Run(ctx context.Context, tc *taskcontext.Context) error {
	return c.runFrom(0)(ctx, tc)
}

func (c Chain) runFrom(i int) func(ctx context.Context, tc *taskcontext.Context) error {
	if i >= len(c) {
		return func(ctx context.Context, tc *taskcontext.Context) error { return nil }
	}
	return func(ctx context.Context, tc *taskcontext.Context) error {
		next := func(ctx context.Context) error {
			return c.runFrom(i + 1)(ctx, tc)
		}
		return c[i].Invoke(ctx, tc, next)
	}
}

// Compose concatenates application-level middleware with a terminal
// Middleware (usually a TaskEntry), matching the system overview's "the
// application composes application-level middleware with the entry as the
// terminal middleware" data flow.
func Compose(appMiddleware []Middleware, terminal Middleware) Chain {
	chain := make(Chain, 0, len(appMiddleware)+1)
	chain = append(chain, appMiddleware...)
	chain = append(chain, terminal)
	return chain
}
