// Package registry implements TaskEntry and TaskRegistry (spec.md §3,
// §4.2, §4.4): a TaskID bound to one or more handlers, and the static/
// dynamic lookup table that holds them.
package registry

import (
	"context"
	"sync"

	"taskgrid/internal/body"
	"taskgrid/internal/handler"
	"taskgrid/internal/middleware"
	"taskgrid/internal/taskcontext"
	"taskgrid/internal/taskid"
)

// Entry binds a TaskID to an ordered list of handlers. It is itself a
// middleware.Middleware (structurally — Invoke has the right signature),
// so the application can append it as the terminal link of a chain (§3,
// §4.5).
//
// A shallow-copied Entry returned from Registry.Lookup carries the
// resolved path parameters for that specific lookup; the entry stored in
// the registry never carries parameters (§3 "TaskEntry").
type Entry struct {
	ID         *taskid.TaskID
	Handlers   []*handler.Handler
	PathParams map[string]any
}

// Invoke implements §4.4: fan out concurrently to every bound handler,
// join, aggregate into a single body, store it, then await next.
func (e *Entry) Invoke(ctx context.Context, tc *taskcontext.Context, next middleware.Next) error {
	results, err := e.fanOut(ctx, tc)
	if err != nil {
		return err
	}

	switch len(results) {
	case 0:
		tc.TaskResult.SetBody(body.Empty{})
	case 1:
		tc.TaskResult.SetBody(results[0])
	default:
		payload := make([]any, len(results))
		for i, r := range results {
			if j, ok := r.(body.Json); ok {
				payload[i] = j.Value
			} else {
				payload[i] = r
			}
		}
		tc.TaskResult.SetBody(body.Json{Value: payload})
	}

	return next(ctx)
}

// fanOut runs every handler concurrently and joins before returning,
// propagating the first error encountered (§4.4 step 4, §5 "Handlers
// within one TaskEntry run concurrently and are joined before next is
// awaited").
func (e *Entry) fanOut(ctx context.Context, tc *taskcontext.Context) ([]body.Body, error) {
	n := len(e.Handlers)
	results := make([]body.Body, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i, h := range e.Handlers {
		go func(i int, h *handler.Handler) {
			defer wg.Done()
			scoped := tc.BindHandler("", h.Name)
			b, err := h.Execute(ctx, scoped, e.PathParams)
			results[i] = b
			errs[i] = err
		}(i, h)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// shallowCopyWithParams returns a copy of e carrying params, used by the
// registry's dynamic lookup (§4.2).
func (e *Entry) shallowCopyWithParams(params map[string]any) *Entry {
	return &Entry{ID: e.ID, Handlers: e.Handlers, PathParams: params}
}
