// Package taskcontext implements the per-task execution carrier (spec.md
// §3, §4.6): the Task, TaskResult, a bound logger, and a lazily-attached
// Session.
package taskcontext

import (
	"context"
	"sync"

	"taskgrid/internal/logging"
	"taskgrid/internal/session"
	"taskgrid/internal/task"
)

// SessionResolver lazily resolves the Session for a Context on first
// access (§4.6 "Extended context... construction is lazy").
type SessionResolver func(ctx context.Context) (*session.Session, error)

// Context is the base/extended TaskContext unified into one type: Session
// is nil until first accessed (or until a resolver is absent, in which
// case Session always returns nil, false).
type Context struct {
	Task       *task.Task
	TaskResult *task.TaskResult
	Logger     *logging.Logger

	mu         sync.Mutex
	resolver   SessionResolver
	sess       *session.Session
	sessErr    error
	sessLoaded bool
}

// New builds a base Context (§4.6 "Base context").
func New(t *task.Task, r *task.TaskResult, logger *logging.Logger) *Context {
	bound := logger.Bind(map[string]any{"trace_id": t.Metadata.TraceID})
	return &Context{Task: t, TaskResult: r, Logger: bound}
}

// WithSessionResolver attaches a lazy session resolver, turning the base
// context into an "extended" one per §4.6. It returns the same *Context so
// callers can chain construction.
func (c *Context) WithSessionResolver(r SessionResolver) *Context {
	c.mu.Lock()
	c.resolver = r
	c.mu.Unlock()
	return c
}

// Session resolves (on first call) and returns the attached Session. The
// second return is false if no resolver was configured or resolution
// failed; callers that need the error should inspect SessionErr after a
// false result.
func (c *Context) Session(ctx context.Context) (*session.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessLoaded {
		return c.sess, c.sess != nil
	}
	c.sessLoaded = true
	if c.resolver == nil {
		return nil, false
	}
	c.sess, c.sessErr = c.resolver(ctx)
	return c.sess, c.sess != nil
}

// SessionErr returns the error from the last lazy Session resolution
// attempt, if any.
func (c *Context) SessionErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessErr
}

// BindHandler returns a derived Context whose Logger carries handler/manager
// name fields, for per-handler scoped logging (§6 "binds trace_id,
// manager_name, handler_name at appropriate scopes").
func (c *Context) BindHandler(managerName, handlerName string) *Context {
	cp := *c
	cp.Logger = c.Logger.Bind(map[string]any{
		"manager_name": managerName,
		"handler_name": handlerName,
	})
	return &cp
}

// ctxKey is the private key type used to stash a *Context inside a
// standard context.Context, implementing the task-local variable described
// in §4.6 ("scheduler-safe ... per-task, not per-thread"). Go's
// context.Context is itself immutable and threaded explicitly through
// every call, including into goroutines spawned for concurrent handler
// fan-out (§4.4), so storing the *Context this way automatically satisfies
// that requirement without any additional synchronization.
type ctxKey struct{}

// Into stores tc inside ctx for scheme instances constructed deep in
// handler bodies to retrieve without being passed tc explicitly.
func Into(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// From retrieves the *Context stored by Into, if any.
func From(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(*Context)
	return tc, ok
}
