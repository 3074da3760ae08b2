// Package application composes transports, registries, and the
// middleware pipeline into the running system (spec.md §3 "Application —
// Composes transports + registries + middleware; run/stop"), grounded on
// the teacher's internal/di.Container Start/Shutdown lifecycle.
package application

import (
	"context"
	"fmt"
	"sync"

	"taskgrid/internal/logging"
	"taskgrid/internal/middleware"
	"taskgrid/internal/registry"
	"taskgrid/internal/session"
	"taskgrid/internal/task"
	"taskgrid/internal/taskcontext"
)

// Transport is anything the Application can start and stop; HTTP,
// pub/sub, and queue adapters each implement this (§6).
type Transport interface {
	Name() string
	Start(ctx context.Context, app *Application) error
	Stop(ctx context.Context) error
}

// Option configures an Application at construction.
type Option func(*Application)

// WithMiddleware appends application-level middleware, inserted between
// the fixed error-handling layer and each transport's TaskEntry terminal
// (§4.5, §7 "a fixed layer at the top of the chain").
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(a *Application) { a.middleware = append(a.middleware, mw...) }
}

// WithSessionPool attaches a session pool, enabling TaskContext extension
// via WithSessionResolver for any transport that supplies one (§4.6, §4.7).
func WithSessionPool(pool *session.Pool) Option {
	return func(a *Application) { a.sessions = pool }
}

// WithJWTKeyFunc configures the signing-key lookup used to decode a
// bearer credential into session fields (§4.7, §6 "Authorization ->
// parsed into (scheme, credentials)"). Without this option, a bearer
// credential fails to resolve into a Session with a descriptive error
// rather than panicking on a nil key function.
func WithJWTKeyFunc(keyFunc session.JWTKeyFunc) Option {
	return func(a *Application) { a.jwtKeyFunc = keyFunc }
}

// Application owns one TaskRegistry per transport name (§3 "Transport
// binding"), the shared middleware stack, and the process lifecycle.
type Application struct {
	logger     *logging.Logger
	middleware []middleware.Middleware
	sessions   *session.Pool
	jwtKeyFunc session.JWTKeyFunc

	mu         sync.RWMutex
	registries map[string]*registry.Registry
	transports map[string]Transport

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an empty Application.
func New(opts ...Option) *Application {
	a := &Application{
		logger:     logging.NewComponentLogger("Application"),
		registries: map[string]*registry.Registry{},
		transports: map[string]Transport{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns (creating if necessary) the TaskRegistry bound to
// transportName, so callers can wire Managers/handlers into it before
// Run (§3 "Transport binding").
func (a *Application) Registry(transportName string) *registry.Registry {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.registries[transportName]
	if !ok {
		r = registry.New("", nil)
		a.registries[transportName] = r
	}
	return r
}

// AddTransport registers a Transport under its own Name(), started by Run.
func (a *Application) AddTransport(t Transport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transports[t.Name()] = t
}

// SessionPool exposes the attached pool, or nil if none was configured.
func (a *Application) SessionPool() *session.Pool { return a.sessions }

// HandleTask is the entry point every transport calls after constructing
// a Task and a fresh TaskResult (§6 "Call the application's handle_task
// entry point and await its completion"). It looks up the bound registry,
// resolves the matching TaskEntry, and runs the middleware chain with
// error-handling as the fixed outer layer.
func (a *Application) HandleTask(ctx context.Context, transportName string, t *task.Task, result *task.TaskResult) error {
	a.mu.RLock()
	reg, ok := a.registries[transportName]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("application: no registry bound to transport %q", transportName)
	}

	tc := taskcontext.New(t, result, a.logger)
	if a.sessions != nil {
		tc = tc.WithSessionResolver(a.sessionResolver(t))
	}

	var terminal middleware.Middleware
	entry, err := reg.Lookup(t.ID)
	if err != nil {
		terminal = failingTerminal(err)
	} else {
		terminal = entry
	}

	chain := a.fullChain(terminal)
	return chain.Run(ctx, tc)
}

// fullChain prepends the fixed error-handling layer to the
// application-level middleware and the given terminal (§7 "a fixed layer
// at the top of the chain").
func (a *Application) fullChain(terminal middleware.Middleware) middleware.Chain {
	chain := make(middleware.Chain, 0, len(a.middleware)+2)
	chain = append(chain, middleware.ErrorHandling())
	chain = append(chain, a.middleware...)
	chain = append(chain, terminal)
	return chain
}

func failingTerminal(cause error) middleware.Middleware {
	return middleware.MiddlewareFunc(func(ctx context.Context, tc *taskcontext.Context, next middleware.Next) error {
		return cause
	})
}

func (a *Application) sessionResolver(t *task.Task) taskcontext.SessionResolver {
	return func(ctx context.Context) (*session.Session, error) {
		if t.Metadata.AuthCredential == "" {
			return nil, fmt.Errorf("application: no authorization credential on task")
		}
		key := t.Metadata.AuthScheme + " " + t.Metadata.AuthCredential
		if a.jwtKeyFunc == nil {
			return a.sessions.Upsert(ctx, key, func(ctx context.Context) (map[string]session.Field, error) {
				return nil, fmt.Errorf("application: no session field getter configured for scheme %q", t.Metadata.AuthScheme)
			})
		}
		getter := session.FieldsFromBearerToken(t.Metadata.AuthScheme, t.Metadata.AuthCredential, a.jwtKeyFunc)
		return a.sessions.Upsert(ctx, key, getter)
	}
}

// Run starts every registered transport and blocks until ctx is
// cancelled or Stop is called, mirroring the teacher's
// Container.Start/Shutdown lifecycle split into a single blocking call.
func (a *Application) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.mu.RLock()
	transports := make([]Transport, 0, len(a.transports))
	for _, t := range a.transports {
		transports = append(transports, t)
	}
	a.mu.RUnlock()

	errs := make(chan error, len(transports))
	for _, t := range transports {
		t := t
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := t.Start(runCtx, a); err != nil {
				a.logger.Error("transport %s stopped: %v", t.Name(), err)
				errs <- err
			}
		}()
	}

	<-runCtx.Done()
	a.wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop cancels Run's context and stops every transport, draining
// in-flight tasks before returning (§9 "Graceful shutdown").
func (a *Application) Stop(ctx context.Context) error {
	a.mu.RLock()
	transports := make([]Transport, 0, len(a.transports))
	for _, t := range a.transports {
		transports = append(transports, t)
	}
	pool := a.sessions
	a.mu.RUnlock()

	if a.cancel != nil {
		a.cancel()
	}

	var firstErr error
	for _, t := range transports {
		if err := t.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.wg.Wait()

	_ = pool // the pool's own sweeper goroutine is stopped via its ctx, owned by the caller that started it
	return firstErr
}
