// Package manager implements the declarative handler group of spec.md §3
// ("Manager — a declarative group of handlers sharing a path prefix and a
// managed scheme") together with the preset-handler constructors §9
// resolves the source's stringly-typed decorator into: ordinary named
// methods, computed once, no code synthesis.
package manager

import (
	"context"
	"fmt"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/convert"
	"taskgrid/internal/handler"
	"taskgrid/internal/registry"
	"taskgrid/internal/taskcontext"
	"taskgrid/internal/taskid"
)

// Manager groups handlers under a path prefix, backed by its own
// sub-registry, and supplies the manager instance handlers bound to it
// receive as their first positional argument (§4.3 step 2).
type Manager struct {
	Name     string
	Registry *registry.Registry
	factory  handler.ManagerFactory
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithFactory overrides how a manager instance is produced for a given
// TaskContext (§4.3 "instantiate the manager with the context as its only
// argument"). Without this option the manager instance is the *Manager
// itself.
func WithFactory(f handler.ManagerFactory) Option {
	return func(m *Manager) { m.factory = f }
}

// New creates a Manager with its own sub-registry rooted at pathPrefix.
func New(name, pathPrefix string, opts ...Option) *Manager {
	m := &Manager{Name: name, Registry: registry.New(pathPrefix, nil)}
	for _, opt := range opts {
		opt(m)
	}
	if m.factory == nil {
		self := m
		m.factory = func(tc *taskcontext.Context) any { return self }
	}
	return m
}

// Handle declares one handler bound to this manager, wired at path
// (relative to the manager's prefix) under method, with the given
// parameter plan (§4.2 "add_handler", §4.3 "Handler").
func (m *Manager) Handle(method taskid.Method, path string, fn handler.Func, plan []handler.Spec, opts ...taskid.Option) {
	id := taskid.New(method, path, opts...)
	h := handler.New(m.Name+" "+path, fn, plan, handler.WithManager(m.factory))
	m.Registry.AddHandler(id, h)
}

// Store is the minimal persistence contract a manager's scheme is bound
// to for the preset handler constructors below. Applications supply their
// own implementation (a DAL, an in-memory map, a DB-backed repository);
// taskgrid defines only the shape preset handlers call through.
type Store interface {
	Get(ctx context.Context, id string) (any, error)
	List(ctx context.Context) ([]any, error)
	PutField(ctx context.Context, id, field string, value any) error
}

// PresetGet builds the Func+plan pair for a GET-by-id handler over store
// (§9 "get_<manager>").
func PresetGet(store Store) (handler.Func, []handler.Spec) {
	fn := func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		id, _ := args[0].(string)
		v, err := store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, apperrors.NotFound(fmt.Sprintf("no such item %q", id))
		}
		return v, nil
	}
	return fn, []handler.Spec{handler.Param("id", convert.Str{})}
}

// PresetList builds the Func+plan pair for a listing handler over store.
func PresetList(store Store) (handler.Func, []handler.Spec) {
	fn := func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		return store.List(ctx)
	}
	return fn, nil
}

// PresetPutField builds the Func+plan pair for a single-field update
// handler over store (§9 "put_<field>"). The incoming value is taken from
// a request parameter named field, alongside the item's id.
func PresetPutField(store Store, field string) (handler.Func, []handler.Spec) {
	fn := func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		id, _ := args[0].(string)
		value := args[1]
		if err := store.PutField(ctx, id, field, value); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return fn, []handler.Spec{handler.Param("id", convert.Str{}), handler.Param(field, convert.Any{})}
}

// PresetGet registers a GET-by-id handler at path under this manager.
func (m *Manager) PresetGet(path string, store Store) {
	fn, plan := PresetGet(store)
	m.Handle(taskid.GET, path, fn, plan)
}

// PresetList registers a listing handler at path under this manager.
func (m *Manager) PresetList(path string, store Store) {
	fn, plan := PresetList(store)
	m.Handle(taskid.GET, path, fn, plan)
}

// PresetPutField registers a single-field update handler at path under
// this manager.
func (m *Manager) PresetPutField(path, field string, store Store) {
	fn, plan := PresetPutField(store, field)
	m.Handle(taskid.PUT, path, fn, plan)
}
