// Package task implements the transport-neutral Task/TaskResult envelope
// model (spec.md §3, §7).
package task

import (
	"context"
	"sync"

	"taskgrid/internal/body"
	"taskgrid/internal/taskid"
)

// Metadata carries the authorization credential, trace/client identifiers,
// and an extensible key/value bag (§3).
type Metadata struct {
	AuthScheme      string
	AuthCredential  string
	TraceID         string
	ClientID        string
	State           map[string]any
}

// Get returns a State value, the ok flag mirroring a regular map lookup.
func (m *Metadata) Get(key string) (any, bool) {
	if m.State == nil {
		return nil, false
	}
	v, ok := m.State[key]
	return v, ok
}

// Set stores a State value, initializing the map on first use.
func (m *Metadata) Set(key string, value any) {
	if m.State == nil {
		m.State = map[string]any{}
	}
	m.State[key] = value
}

// Clone returns a deep-enough copy of Metadata for TaskResult's "mirror of
// Task metadata, with optional additions" (§3).
func (m Metadata) Clone() Metadata {
	cp := m
	cp.State = make(map[string]any, len(m.State))
	for k, v := range m.State {
		cp.State[k] = v
	}
	return cp
}

// LazyValue wraps a parameter whose resolution requires I/O (the canonical
// example being the HTTP request body, §4.3 "Lazy parameters"). Get is
// memoized with a single-resolution guard so two handlers consuming the
// same Task observe the same value without re-parsing (§5, §8).
type LazyValue struct {
	once    sync.Once
	resolve func(ctx context.Context) (any, error)
	val     any
	err     error
}

// NewLazyValue wraps resolve so its first call is memoized.
func NewLazyValue(resolve func(ctx context.Context) (any, error)) *LazyValue {
	return &LazyValue{resolve: resolve}
}

// Get runs resolve at most once, regardless of how many callers invoke Get
// concurrently or sequentially.
func (l *LazyValue) Get(ctx context.Context) (any, error) {
	l.once.Do(func() {
		l.val, l.err = l.resolve(ctx)
	})
	return l.val, l.err
}

// Task is the immutable per-request envelope (§3). Parameters may hold
// resolved values or *LazyValue placeholders.
type Task struct {
	ID         *taskid.TaskID
	Metadata   Metadata
	Parameters map[string]any
}

// New constructs a Task. Parameters may be nil, in which case lookups
// simply miss.
func New(id *taskid.TaskID, meta Metadata, params map[string]any) *Task {
	if params == nil {
		params = map[string]any{}
	}
	return &Task{ID: id, Metadata: meta, Parameters: params}
}

// Param resolves a named parameter, transparently awaiting a *LazyValue
// exactly once (§4.3, §8). The second return is false on a plain map miss.
func (t *Task) Param(ctx context.Context, name string) (any, bool, error) {
	v, ok := t.Parameters[name]
	if !ok {
		return nil, false, nil
	}
	if lv, isLazy := v.(*LazyValue); isLazy {
		resolved, err := lv.Get(ctx)
		if err != nil {
			return nil, true, err
		}
		return resolved, true, nil
	}
	return v, true, nil
}

// Status is the closed result-status enum (§7). The numeric value mirrors
// the HTTP status code the taxonomy maps to, since the HTTP transport is
// bit-level compatible by contract (§6); other transports translate it to
// their own wire status.
type Status int

const (
	StatusOK                  Status = 200
	StatusCreated              Status = 201
	StatusNoContent            Status = 204
	StatusBadRequest           Status = 400
	StatusUnauthorized         Status = 401
	StatusForbidden            Status = 403
	StatusNotFound             Status = 404
	StatusConflict             Status = 409
	StatusUnprocessableEntity Status = 422
	StatusInternalServerError Status = 500
	StatusNotImplemented       Status = 501
	StatusServiceUnavailable  Status = 503
)

// TaskResult is the mutable outcome carrier created alongside a Task and
// consumed by the transport for serialization (§3).
type TaskResult struct {
	mu       sync.Mutex
	Status   Status
	Body     body.Body
	Metadata Metadata
}

// NewResult builds a fresh, not-yet-populated TaskResult defaulting to
// StatusOK / Empty body, mirroring Task's metadata (§3).
func NewResult(taskMeta Metadata) *TaskResult {
	return &TaskResult{
		Status:   StatusOK,
		Body:     body.Empty{},
		Metadata: taskMeta.Clone(),
	}
}

// SetBody sets the result body under lock; the fan-out join point is the
// only writer (§5 "writes to task_result.body happen only at the fan-out
// join point").
func (r *TaskResult) SetBody(b body.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Body = b
}

// SetStatus sets the result status under lock.
func (r *TaskResult) SetStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = s
}

// GetBody reads the result body under lock.
func (r *TaskResult) GetBody() body.Body {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body
}

// GetStatus reads the result status under lock.
func (r *TaskResult) GetStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status
}
