// Package handler implements Handler and its parameter-injection plan
// (spec.md §3, §4.3). Go has no runtime introspection of a function's
// declared parameter *names*, so — instead of the source's string-
// concatenated exec() signature synthesis the spec explicitly tells us to
// avoid re-architecting (§9) — a Handler's plan is declared explicitly at
// wrap time as an ordered []Spec, one entry per positional argument the
// wrapped Func receives. This keeps the "frozen parameter plan computed
// once at wiring time" property (§3 "Handler") without any code synthesis
// or reflection-based name discovery. Path parameters are threaded in
// explicitly through Execute's pathParams argument, the shallow-copied
// resolution a registry lookup produces (§3 "TaskEntry").
package handler

import (
	"context"
	"encoding/json"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/body"
	"taskgrid/internal/convert"
	"taskgrid/internal/taskcontext"
)

// Kind classifies one parameter-plan entry (§4.3's "Classify" step).
type Kind int

const (
	// FromTask injects the current *task.Task.
	FromTask Kind = iota
	// FromTaskResult injects the current *task.TaskResult.
	FromTaskResult
	// FromParam resolves a named parameter: path-params first, then the
	// Task's parameters map (awaiting a lazy value at most once), per
	// §4.3.
	FromParam
)

// Spec is one entry in a Handler's parameter plan.
type Spec struct {
	Kind      Kind
	Name      string // only meaningful for FromParam
	Converter convert.Converter
}

// Task injects the Task (§4.3 "If the type is Task -> source is
// context.task").
func Task() Spec { return Spec{Kind: FromTask} }

// TaskResult injects the TaskResult.
func TaskResult() Spec { return Spec{Kind: FromTaskResult} }

// Param resolves a named parameter through the given converter.
func Param(name string, conv convert.Converter) Spec {
	if conv == nil {
		conv = convert.Any{}
	}
	return Spec{Kind: FromParam, Name: name, Converter: conv}
}

// Func is the underlying wrapped callable. args are positional, populated
// per the Handler's plan (with the manager instance prepended when bound
// to one, per §4.3 step 2). Sync functions simply don't block on I/O;
// "await if it returns a coroutine" (§4.3 step 3) has no Go equivalent —
// every Func already runs to completion synchronously within the calling
// goroutine, which is how the teacher's own handlers are written.
type Func func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error)

// ManagerFactory instantiates a manager instance bound to the task context,
// prepended to the handler's positional arguments (§4.3 step 2).
type ManagerFactory func(tc *taskcontext.Context) any

// Handler is a wrapped Func plus its frozen parameter plan.
type Handler struct {
	Name    string
	fn      Func
	plan    []Spec
	manager ManagerFactory
}

// New wraps fn with the given parameter plan, computed once here (§3).
func New(name string, fn Func, plan []Spec, opts ...Option) *Handler {
	h := &Handler{Name: name, fn: fn, plan: plan}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Option configures a Handler at wrap time.
type Option func(*Handler)

// WithManager binds the handler to a manager factory (§4.3 step 2).
func WithManager(f ManagerFactory) Option {
	return func(h *Handler) { h.manager = f }
}

// Execute resolves every parameter in the plan, instantiates the bound
// manager (if any), invokes fn, and normalizes the return value into a
// Body (§4.3 steps 1-4).
func (h *Handler) Execute(ctx context.Context, tc *taskcontext.Context, pathParams map[string]any) (body.Body, error) {
	args := make([]any, 0, len(h.plan)+1)
	if h.manager != nil {
		args = append(args, h.manager(tc))
	}

	for _, spec := range h.plan {
		switch spec.Kind {
		case FromTask:
			args = append(args, tc.Task)
		case FromTaskResult:
			args = append(args, tc.TaskResult)
		case FromParam:
			v, err := resolveParam(ctx, tc, pathParams, spec)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		default:
			return nil, apperrors.Newf(apperrors.KindInternal, "handler %s: unknown parameter kind", h.Name)
		}
	}

	result, err := h.fn(ctx, tc, args)
	if err != nil {
		return nil, err
	}
	return normalize(result)
}

// resolveParam implements §4.3's lookup order: path-parameters map first,
// then the Task's parameters map (possibly lazy), then failure.
func resolveParam(ctx context.Context, tc *taskcontext.Context, pathParams map[string]any, spec Spec) (any, error) {
	if raw, ok := pathParams[spec.Name]; ok {
		v, err := spec.Converter.Convert(raw)
		if err != nil {
			return nil, apperrors.ParamInvalid(spec.Name, err)
		}
		return v, nil
	}

	raw, ok, err := tc.Task.Param(ctx, spec.Name)
	if err != nil {
		return nil, apperrors.ParamInvalid(spec.Name, err)
	}
	if !ok {
		return nil, apperrors.ParamRequired(spec.Name)
	}
	v, err := spec.Converter.Convert(raw)
	if err != nil {
		return nil, apperrors.ParamInvalid(spec.Name, err)
	}
	return v, nil
}

// normalize implements §4.3 step 4.
func normalize(result any) (body.Body, error) {
	if result == nil {
		return body.Empty{}, nil
	}
	if b, ok := result.(body.Body); ok {
		return b, nil
	}
	if _, err := json.Marshal(result); err != nil {
		return nil, apperrors.Newf(apperrors.KindInternal, "handler return value is not JSON-representable: %v", err)
	}
	return body.Json{Value: result}, nil
}
