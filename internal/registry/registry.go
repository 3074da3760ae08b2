package registry

import (
	"taskgrid/internal/apperrors"
	"taskgrid/internal/convert"
	"taskgrid/internal/handler"
	"taskgrid/internal/taskid"
)

// Registry is the static+dynamic TaskID -> Entry table (§3, §4.2).
type Registry struct {
	pathPrefix  string
	prefixTypes map[string]convert.Converter

	static  map[string]*Entry
	dynamic []*Entry
}

// New constructs an empty Registry with the given path prefix, applied to
// every entry added or merged in (§3 "A registry also carries a
// path_prefix").
func New(pathPrefix string, prefixTypes map[string]convert.Converter) *Registry {
	return &Registry{
		pathPrefix:  pathPrefix,
		prefixTypes: prefixTypes,
		static:      map[string]*Entry{},
	}
}

// AddEntry forks entry's TaskID by the registry's path prefix and stores it
// in the static table (overwriting any prior entry for that key) or
// appends to the dynamic list, per §4.2.
func (r *Registry) AddEntry(entry *Entry) {
	forked := entry.ID.Fork(r.pathPrefix, r.prefixTypes)
	stored := &Entry{ID: forked, Handlers: entry.Handlers}
	if forked.IsStatic() {
		r.static[forked.StaticKey()] = stored
		return
	}
	r.dynamic = append(r.dynamic, stored)
}

// AddHandler constructs an Entry for (id, h) and merges it into an
// existing matching entry (same method+segment-shape, §4.2) or creates a
// new one.
func (r *Registry) AddHandler(id *taskid.TaskID, h *handler.Handler) {
	if existing := r.findByShape(id); existing != nil {
		existing.Handlers = append(existing.Handlers, h)
		return
	}
	r.AddEntry(&Entry{ID: id, Handlers: []*handler.Handler{h}})
}

// findByShape looks for an already-registered entry whose *unforked*
// shape matches id, per §4.2's "existing matching" rule for dynamic-path
// binding: segment shape and method match exactly, not by conversion.
func (r *Registry) findByShape(id *taskid.TaskID) *Entry {
	forked := id.Fork(r.pathPrefix, r.prefixTypes)
	if forked.IsStatic() {
		if e, ok := r.static[forked.StaticKey()]; ok {
			return e
		}
		return nil
	}
	shape := forked.ShapeKey()
	for _, e := range r.dynamic {
		if e.ID.ShapeKey() == shape {
			return e
		}
	}
	return nil
}

// Merge inserts every entry of other into r, forking each by r's path
// prefix, per §4.2. other is left unaffected.
func (r *Registry) Merge(other *Registry) {
	for _, e := range other.static {
		r.AddEntry(e)
	}
	for _, e := range other.dynamic {
		r.AddEntry(e)
	}
}

// Lookup requires task_id to be static; it probes the static table first,
// then scans the dynamic list in insertion order, returning a
// shallow-copied Entry carrying the resolved path parameters (§4.2).
func (r *Registry) Lookup(candidate *taskid.TaskID) (*Entry, error) {
	if !candidate.IsStatic() {
		return nil, apperrors.New(apperrors.KindInternal, "registry: lookup requires a static TaskID")
	}

	if e, ok := r.static[candidate.StaticKey()]; ok {
		return e, nil
	}

	for _, e := range r.dynamic {
		if params, ok := e.ID.Match(candidate); ok {
			return e.shallowCopyWithParams(params), nil
		}
	}

	return nil, apperrors.NotFound("registry: no entry matches " + candidate.StaticKey())
}

// Size reports the total number of entries (static + dynamic), for tests
// and diagnostics.
func (r *Registry) Size() int { return len(r.static) + len(r.dynamic) }
