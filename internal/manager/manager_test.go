package manager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/logging"
	"taskgrid/internal/task"
	"taskgrid/internal/taskcontext"
	"taskgrid/internal/taskid"
)

type memStore struct {
	items map[string]any
}

func newMemStore() *memStore { return &memStore{items: map[string]any{"1": map[string]any{"name": "widget"}}} }

func (s *memStore) Get(ctx context.Context, id string) (any, error) { return s.items[id], nil }

func (s *memStore) List(ctx context.Context) ([]any, error) {
	out := make([]any, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out, nil
}

func (s *memStore) PutField(ctx context.Context, id, field string, value any) error {
	item, ok := s.items[id].(map[string]any)
	if !ok {
		return apperrors.NotFound("no such item")
	}
	item[field] = value
	return nil
}

func newTC(method taskid.Method, path string, params map[string]any) *taskcontext.Context {
	id := taskid.New(method, path)
	tk := task.New(id, task.Metadata{}, params)
	res := task.NewResult(tk.Metadata)
	return taskcontext.New(tk, res, logging.NewComponentLogger("TEST"))
}

func TestPresetGetFetchesByID(t *testing.T) {
	store := newMemStore()
	m := New("items", "/items")
	m.PresetGet("/{id}", store)

	entry, err := m.Registry.Lookup(taskid.New(taskid.GET, "/items/1"))
	require.NoError(t, err)

	b, err := entry.Handlers[0].Execute(context.Background(), newTC(taskid.GET, "/items/1", nil), entry.PathParams)
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestPresetGetMissingReturnsNotFound(t *testing.T) {
	store := newMemStore()
	m := New("items", "/items")
	m.PresetGet("/{id}", store)

	entry, err := m.Registry.Lookup(taskid.New(taskid.GET, "/items/missing"))
	require.NoError(t, err)

	_, err = entry.Handlers[0].Execute(context.Background(), newTC(taskid.GET, "/items/missing", nil), entry.PathParams)
	require.Error(t, err)
	fe := apperrors.AsFrameworkError(err)
	assert.Equal(t, apperrors.KindNotFound, fe.Kind)
}

func TestPresetPutFieldUpdatesStore(t *testing.T) {
	store := newMemStore()
	m := New("items", "/items")
	m.PresetPutField("/{id}", "name", store)

	entry, err := m.Registry.Lookup(taskid.New(taskid.PUT, "/items/1"))
	require.NoError(t, err)

	tc := newTC(taskid.PUT, "/items/1", map[string]any{"name": "gadget"})
	_, err = entry.Handlers[0].Execute(context.Background(), tc, entry.PathParams)
	require.NoError(t, err)

	item := store.items["1"].(map[string]any)
	assert.Equal(t, "gadget", item["name"])
}

func TestManagerInstanceIsPrependedToArgs(t *testing.T) {
	m := New("widgets", "")
	var gotManager *Manager
	m.Handle(taskid.GET, "/self", func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		gotManager = args[0].(*Manager)
		return nil, nil
	}, nil)

	entry, err := m.Registry.Lookup(taskid.New(taskid.GET, "/self"))
	require.NoError(t, err)
	_, err = entry.Handlers[0].Execute(context.Background(), newTC(taskid.GET, "/self", nil), entry.PathParams)
	require.NoError(t, err)
	assert.Same(t, m, gotManager)
}
