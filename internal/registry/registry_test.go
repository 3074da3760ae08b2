package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/convert"
	"taskgrid/internal/handler"
	"taskgrid/internal/taskcontext"
	"taskgrid/internal/taskid"
)

func noopHandlerWithTC(name string) *handler.Handler {
	return handler.New(name, func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		return nil, nil
	}, nil)
}

func TestLookupStaticEntry(t *testing.T) {
	r := New("", nil)
	id := taskid.New(taskid.GET, "/users")
	r.AddEntry(&Entry{ID: id, Handlers: []*handler.Handler{}})

	found, err := r.Lookup(taskid.New(taskid.GET, "/users"))
	require.NoError(t, err)
	assert.True(t, found.ID.Equal(id))
}

func TestLookupDynamicEntryWithIntConverter(t *testing.T) {
	r := New("", nil)
	id := taskid.New(taskid.GET, "/users/{id}", taskid.WithTypes(map[string]convert.Converter{"id": convert.Int{}}))
	r.AddEntry(&Entry{ID: id, Handlers: []*handler.Handler{}})

	found, err := r.Lookup(taskid.New(taskid.GET, "/users/42"))
	require.NoError(t, err)
	assert.Equal(t, 42, found.PathParams["id"])
}

func TestLookupMissReturnsNotFound(t *testing.T) {
	r := New("", nil)
	r.AddEntry(&Entry{ID: taskid.New(taskid.GET, "/users"), Handlers: []*handler.Handler{}})

	_, err := r.Lookup(taskid.New(taskid.GET, "/orders"))
	require.Error(t, err)
	fe := apperrors.AsFrameworkError(err)
	assert.Equal(t, apperrors.KindNotFound, fe.Kind)
}

func TestLookupRejectsNonStaticCandidate(t *testing.T) {
	r := New("", nil)
	_, err := r.Lookup(taskid.New(taskid.GET, "/users/{id}"))
	require.Error(t, err)
	fe := apperrors.AsFrameworkError(err)
	assert.Equal(t, apperrors.KindInternal, fe.Kind)
}

func TestMergeForksByPrefix(t *testing.T) {
	sub := New("", nil)
	sub.AddEntry(&Entry{ID: taskid.New(taskid.GET, "/ping"), Handlers: []*handler.Handler{}})

	root := New("", nil)
	prefixed := New("/v1", nil)
	prefixed.Merge(sub)
	root.Merge(prefixed)

	found, err := root.Lookup(taskid.New(taskid.GET, "/v1/ping"))
	require.NoError(t, err)
	assert.Equal(t, "GET /v1/ping", found.ID.StaticKey())
}

func TestAddHandlerMergesIntoExistingShape(t *testing.T) {
	r := New("", nil)
	id := taskid.New(taskid.GET, "/items/{id}", taskid.WithTypes(map[string]convert.Converter{"id": convert.Int{}}))

	r.AddHandler(id, noopHandlerWithTC("first"))
	r.AddHandler(id, noopHandlerWithTC("second"))

	assert.Equal(t, 1, r.Size())
	found, err := r.Lookup(taskid.New(taskid.GET, "/items/5"))
	require.NoError(t, err)
	require.Len(t, found.Handlers, 2)
}

func TestAddHandlerDistinctShapesDoNotMerge(t *testing.T) {
	r := New("", nil)
	getID := taskid.New(taskid.GET, "/items/{id}")
	postID := taskid.New(taskid.POST, "/items/{id}")

	r.AddHandler(getID, noopHandlerWithTC("get"))
	r.AddHandler(postID, noopHandlerWithTC("post"))

	assert.Equal(t, 2, r.Size())
}
