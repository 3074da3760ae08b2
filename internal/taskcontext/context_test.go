package taskcontext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/logging"
	"taskgrid/internal/session"
	"taskgrid/internal/task"
	"taskgrid/internal/taskid"
)

func newBaseContext() *Context {
	id := taskid.New(taskid.GET, "/ping")
	tk := task.New(id, task.Metadata{TraceID: "trace-1"}, nil)
	res := task.NewResult(tk.Metadata)
	logger := logging.NewComponentLogger("TEST")
	return New(tk, res, logger)
}

func TestSessionResolvedLazilyOnce(t *testing.T) {
	tc := newBaseContext()
	calls := 0
	tc.WithSessionResolver(func(ctx context.Context) (*session.Session, error) {
		calls++
		pool, err := session.NewPool(session.PoolConfig{Max: 10, RemoveBatchSize: 2})
		require.NoError(t, err)
		return pool.Upsert(ctx, "s1", func(ctx context.Context) (map[string]session.Field, error) {
			return map[string]session.Field{}, nil
		})
	})

	_, ok1 := tc.Session(context.Background())
	_, ok2 := tc.Session(context.Background())
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, 1, calls, "resolver should only run once")
}

func TestSessionResolverErrorSurfaced(t *testing.T) {
	tc := newBaseContext()
	wantErr := errors.New("boom")
	tc.WithSessionResolver(func(ctx context.Context) (*session.Session, error) {
		return nil, wantErr
	})

	_, ok := tc.Session(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, tc.SessionErr(), wantErr)
}

func TestIntoFromRoundTrip(t *testing.T) {
	tc := newBaseContext()
	ctx := Into(context.Background(), tc)
	got, ok := From(ctx)
	require.True(t, ok)
	assert.Same(t, tc, got)
}

func TestBindHandlerDoesNotMutateParent(t *testing.T) {
	tc := newBaseContext()
	child := tc.BindHandler("Users", "Get")
	assert.NotSame(t, tc.Logger, child.Logger)
}
