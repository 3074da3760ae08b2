package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/body"
	"taskgrid/internal/convert"
	"taskgrid/internal/logging"
	"taskgrid/internal/task"
	"taskgrid/internal/taskcontext"
	"taskgrid/internal/taskid"
)

func newTC(t *testing.T, method taskid.Method, path string, params map[string]any) *taskcontext.Context {
	id := taskid.New(method, path)
	tk := task.New(id, task.Metadata{TraceID: "t1"}, params)
	res := task.NewResult(tk.Metadata)
	return taskcontext.New(tk, res, logging.NewComponentLogger("TEST"))
}

func TestExecuteInjectsTaskAndNamedParams(t *testing.T) {
	tc := newTC(t, taskid.POST, "/items/7", map[string]any{"body": map[string]any{"a": float64(1)}})

	var gotTask any
	var gotID, gotBody any
	h := New("CreateItem", func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		gotTask = args[0]
		gotID = args[1]
		gotBody = args[2]
		return gotBody, nil
	}, []Spec{Task(), Param("id", convert.Int{}), Param("body", convert.Any{})})

	b, err := h.Execute(context.Background(), tc, map[string]any{"id": 7})
	require.NoError(t, err)

	assert.Same(t, tc.Task, gotTask)
	assert.Equal(t, 7, gotID)
	assert.Equal(t, map[string]any{"a": float64(1)}, gotBody)
	assert.Equal(t, body.Json{Value: map[string]any{"a": float64(1)}}, b)
}

func TestExecuteMissingParamFails(t *testing.T) {
	tc := newTC(t, taskid.GET, "/items", nil)
	h := New("Get", func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		return nil, nil
	}, []Spec{Param("id", convert.Int{})})

	_, err := h.Execute(context.Background(), tc, nil)
	require.Error(t, err)
	fe := apperrors.AsFrameworkError(err)
	assert.Equal(t, apperrors.KindParamRequired, fe.Kind)
}

func TestExecuteInvalidParamConversion(t *testing.T) {
	tc := newTC(t, taskid.GET, "/items", nil)
	h := New("Get", func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		return nil, nil
	}, []Spec{Param("id", convert.Int{})})

	_, err := h.Execute(context.Background(), tc, map[string]any{"id": "abc"})
	require.Error(t, err)
	fe := apperrors.AsFrameworkError(err)
	assert.Equal(t, apperrors.KindParamsInvalid, fe.Kind)
}

func TestExecuteNilReturnIsEmptyBody(t *testing.T) {
	tc := newTC(t, taskid.GET, "/items", nil)
	h := New("Get", func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		return nil, nil
	}, nil)

	b, err := h.Execute(context.Background(), tc, nil)
	require.NoError(t, err)
	assert.Equal(t, body.Empty{}, b)
}

func TestExecuteWithManagerPrependsInstance(t *testing.T) {
	tc := newTC(t, taskid.GET, "/items", nil)
	type manager struct{ name string }

	var gotManager *manager
	h := New("List", func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		gotManager = args[0].(*manager)
		return nil, nil
	}, nil, WithManager(func(tc *taskcontext.Context) any {
		return &manager{name: "items"}
	}))

	_, err := h.Execute(context.Background(), tc, nil)
	require.NoError(t, err)
	require.NotNil(t, gotManager)
	assert.Equal(t, "items", gotManager.name)
}
