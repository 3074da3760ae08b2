package task

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/taskid"
)

func TestLazyValueResolvesOnce(t *testing.T) {
	var calls int32
	lv := NewLazyValue(func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "body-bytes", nil
	})

	v1, err := lv.Get(context.Background())
	require.NoError(t, err)
	v2, err := lv.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "body-bytes", v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTaskParamResolvesLazyTransparently(t *testing.T) {
	id := taskid.New(taskid.POST, "/items")
	lv := NewLazyValue(func(ctx context.Context) (any, error) {
		return map[string]any{"a": 1}, nil
	})
	tk := New(id, Metadata{}, map[string]any{"body": lv})

	v, ok, err := tk.Param(context.Background(), "body")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1}, v)

	_, ok, err = tk.Param(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetadataStateRoundTrip(t *testing.T) {
	var m Metadata
	m.Set("k", "v")
	v, ok := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	cloned := m.Clone()
	cloned.Set("k2", "v2")
	_, ok = m.Get("k2")
	assert.False(t, ok, "clone must not mutate the original")
}

func TestResultDefaults(t *testing.T) {
	r := NewResult(Metadata{TraceID: "t1"})
	assert.Equal(t, StatusOK, r.GetStatus())
	assert.Equal(t, "t1", r.Metadata.TraceID)
}
