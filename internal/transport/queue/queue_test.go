package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/application"
	"taskgrid/internal/envelope"
	"taskgrid/internal/handler"
	"taskgrid/internal/task"
	"taskgrid/internal/taskcontext"
	"taskgrid/internal/taskid"
)

func TestTransportDispatchesQueuedItem(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	app := application.New()
	reg := app.Registry("queue")
	received := make(chan any, 1)
	h := handler.New("onJob", func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		v, _, _ := tc.Task.Param(ctx, "job")
		received <- v
		return nil, nil
	}, nil)
	reg.AddHandler(taskid.New(taskid.POST, "/jobs"), h)

	id := taskid.New(taskid.POST, "/jobs")
	tk := task.New(id, task.Metadata{}, map[string]any{"job": "render"})
	raw, err := envelope.Marshal(tk)
	require.NoError(t, err)
	require.NoError(t, client.RPush(context.Background(), "work", raw).Err())

	tr := New(client, "work")
	tr.pollInterval = 200 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = tr.Start(ctx, app) }()

	select {
	case got := <-received:
		require.Equal(t, "render", got)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	require.NoError(t, tr.Stop(context.Background()))
}

func TestTransportStopsCleanlyWithNoItems(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	app := application.New()
	app.Registry("queue")

	tr := New(client, "idle")
	tr.pollInterval = 100 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = tr.Start(ctx, app) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, tr.Stop(context.Background()))
}
