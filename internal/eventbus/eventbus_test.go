package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/envelope"
	"taskgrid/internal/task"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps := client.Subscribe(ctx, "events")
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	bus := New(client, "events")
	require.NoError(t, bus.Emit(ctx, "user.created", map[string]any{"id": 1}, task.Metadata{TraceID: "t1"}))

	select {
	case msg := <-ps.Channel():
		tk, err := envelope.Unmarshal([]byte(msg.Payload))
		require.NoError(t, err)
		assert.Equal(t, "EVENT@user.created", tk.ID.DumpToStr())
		assert.Equal(t, "t1", tk.Metadata.TraceID)
		assert.Equal(t, float64(1), tk.Parameters["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
