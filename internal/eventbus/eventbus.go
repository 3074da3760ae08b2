// Package eventbus implements application-facing event emission (spec.md
// §6 "Event emission"): publishing an Event — a Task whose path is a
// dotted name rather than a slash-path — through a pub/sub broker
// channel, grounded on the teacher's db/repository.RedisRepository.Publish.
package eventbus

import (
	"context"

	"github.com/redis/go-redis/v9"

	"taskgrid/internal/envelope"
	"taskgrid/internal/task"
	"taskgrid/internal/taskid"
)

// EventMethod tags an emitted Event's TaskID so it serializes through the
// same "METHOD@path" envelope form pub/sub and queue transports already
// use, without colliding with the HTTP-style method constants.
const EventMethod = taskid.Method("EVENT")

// Bus publishes Events to a single broker channel.
type Bus struct {
	client  *redis.Client
	channel string
}

// New builds a Bus publishing to channel over client.
func New(client *redis.Client, channel string) *Bus {
	return &Bus{client: client, channel: channel}
}

// Emit serializes (name, parameters, metadata) as the Task envelope and
// publishes it (§6 "emit(name, parameters, metadata)").
func (b *Bus) Emit(ctx context.Context, name string, parameters map[string]any, meta task.Metadata) error {
	id := taskid.New(EventMethod, name, taskid.WithSeparator("."))
	t := task.New(id, meta, parameters)

	raw, err := envelope.Marshal(t)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, raw).Err()
}
