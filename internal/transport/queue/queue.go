// Package queue implements the blocking-pop queue transport adapter
// (spec.md §6), grounded on the teacher's queue/redis.Queue.Dequeue
// (BLPop with a bounded timeout, re-issued in a loop).
package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"taskgrid/internal/application"
	"taskgrid/internal/envelope"
	"taskgrid/internal/logging"
	"taskgrid/internal/task"
)

// DefaultPollInterval bounds each BLPop call so the dispatch loop can
// still observe ctx cancellation promptly between items.
const DefaultPollInterval = 5 * time.Second

// Transport pops one item at a time from a named queue and dispatches it
// as a Task. On a handler error the item has already left the queue and
// is not pushed back; this adapter does not implement an
// ack/visibility-timeout protocol.
type Transport struct {
	client       *redis.Client
	queueName    string
	pollInterval time.Duration
	logger       *logging.Logger

	stop chan struct{}
	done chan struct{}
}

// New builds a Transport popping from queueName.
func New(client *redis.Client, queueName string) *Transport {
	return &Transport{
		client:       client,
		queueName:    queueName,
		pollInterval: DefaultPollInterval,
		logger:       logging.NewComponentLogger("QueueTransport"),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Name identifies this transport in the Application's registry map.
func (t *Transport) Name() string { return "queue" }

// Start loops pop-then-dispatch until ctx is cancelled or Stop is called.
func (t *Transport) Start(ctx context.Context, app *application.Application) error {
	defer close(t.done)
	t.logger.Info("polling queue %q", t.queueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.stop:
			return nil
		default:
		}

		result, err := t.client.BLPop(ctx, t.pollInterval, t.queueName).Result()
		switch {
		case err == redis.Nil:
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			t.logger.Error("queue: pop failed: %v", err)
			continue
		case len(result) < 2:
			continue
		}

		t.dispatch(ctx, app, result[1])
	}
}

func (t *Transport) dispatch(ctx context.Context, app *application.Application, payload string) {
	tk, err := envelope.Unmarshal([]byte(payload))
	if err != nil {
		t.logger.Error("queue: malformed envelope: %v", err)
		return
	}

	result := task.NewResult(tk.Metadata)
	if err := app.HandleTask(ctx, t.Name(), tk, result); err != nil {
		t.logger.Error("queue: task %s failed: %v", tk.ID.DumpToStr(), err)
	}
}

// Stop signals the poll loop to exit and waits for it to finish.
func (t *Transport) Stop(ctx context.Context) error {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	select {
	case <-t.done:
	case <-ctx.Done():
	}
	return nil
}
