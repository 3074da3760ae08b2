// Package pubsub implements the pub/sub transport adapter (spec.md §6),
// grounded on the teacher's db/repository.RedisRepository.Subscribe
// pattern: Subscribe, confirm with Receive, then drain the *redis.PubSub
// channel.
package pubsub

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"taskgrid/internal/application"
	"taskgrid/internal/envelope"
	"taskgrid/internal/logging"
	"taskgrid/internal/task"
)

// Transport subscribes to one or more broker channels and dispatches each
// message as a Task. Per §5's backpressure rule, a pub/sub subscription
// processes one incoming message at a time — no pipelining.
type Transport struct {
	client        *redis.Client
	channels      []string
	discardResult bool
	logger        *logging.Logger

	ps *redis.PubSub
	wg sync.WaitGroup
}

// Option configures a Transport at construction.
type Option func(*Transport)

// WithDiscardResult overrides the default fire-and-forget behavior (§6
// "discard the result body... unless configured otherwise"): when false,
// a non-empty result body is logged instead of silently dropped, since
// pub/sub has no reply channel to return it over.
func WithDiscardResult(discard bool) Option {
	return func(t *Transport) { t.discardResult = discard }
}

// New builds a pub/sub Transport over client, subscribing to channels.
func New(client *redis.Client, channels []string, opts ...Option) *Transport {
	t := &Transport{
		client:        client,
		channels:      channels,
		discardResult: true,
		logger:        logging.NewComponentLogger("PubSubTransport"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name identifies this transport in the Application's registry map.
func (t *Transport) Name() string { return "pubsub" }

// Start subscribes and blocks, dispatching one message at a time until ctx
// is cancelled or the subscription is closed by Stop.
func (t *Transport) Start(ctx context.Context, app *application.Application) error {
	t.ps = t.client.Subscribe(ctx, t.channels...)
	if _, err := t.ps.Receive(ctx); err != nil {
		return err
	}
	t.logger.Info("subscribed to %v", t.channels)

	t.wg.Add(1)
	defer t.wg.Done()

	ch := t.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			t.dispatch(ctx, app, msg)
		}
	}
}

func (t *Transport) dispatch(ctx context.Context, app *application.Application, msg *redis.Message) {
	tk, err := envelope.Unmarshal([]byte(msg.Payload))
	if err != nil {
		t.logger.Error("pubsub: malformed envelope on %s: %v", msg.Channel, err)
		return
	}

	result := task.NewResult(tk.Metadata)
	if err := app.HandleTask(ctx, t.Name(), tk, result); err != nil {
		t.logger.Error("pubsub: task %s failed: %v", tk.ID.DumpToStr(), err)
	}

	if !t.discardResult {
		if raw, err := result.GetBody().Bytes("utf-8"); err == nil && len(raw) > 0 {
			t.logger.Info("pubsub: task %s result: %s", tk.ID.DumpToStr(), raw)
		}
	}
}

// Stop closes the subscription and waits for the dispatch loop to exit.
func (t *Transport) Stop(ctx context.Context) error {
	if t.ps == nil {
		return nil
	}
	err := t.ps.Close()
	t.wg.Wait()
	return err
}
