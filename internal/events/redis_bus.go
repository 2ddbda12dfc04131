package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

const mutationChannel = "clinicqueue:mutations"

// redisBus relays queue events through Redis pub/sub so that every service
// process sees mutations committed by its peers. The local dispatch path runs
// off the subscription loop: our own publishes come back through Redis like
// everyone else's, which keeps ordering identical across processes.
type redisBus struct {
	cli *redis.Client
	l   logger.Logger

	mu       sync.RWMutex
	handlers map[int]func(QueueEvent)
	nextID   int

	pubsub *redis.PubSub
	done   chan struct{}
}

func NewRedisBus(ctx context.Context, cli *redis.Client, l logger.Logger) Bus {
	b := &redisBus{
		cli:      cli,
		l:        l,
		handlers: make(map[int]func(QueueEvent)),
		done:     make(chan struct{}),
	}

	b.pubsub = cli.Subscribe(ctx, mutationChannel)
	go b.receiveLoop()

	return b
}

func (b *redisBus) Publish(event QueueEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		b.l.Error("Failed to marshal queue event", "error", err)
		return
	}

	if err := b.cli.Publish(context.Background(), mutationChannel, data).Err(); err != nil {
		// Redis is down: peers will miss this tick, but local viewers still
		// get their recompute.
		b.l.Error("Failed to publish queue event, dispatching locally only",
			"type", event.Type,
			"entry_id", event.Entry.ID,
			"error", err,
		)
		b.dispatch(event)
	}
}

func (b *redisBus) Subscribe(handler func(QueueEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

func (b *redisBus) Close() error {
	close(b.done)
	return b.pubsub.Close()
}

func (b *redisBus) receiveLoop() {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-b.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event QueueEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.l.Warn("Dropping malformed queue event", "error", err)
				continue
			}

			b.dispatch(event)
		}
	}
}

func (b *redisBus) dispatch(event QueueEvent) {
	b.mu.RLock()
	handlers := make([]func(QueueEvent), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
