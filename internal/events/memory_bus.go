package events

import "sync"

// memoryBus is a single-process Bus. It backs tests and deployments that run
// one service instance without Redis.
type memoryBus struct {
	mu       sync.RWMutex
	handlers map[int]func(QueueEvent)
	nextID   int
}

func NewMemoryBus() Bus {
	return &memoryBus{handlers: make(map[int]func(QueueEvent))}
}

func (b *memoryBus) Publish(event QueueEvent) {
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

func (b *memoryBus) Subscribe(handler func(QueueEvent)) func() {
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

func (b *memoryBus) Close() error {
	return nil
}
