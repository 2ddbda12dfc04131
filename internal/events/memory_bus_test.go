package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
)

func TestMemoryBusFanOut(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var got1, got2 []QueueEvent
	bus.Subscribe(func(ev QueueEvent) { got1 = append(got1, ev) })
	bus.Subscribe(func(ev QueueEvent) { got2 = append(got2, ev) })

	bus.Publish(QueueEvent{
		Type:      EventEntryCreated,
		Entry:     models.QueueEntry{ID: "e1"},
		Timestamp: time.Now(),
	})

	assert.Len(t, got1, 1)
	assert.Len(t, got2, 1)
	assert.Equal(t, "e1", got1[0].Entry.ID)
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var got []QueueEvent
	unsubscribe := bus.Subscribe(func(ev QueueEvent) { got = append(got, ev) })

	bus.Publish(QueueEvent{Type: EventEntryCreated})
	unsubscribe()
	bus.Publish(QueueEvent{Type: EventStatusChanged})

	assert.Len(t, got, 1)
	assert.Equal(t, EventEntryCreated, got[0].Type)
}

func TestMemoryBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	assert.NotPanics(t, func() {
		bus.Publish(QueueEvent{Type: EventEntryDeleted})
	})
}
