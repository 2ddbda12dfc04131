package events

import (
	"time"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
)

type EventType string

const (
	EventEntryCreated  EventType = "entry_created"
	EventStatusChanged EventType = "status_changed"
	EventEntryDeleted  EventType = "entry_deleted"
)

// QueueEvent describes one ledger mutation. It is published after the
// mutation has committed and fans out to every connected viewer; subscribers
// recompute their view from the ledger rather than patching state from the
// event payload.
type QueueEvent struct {
	Type      EventType          `json:"type"`
	Entry     models.QueueEntry  `json:"entry"`
	Previous  models.EntryStatus `json:"previous_status,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Bus distributes queue events to subscribers. Implementations must never
// let a publish failure propagate into the mutation path; delivery is
// best-effort.
//
// Subscribers hear mutations from every process sharing the channel, so they
// must be idempotent recompute-style consumers (the snapshot hub). Anything
// that must act exactly once cluster-wide, like notification routing, is
// invoked directly by the mutation path instead of subscribing here.
type Bus interface {
	Publish(event QueueEvent)
	Subscribe(handler func(QueueEvent)) (unsubscribe func())
	Close() error
}
