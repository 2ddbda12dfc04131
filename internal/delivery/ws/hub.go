package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/events"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/service"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

// Snapshotter recomputes one viewer's filtered queue view from the ledger.
// Satisfied by service.QueueService.
type Snapshotter interface {
	Snapshot(ctx context.Context, viewer service.Viewer, branch models.Branch) (*models.QueueSnapshot, error)
}

type MessageType string

const (
	MessageSnapshot MessageType = "snapshot"
	MessageYourTurn MessageType = "your_turn"
)

type Message struct {
	Type     MessageType           `json:"type"`
	Snapshot *models.QueueSnapshot `json:"snapshot,omitempty"`
	Entry    *models.EntryView     `json:"entry,omitempty"`
}

// Hub tracks connected viewers and pushes a freshly recomputed snapshot to
// each of them on every ledger mutation. Per-viewer subscription state lives
// only on the connection; nothing here is persisted or shared across viewers.
type Hub struct {
	snapshots Snapshotter
	l         logger.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	ticks      chan events.QueueEvent

	// done is closed when Run returns; connection goroutines select on it so
	// a disconnect racing the shutdown never blocks on unregister.
	done chan struct{}
}

func NewHub(snapshots Snapshotter, bus events.Bus, l logger.Logger) *Hub {
	h := &Hub{
		snapshots:  snapshots,
		l:          l,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ticks:      make(chan events.QueueEvent, 64),
		done:       make(chan struct{}),
	}

	bus.Subscribe(func(ev events.QueueEvent) {
		select {
		case h.ticks <- ev:
		default:
			// A dropped tick only delays the recompute until the next
			// mutation; viewers rebuild from the ledger every time anyway.
			l.Warn("Propagation tick dropped, hub backlogged")
		}
	})

	return h
}

// Run owns the client set. It must run in its own goroutine for the lifetime
// of the server.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			close(h.done)
			return
		case client := <-h.register:
			h.clients[client] = true
			h.push(ctx, client)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case <-h.ticks:
			for client := range h.clients {
				h.push(ctx, client)
			}
		}
	}
}

// push recomputes the client's snapshot and queues it for delivery, raising
// the one-shot your-turn alert when the client's own entry has entered
// serving since the last push.
func (h *Hub) push(ctx context.Context, client *Client) {
	snapshot, err := h.snapshots.Snapshot(ctx, client.viewer, client.branch)
	if err != nil {
		h.l.Error("Failed to compute snapshot for viewer",
			"viewer_id", client.viewer.ID,
			"error", err,
		)
		return
	}

	h.send(client, Message{Type: MessageSnapshot, Snapshot: snapshot})

	self := snapshot.YourStatus
	if self != nil && self.Status == models.StatusServing {
		if client.notifiedServingID != self.EntryID {
			client.notifiedServingID = self.EntryID
			h.send(client, Message{Type: MessageYourTurn, Entry: self})
		}
	} else {
		// Once the serving session ends the alert re-arms; a re-entry into
		// serving is a new session and deserves a new alert.
		client.notifiedServingID = ""
	}
}

func (h *Hub) send(client *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.l.Error("Failed to marshal ws message", "error", err)
		return
	}

	select {
	case client.send <- data:
	default:
		// Slow consumer: drop the connection rather than block the hub.
		close(client.send)
		delete(h.clients, client)
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)
