package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/events"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	repo "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/repository/postgres"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/util"
)

// Sink is the fire-and-forget delivery target for routed notifications.
// Delivery failures never propagate to the mutation path.
type Sink interface {
	Send(ctx context.Context, n models.Notification) error
}

// Router turns ledger mutations into role-filtered notifications. It sits in
// the mutation path of the process that committed the change, never behind
// the relayed event bus: a mutation passes through HandleEvent exactly once
// cluster-wide, so per-transition alerts like "your turn" fire exactly once
// per serving session regardless of how many service processes run.
type Router struct {
	users repo.UserRepository
	sink  Sink
	l     logger.Logger
}

func NewRouter(users repo.UserRepository, sink Sink, l logger.Logger) *Router {
	return &Router{users: users, sink: sink, l: l}
}

func (r *Router) HandleEvent(ctx context.Context, ev events.QueueEvent) {
	entry := ev.Entry

	switch ev.Type {
	case events.EventEntryCreated:
		r.notify(ctx, entry.PatientID, models.Notification{
			Category: models.CategoryQueue,
			Type:     models.NotifQueueJoined,
			Priority: models.PriorityNormal,
			Message:  fmt.Sprintf("You are number %d in the %s queue.", entry.QueueNumber, entry.Branch),
			Metadata: entryMetadata(entry),
		})
		r.notifyRole(ctx, models.RoleDoctor, models.Notification{
			Category: models.CategoryQueue,
			Type:     models.NotifPatientArrived,
			Priority: models.PriorityNormal,
			Message:  fmt.Sprintf("A patient joined the %s queue (number %d).", entry.Branch, entry.QueueNumber),
			Metadata: entryMetadata(entry),
		})
		r.notifyRole(ctx, models.RoleAdmin, models.Notification{
			Category: models.CategoryQueue,
			Type:     models.NotifQueueJoined,
			Priority: models.PriorityNormal,
			Message:  fmt.Sprintf("Queue entry %d created for branch %s.", entry.QueueNumber, entry.Branch),
			Metadata: entryMetadata(entry),
		})

	case events.EventStatusChanged:
		switch entry.Status {
		case models.StatusServing:
			r.notify(ctx, entry.PatientID, models.Notification{
				Category: models.CategoryQueue,
				Type:     models.NotifQueueYourTurn,
				Priority: models.PriorityHigh,
				Message:  "It is now your turn. Please proceed to the treatment room.",
				Metadata: entryMetadata(entry),
			})
		case models.StatusCompleted:
			r.notify(ctx, entry.PatientID, models.Notification{
				Category: models.CategoryQueue,
				Type:     models.NotifQueueCompleted,
				Priority: models.PriorityNormal,
				Message:  "Your visit is complete. Thank you!",
				Metadata: entryMetadata(entry),
			})
		case models.StatusCancelled:
			r.notify(ctx, entry.PatientID, models.Notification{
				Category: models.CategoryQueue,
				Type:     models.NotifQueueCancelled,
				Priority: models.PriorityNormal,
				Message:  "Your queue entry was cancelled.",
				Metadata: entryMetadata(entry),
			})
			if entry.AppointmentID != nil {
				r.notifyRole(ctx, models.RoleStaff, models.Notification{
					Category: models.CategoryAppointment,
					Type:     models.NotifApptCancelled,
					Priority: models.PriorityNormal,
					Message:  fmt.Sprintf("An admitted appointment was cancelled at %s.", entry.Branch),
					Metadata: entryMetadata(entry),
				})
			}
		}

	case events.EventEntryDeleted:
		// Reconciler cleanup; nothing user-facing.
	}
}

// notify routes a notification to a single recipient, applying the role
// allow-list before delivery.
func (r *Router) notify(ctx context.Context, recipientID string, n models.Notification) {
	role, err := r.users.GetRole(ctx, recipientID)
	if err != nil {
		r.l.Warn("Dropping notification for unknown recipient",
			"recipient_id", recipientID,
			"type", n.Type,
			"error", err,
		)
		return
	}

	if !Allowed(role, n.Category, n.Type) {
		r.l.Debug("Notification suppressed by role filter",
			"recipient_id", recipientID,
			"role", role,
			"category", n.Category,
			"type", n.Type,
		)
		return
	}

	n.ID = uuid.NewString()
	n.RecipientID = recipientID
	n.CreatedAt = time.Now()

	if err := r.sink.Send(ctx, n); err != nil {
		// Best-effort: log and drop, never block the mutation.
		r.l.Error("Failed to deliver notification",
			"recipient_id", recipientID,
			"type", n.Type,
			"error", err,
		)
	}
}

func (r *Router) notifyRole(ctx context.Context, role models.Role, n models.Notification) {
	ids, err := r.users.ListIDsByRole(ctx, role)
	if err != nil {
		r.l.Error("Failed to list notification recipients", "role", role, "error", err)
		return
	}

	for _, id := range ids {
		r.notify(ctx, id, n)
	}
}

func entryMetadata(entry models.QueueEntry) map[string]string {
	md := map[string]string{
		"entry_id":     entry.ID,
		"branch":       string(entry.Branch),
		"queue_number": fmt.Sprintf("%d", entry.QueueNumber),
		"day":          entry.AdmissionDay,
		"created_at":   util.FormatDateTime(entry.CreatedAt),
	}
	if entry.AppointmentID != nil {
		md["appointment_id"] = *entry.AppointmentID
	}
	return md
}
