package service

import (
	"context"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/events"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
)

// Notifier receives mutations committed by this process, in the mutation path
// itself. Unlike bus subscribers it never hears peer processes' relayed
// events, so each routed notification is emitted exactly once cluster-wide no
// matter how many service processes share the event channel.
type Notifier interface {
	HandleEvent(ctx context.Context, event events.QueueEvent)
}

type AdmitInput struct {
	PatientID     string        `json:"patient_id"`
	AppointmentID *string       `json:"appointment_id,omitempty"`
	Branch        models.Branch `json:"branch"`
}

const ReasonAlreadyInQueue = "already_in_queue"

// AdmitResult is the outcome of an admission attempt. A redundant call is not
// an error: Admitted is false, Reason explains why, and Entry carries the
// entry that already holds the patient's slot.
type AdmitResult struct {
	Admitted bool               `json:"admitted"`
	Reason   string             `json:"reason,omitempty"`
	Entry    *models.QueueEntry `json:"entry"`
}

// Viewer identifies a connected observer of the queue: who they are and what
// they are allowed to see.
type Viewer struct {
	ID   string
	Role models.Role
}
