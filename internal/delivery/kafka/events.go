package kafka

import (
	"time"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
)

const (
	TopicQueueAdmitted      = "queue.admitted"
	TopicQueueStatusChanged = "queue.status_changed"
	TopicBillingReady       = "appointment.billing_ready"
	TopicNotification       = "notification.dispatch"
)

// Events published by the queue coordination service.

type QueueAdmittedEvent struct {
	EntryID       string        `json:"entry_id"`
	PatientID     string        `json:"patient_id"`
	AppointmentID *string       `json:"appointment_id,omitempty"`
	Branch        models.Branch `json:"branch"`
	AdmissionDay  string        `json:"admission_day"`
	QueueNumber   int           `json:"queue_number"`
	AdmittedAt    time.Time     `json:"admitted_at"`
	Timestamp     time.Time     `json:"timestamp"`
}

type QueueStatusChangedEvent struct {
	EntryID      string             `json:"entry_id"`
	PatientID    string             `json:"patient_id"`
	Branch       models.Branch      `json:"branch"`
	AdmissionDay string             `json:"admission_day"`
	QueueNumber  int                `json:"queue_number"`
	From         models.EntryStatus `json:"from"`
	To           models.EntryStatus `json:"to"`
	Timestamp    time.Time          `json:"timestamp"`
}

// BillingReadyEvent signals the billing collaborator that a served
// appointment is eligible for downstream invoicing.
type BillingReadyEvent struct {
	AppointmentID string        `json:"appointment_id"`
	PatientID     string        `json:"patient_id"`
	EntryID       string        `json:"entry_id"`
	Branch        models.Branch `json:"branch"`
	CompletedAt   time.Time     `json:"completed_at"`
	Timestamp     time.Time     `json:"timestamp"`
}
