package models

import "time"

type NotificationCategory string

const (
	CategoryAppointment NotificationCategory = "appointment"
	CategoryPayment     NotificationCategory = "payment"
	CategoryQueue       NotificationCategory = "queue"
	CategoryRecord      NotificationCategory = "record"
)

type NotificationType string

const (
	NotifQueueJoined      NotificationType = "queue_joined"
	NotifQueueYourTurn    NotificationType = "queue_your_turn"
	NotifQueueCompleted   NotificationType = "queue_completed"
	NotifQueueCancelled   NotificationType = "queue_cancelled"
	NotifPatientArrived   NotificationType = "patient_arrived"
	NotifApptNew          NotificationType = "appointment_new"
	NotifApptCancelled    NotificationType = "appointment_cancelled"
	NotifPaymentConfirmed NotificationType = "payment_confirmed"
	NotifRecordUpdated    NotificationType = "record_updated"
)

type NotificationPriority string

const (
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is the routed object handed to the delivery sink after it has
// passed the recipient's role allow-list.
type Notification struct {
	ID          string               `json:"id"`
	RecipientID string               `json:"recipient_id"`
	Category    NotificationCategory `json:"category"`
	Type        NotificationType     `json:"type"`
	Priority    NotificationPriority `json:"priority"`
	Message     string               `json:"message"`
	Metadata    map[string]string    `json:"metadata,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}
