package models

import "time"

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// Appointment is owned by the scheduling subsystem; the auto-admit sweep
// reads confirmed appointments for the current admission-day and the
// completion path signals billing for the linked appointment.
type Appointment struct {
	ID        string            `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID string            `gorm:"type:uuid;not null;index" json:"patient_id"`
	Branch    Branch            `gorm:"not null;index:idx_appt_branch_date" json:"branch"`
	Date      string            `gorm:"not null;index:idx_appt_branch_date" json:"date"` // local calendar day, YYYY-MM-DD
	Status    AppointmentStatus `gorm:"not null;index" json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}
