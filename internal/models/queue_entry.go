package models

import "time"

// Branch is a physical clinic location. Queue numbering and serving sets are
// partitioned per branch.
type Branch string

const (
	BranchCabugao Branch = "cabugao"
	BranchSanJuan Branch = "san_juan"
)

func (b Branch) Valid() bool {
	return b == BranchCabugao || b == BranchSanJuan
}

type EntryStatus string

const (
	StatusWaiting   EntryStatus = "waiting"
	StatusServing   EntryStatus = "serving"
	StatusCompleted EntryStatus = "completed"
	StatusCancelled EntryStatus = "cancelled"
)

// transitions lists the legal status moves. Entries never move backward;
// anything not in this table is rejected.
var transitions = map[EntryStatus][]EntryStatus{
	StatusWaiting: {StatusServing, StatusCancelled},
	StatusServing: {StatusCompleted, StatusCancelled},
}

func ValidTransition(from, to EntryStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// QueueEntry is one admission record in the ledger.
//
// Two store-enforced constraints carry the coordination guarantees:
// (branch, admission_day, queue_number) is unique, and a partial unique index
// on (patient_id, admission_day) over active statuses keeps a patient from
// holding two live entries on the same day. See postgres.Migrate.
type QueueEntry struct {
	ID            string      `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID     string      `gorm:"type:uuid;not null;index:idx_patient_day" json:"patient_id"`
	AppointmentID *string     `gorm:"type:uuid" json:"appointment_id,omitempty"`
	Branch        Branch      `gorm:"not null;uniqueIndex:idx_branch_day_number,priority:1" json:"branch"`
	AdmissionDay  string      `gorm:"not null;uniqueIndex:idx_branch_day_number,priority:2;index:idx_patient_day" json:"admission_day"`
	QueueNumber   int         `gorm:"not null;uniqueIndex:idx_branch_day_number,priority:3" json:"queue_number"`
	Status        EntryStatus `gorm:"not null;index" json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}

// Active reports whether the entry still occupies the patient's single
// admission slot for the day.
func (e *QueueEntry) Active() bool {
	return e.Status == StatusWaiting || e.Status == StatusServing
}

func (e *QueueEntry) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusCancelled
}

// WaitingDuration is the display value "how long has this patient been here".
func (e *QueueEntry) WaitingDuration(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
