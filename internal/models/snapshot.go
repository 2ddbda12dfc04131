package models

import "time"

// EntryView is one queue entry as a particular viewer sees it. PatientName is
// already masked or full depending on the viewer.
type EntryView struct {
	EntryID              string      `json:"entry_id"`
	PatientName          string      `json:"patient_name"`
	Branch               Branch      `json:"branch"`
	QueueNumber          int         `json:"queue_number"`
	Status               EntryStatus `json:"status"`
	PatientsAhead        int         `json:"patients_ahead"`
	EstimatedWaitMinutes int         `json:"estimated_wait_minutes"`
	WaitingSeconds       int64       `json:"waiting_seconds"`
	IsSelf               bool        `json:"is_self"`
}

// QueueSnapshot is the recomputed slice pushed to one subscriber: the serving
// set and waiting list restricted to the viewer's branch filter, plus the
// viewer's own entry when they are a patient currently in the queue.
type QueueSnapshot struct {
	Day         string      `json:"day"`
	Branch      Branch      `json:"branch,omitempty"` // empty means all branches
	ServingSet  []EntryView `json:"serving_set"`
	WaitingList []EntryView `json:"waiting_list"`
	YourStatus  *EntryView  `json:"your_status,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
}
