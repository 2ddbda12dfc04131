package service

import (
	"time"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
)

// BuildSnapshot assembles one viewer's filtered view of the given entries.
// Pure: everything it needs is passed in, which keeps the position and
// masking rules testable without a store.
//
// The canonical position rule: PatientsAhead counts same-branch entries still
// in waiting status with a strictly lower queue number. Serving entries do
// not count against anyone.
func BuildSnapshot(
	entries []models.QueueEntry,
	users map[string]models.User,
	viewer Viewer,
	day string,
	branch models.Branch,
	avgServiceMinutes int,
	now time.Time,
) *models.QueueSnapshot {
	snapshot := &models.QueueSnapshot{
		Day:         day,
		Branch:      branch,
		ServingSet:  []models.EntryView{},
		WaitingList: []models.EntryView{},
		GeneratedAt: now,
	}

	for _, e := range entries {
		view := models.EntryView{
			EntryID:        e.ID,
			PatientName:    displayName(e.PatientID, users, viewer),
			Branch:         e.Branch,
			QueueNumber:    e.QueueNumber,
			Status:         e.Status,
			WaitingSeconds: int64(e.WaitingDuration(now).Seconds()),
			IsSelf:         e.PatientID == viewer.ID,
		}

		switch e.Status {
		case models.StatusWaiting:
			ahead := patientsAhead(entries, e)
			view.PatientsAhead = ahead
			view.EstimatedWaitMinutes = ahead * avgServiceMinutes
			snapshot.WaitingList = append(snapshot.WaitingList, view)
		case models.StatusServing:
			snapshot.ServingSet = append(snapshot.ServingSet, view)
		}

		if view.IsSelf {
			self := view
			snapshot.YourStatus = &self
		}
	}

	return snapshot
}

func patientsAhead(entries []models.QueueEntry, target models.QueueEntry) int {
	count := 0
	for _, e := range entries {
		if e.Branch == target.Branch &&
			e.Status == models.StatusWaiting &&
			e.QueueNumber < target.QueueNumber {
			count++
		}
	}
	return count
}

// displayName applies the masking rule: patients see other patients as
// initials only; staff, doctors and admins see full names; everyone sees
// their own entry in full.
func displayName(patientID string, users map[string]models.User, viewer Viewer) string {
	u, ok := users[patientID]
	if !ok {
		return "Patient"
	}

	if viewer.Role == models.RolePatient && patientID != viewer.ID {
		return u.Initials()
	}
	return u.FirstName + " " + u.LastName
}
