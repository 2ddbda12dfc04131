package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
)

func snapshotFixture() ([]models.QueueEntry, map[string]models.User) {
	entries := []models.QueueEntry{
		{ID: "e1", PatientID: "p1", Branch: models.BranchCabugao, AdmissionDay: "2025-03-11", QueueNumber: 1, Status: models.StatusWaiting, CreatedAt: baseTime},
		{ID: "e2", PatientID: "p2", Branch: models.BranchCabugao, AdmissionDay: "2025-03-11", QueueNumber: 2, Status: models.StatusWaiting, CreatedAt: baseTime.Add(time.Minute)},
		{ID: "e3", PatientID: "p3", Branch: models.BranchCabugao, AdmissionDay: "2025-03-11", QueueNumber: 3, Status: models.StatusWaiting, CreatedAt: baseTime.Add(2 * time.Minute)},
	}
	users := map[string]models.User{
		"p1": {ID: "p1", FirstName: "Jane", LastName: "Doe", Role: models.RolePatient},
		"p2": {ID: "p2", FirstName: "Ben", LastName: "Cruz", Role: models.RolePatient},
		"p3": {ID: "p3", FirstName: "Amy", LastName: "Lim", Role: models.RolePatient},
	}
	return entries, users
}

func TestBuildSnapshotPositions(t *testing.T) {
	entries, users := snapshotFixture()
	now := baseTime.Add(10 * time.Minute)
	staff := Viewer{ID: "staff-1", Role: models.RoleStaff}

	snap := BuildSnapshot(entries, users, staff, "2025-03-11", models.BranchCabugao, 15, now)

	require.Len(t, snap.WaitingList, 3)
	assert.Empty(t, snap.ServingSet)

	assert.Equal(t, 0, snap.WaitingList[0].PatientsAhead)
	assert.Equal(t, 1, snap.WaitingList[1].PatientsAhead)
	assert.Equal(t, 2, snap.WaitingList[2].PatientsAhead)

	assert.Equal(t, 0, snap.WaitingList[0].EstimatedWaitMinutes)
	assert.Equal(t, 15, snap.WaitingList[1].EstimatedWaitMinutes)
	assert.Equal(t, 30, snap.WaitingList[2].EstimatedWaitMinutes)
}

func TestBuildSnapshotServingDoesNotCountAhead(t *testing.T) {
	entries, users := snapshotFixture()
	// Number 1 is called in: 2 and 3 each move up.
	entries[0].Status = models.StatusServing
	now := baseTime.Add(10 * time.Minute)

	snap := BuildSnapshot(entries, users, Viewer{ID: "staff-1", Role: models.RoleStaff}, "2025-03-11", models.BranchCabugao, 15, now)

	require.Len(t, snap.ServingSet, 1)
	assert.Equal(t, "e1", snap.ServingSet[0].EntryID)

	require.Len(t, snap.WaitingList, 2)
	assert.Equal(t, 0, snap.WaitingList[0].PatientsAhead) // e2
	assert.Equal(t, 1, snap.WaitingList[1].PatientsAhead) // e3
}

func TestBuildSnapshotCrossBranchIsolation(t *testing.T) {
	entries, users := snapshotFixture()
	entries = append(entries, models.QueueEntry{
		ID: "e4", PatientID: "p4", Branch: models.BranchSanJuan,
		AdmissionDay: "2025-03-11", QueueNumber: 1, Status: models.StatusWaiting, CreatedAt: baseTime,
	})
	users["p4"] = models.User{ID: "p4", FirstName: "Leo", LastName: "Tan", Role: models.RolePatient}

	snap := BuildSnapshot(entries, users, Viewer{ID: "staff-1", Role: models.RoleStaff}, "2025-03-11", "", 15, baseTime)

	// All-branch view still counts positions within each branch only.
	for _, v := range snap.WaitingList {
		if v.EntryID == "e4" {
			assert.Equal(t, 0, v.PatientsAhead)
		}
	}
}

func TestBuildSnapshotMaskingForPatientViewer(t *testing.T) {
	entries, users := snapshotFixture()
	viewer := Viewer{ID: "p2", Role: models.RolePatient}

	snap := BuildSnapshot(entries, users, viewer, "2025-03-11", models.BranchCabugao, 15, baseTime)

	require.Len(t, snap.WaitingList, 3)
	assert.Equal(t, "J.D.", snap.WaitingList[0].PatientName)
	assert.Equal(t, "Ben Cruz", snap.WaitingList[1].PatientName) // own entry unmasked
	assert.Equal(t, "A.L.", snap.WaitingList[2].PatientName)

	assert.False(t, snap.WaitingList[0].IsSelf)
	assert.True(t, snap.WaitingList[1].IsSelf)
}

func TestBuildSnapshotFullNamesForClinicalViewers(t *testing.T) {
	entries, users := snapshotFixture()

	for _, role := range []models.Role{models.RoleDoctor, models.RoleStaff, models.RoleAdmin} {
		snap := BuildSnapshot(entries, users, Viewer{ID: "u-1", Role: role}, "2025-03-11", models.BranchCabugao, 15, baseTime)
		require.Len(t, snap.WaitingList, 3)
		assert.Equal(t, "Jane Doe", snap.WaitingList[0].PatientName)
	}
}

func TestBuildSnapshotYourStatus(t *testing.T) {
	entries, users := snapshotFixture()
	entries[0].Status = models.StatusServing
	viewer := Viewer{ID: "p1", Role: models.RolePatient}

	snap := BuildSnapshot(entries, users, viewer, "2025-03-11", models.BranchCabugao, 15, baseTime)

	require.NotNil(t, snap.YourStatus)
	assert.Equal(t, "e1", snap.YourStatus.EntryID)
	assert.Equal(t, models.StatusServing, snap.YourStatus.Status)

	// A viewer with no entry today has no YourStatus.
	snap = BuildSnapshot(entries, users, Viewer{ID: "p9", Role: models.RolePatient}, "2025-03-11", models.BranchCabugao, 15, baseTime)
	assert.Nil(t, snap.YourStatus)
}

func TestBuildSnapshotWaitingSeconds(t *testing.T) {
	entries, users := snapshotFixture()
	now := baseTime.Add(20 * time.Minute)

	snap := BuildSnapshot(entries, users, Viewer{ID: "staff-1", Role: models.RoleStaff}, "2025-03-11", models.BranchCabugao, 15, now)

	assert.Equal(t, int64(20*60), snap.WaitingList[0].WaitingSeconds)
	assert.Equal(t, int64(19*60), snap.WaitingList[1].WaitingSeconds)
}

func TestBuildSnapshotEmptyQueue(t *testing.T) {
	snap := BuildSnapshot(nil, nil, Viewer{ID: "p1", Role: models.RolePatient}, "2025-03-11", models.BranchCabugao, 15, baseTime)

	assert.NotNil(t, snap.WaitingList)
	assert.NotNil(t, snap.ServingSet)
	assert.Empty(t, snap.WaitingList)
	assert.Nil(t, snap.YourStatus)
}
