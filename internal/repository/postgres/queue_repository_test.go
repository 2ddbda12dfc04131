package repository

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	infra "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/infra/postgres"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

// setupTestDB connects to the database named by TEST_DB_DSN, runs the
// migrations and truncates the ledger. Tests are skipped when the variable is
// unset so the unit suite stays runnable without infrastructure.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping repository integration tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	require.NoError(t, db.Exec("TRUNCATE queue_entries, appointments, users").Error)

	return db
}

func newEntry(patientID string, branch models.Branch, day string, status models.EntryStatus) *models.QueueEntry {
	return &models.QueueEntry{
		ID:           uuid.NewString(),
		PatientID:    patientID,
		Branch:       branch,
		AdmissionDay: day,
		Status:       status,
	}
}

func TestInsertWithNextNumberAllocatesDenseSequence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db, logger.NewNop())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		e := newEntry(uuid.NewString(), models.BranchCabugao, "2025-03-11", models.StatusWaiting)
		require.NoError(t, repo.InsertWithNextNumber(ctx, e))
		assert.Equal(t, i, e.QueueNumber)
	}

	// Another branch and another day both start over at 1.
	other := newEntry(uuid.NewString(), models.BranchSanJuan, "2025-03-11", models.StatusWaiting)
	require.NoError(t, repo.InsertWithNextNumber(ctx, other))
	assert.Equal(t, 1, other.QueueNumber)

	tomorrow := newEntry(uuid.NewString(), models.BranchCabugao, "2025-03-12", models.StatusWaiting)
	require.NoError(t, repo.InsertWithNextNumber(ctx, tomorrow))
	assert.Equal(t, 1, tomorrow.QueueNumber)
}

func TestInsertRejectsSecondActiveEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db, logger.NewNop())
	ctx := context.Background()

	patient := uuid.NewString()
	first := newEntry(patient, models.BranchCabugao, "2025-03-11", models.StatusWaiting)
	require.NoError(t, repo.InsertWithNextNumber(ctx, first))

	// Same patient, same day, even a different branch: the partial index
	// rejects it.
	second := newEntry(patient, models.BranchSanJuan, "2025-03-11", models.StatusWaiting)
	err := repo.InsertWithNextNumber(ctx, second)
	assert.ErrorIs(t, err, apperrors.ErrWriteConflict)
}

func TestInsertAllowsReadmissionAfterTerminal(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db, logger.NewNop())
	ctx := context.Background()

	patient := uuid.NewString()
	first := newEntry(patient, models.BranchCabugao, "2025-03-11", models.StatusWaiting)
	require.NoError(t, repo.InsertWithNextNumber(ctx, first))

	_, err := repo.UpdateStatus(ctx, first.ID, models.StatusWaiting, models.StatusCancelled)
	require.NoError(t, err)

	second := newEntry(patient, models.BranchCabugao, "2025-03-11", models.StatusWaiting)
	require.NoError(t, repo.InsertWithNextNumber(ctx, second))
	assert.Equal(t, 2, second.QueueNumber)
}

func TestConcurrentInsertsKeepNumbersUniqueAndDense(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db, logger.NewNop())

	const writers = 10
	var conflicts atomic.Int64

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			for {
				e := newEntry(uuid.NewString(), models.BranchCabugao, "2025-03-11", models.StatusWaiting)
				err := repo.InsertWithNextNumber(context.Background(), e)
				if err == nil {
					return nil
				}
				if errors.Is(err, apperrors.ErrWriteConflict) {
					conflicts.Add(1)
					continue
				}
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	entries, err := repo.ListByDay(context.Background(), "2025-03-11", models.BranchCabugao)
	require.NoError(t, err)
	require.Len(t, entries, writers)

	for i, e := range entries {
		assert.Equal(t, i+1, e.QueueNumber, "numbers must be gap-free after %d conflicts", conflicts.Load())
	}
}

func TestUpdateStatusGuardsPreviousState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db, logger.NewNop())
	ctx := context.Background()

	e := newEntry(uuid.NewString(), models.BranchCabugao, "2025-03-11", models.StatusWaiting)
	require.NoError(t, repo.InsertWithNextNumber(ctx, e))

	updated, err := repo.UpdateStatus(ctx, e.ID, models.StatusWaiting, models.StatusServing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusServing, updated.Status)

	// The guarded update fails once the previous state no longer matches.
	_, err = repo.UpdateStatus(ctx, e.ID, models.StatusWaiting, models.StatusCancelled)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = repo.UpdateStatus(ctx, uuid.NewString(), models.StatusWaiting, models.StatusServing)
	assert.ErrorIs(t, err, apperrors.ErrEntryNotFound)
}

func TestFindActiveByPatientDay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db, logger.NewNop())
	ctx := context.Background()

	patient := uuid.NewString()
	_, err := repo.FindActiveByPatientDay(ctx, patient, "2025-03-11")
	assert.ErrorIs(t, err, apperrors.ErrEntryNotFound)

	e := newEntry(patient, models.BranchCabugao, "2025-03-11", models.StatusWaiting)
	require.NoError(t, repo.InsertWithNextNumber(ctx, e))

	found, err := repo.FindActiveByPatientDay(ctx, patient, "2025-03-11")
	require.NoError(t, err)
	assert.Equal(t, e.ID, found.ID)

	_, err = repo.UpdateStatus(ctx, e.ID, models.StatusWaiting, models.StatusCancelled)
	require.NoError(t, err)

	_, err = repo.FindActiveByPatientDay(ctx, patient, "2025-03-11")
	assert.ErrorIs(t, err, apperrors.ErrEntryNotFound)
}

func TestListByDayFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db, logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		e := newEntry(uuid.NewString(), models.BranchCabugao, "2025-03-11", models.StatusWaiting)
		require.NoError(t, repo.InsertWithNextNumber(ctx, e))
	}
	sj := newEntry(uuid.NewString(), models.BranchSanJuan, "2025-03-11", models.StatusWaiting)
	require.NoError(t, repo.InsertWithNextNumber(ctx, sj))
	_, err := repo.UpdateStatus(ctx, sj.ID, models.StatusWaiting, models.StatusServing)
	require.NoError(t, err)

	all, err := repo.ListByDay(ctx, "2025-03-11", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cabugao, err := repo.ListByDay(ctx, "2025-03-11", models.BranchCabugao)
	require.NoError(t, err)
	assert.Len(t, cabugao, 2)

	serving, err := repo.ListByDay(ctx, "2025-03-11", "", models.StatusServing)
	require.NoError(t, err)
	require.Len(t, serving, 1)
	assert.Equal(t, sj.ID, serving[0].ID)
}

func TestDeleteByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQueueRepository(db, logger.NewNop())
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		e := newEntry(uuid.NewString(), models.BranchCabugao, "2025-03-11", models.StatusWaiting)
		require.NoError(t, repo.InsertWithNextNumber(ctx, e))
		if i < 2 {
			ids = append(ids, e.ID)
		}
	}

	require.NoError(t, repo.DeleteByIDs(ctx, ids))
	require.NoError(t, repo.DeleteByIDs(ctx, nil))

	remaining, err := repo.ListByDay(ctx, "2025-03-11", "")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	_, err = repo.FindByID(ctx, ids[0])
	assert.ErrorIs(t, err, apperrors.ErrEntryNotFound)
}
