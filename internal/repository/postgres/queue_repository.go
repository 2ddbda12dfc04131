package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

type QueueRepository interface {
	// InsertWithNextNumber allocates the entry's queue number and writes the
	// entry in one transaction. On a lost race it returns ErrWriteConflict
	// and the caller re-checks; it must not blindly retry the same number.
	InsertWithNextNumber(ctx context.Context, entry *models.QueueEntry) error

	FindByID(ctx context.Context, id string) (*models.QueueEntry, error)
	FindActiveByPatientDay(ctx context.Context, patientID, day string) (*models.QueueEntry, error)
	FindByPatientDay(ctx context.Context, patientID, day string) ([]models.QueueEntry, error)

	// ListByDay returns entries for the admission-day ordered by queue
	// number. An empty branch means all branches; no statuses means all.
	ListByDay(ctx context.Context, day string, branch models.Branch, statuses ...models.EntryStatus) ([]models.QueueEntry, error)

	// UpdateStatus moves an entry from one exact status to another. The
	// guard on the previous status keeps racing callers from regressing the
	// state machine.
	UpdateStatus(ctx context.Context, id string, from, to models.EntryStatus) (*models.QueueEntry, error)

	// DeleteByIDs hard-deletes entries. Only the duplicate reconciler uses
	// this; retired entries are otherwise kept for history.
	DeleteByIDs(ctx context.Context, ids []string) error
}

type queueRepository struct {
	db *gorm.DB
	l  logger.Logger
}

func NewQueueRepository(db *gorm.DB, l logger.Logger) QueueRepository {
	return &queueRepository{db: db, l: l}
}

func (r *queueRepository) InsertWithNextNumber(ctx context.Context, entry *models.QueueEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		if err := tx.Model(&models.QueueEntry{}).
			Where("branch = ? AND admission_day = ?", entry.Branch, entry.AdmissionDay).
			Select("COALESCE(MAX(queue_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return fmt.Errorf("failed to read sequence high-water mark: %w", err)
		}

		entry.QueueNumber = maxNumber + 1

		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either the queue number or the patient's active-entry slot was
			// taken between the read and the insert.
			return apperrors.ErrWriteConflict
		}
		r.l.Error("queueRepository.InsertWithNextNumber", "error", err)
		return err
	}

	r.l.Debug("Queue entry inserted",
		"entry_id", entry.ID,
		"branch", entry.Branch,
		"day", entry.AdmissionDay,
		"queue_number", entry.QueueNumber,
	)

	return nil
}

func (r *queueRepository) FindByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		r.l.Error("queueRepository.FindByID", "error", err)
		return nil, err
	}
	return &entry, nil
}

func (r *queueRepository) FindActiveByPatientDay(ctx context.Context, patientID, day string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND admission_day = ? AND status IN ?",
			patientID, day, []models.EntryStatus{models.StatusWaiting, models.StatusServing}).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		r.l.Error("queueRepository.FindActiveByPatientDay", "error", err)
		return nil, err
	}
	return &entry, nil
}

func (r *queueRepository) FindByPatientDay(ctx context.Context, patientID, day string) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND admission_day = ?", patientID, day).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		r.l.Error("queueRepository.FindByPatientDay", "error", err)
		return nil, err
	}
	return entries, nil
}

func (r *queueRepository) ListByDay(ctx context.Context, day string, branch models.Branch, statuses ...models.EntryStatus) ([]models.QueueEntry, error) {
	q := r.db.WithContext(ctx).Where("admission_day = ?", day)
	if branch != "" {
		q = q.Where("branch = ?", branch)
	}
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var entries []models.QueueEntry
	if err := q.Order("queue_number ASC").Find(&entries).Error; err != nil {
		r.l.Error("queueRepository.ListByDay", "error", err)
		return nil, err
	}
	return entries, nil
}

func (r *queueRepository) UpdateStatus(ctx context.Context, id string, from, to models.EntryStatus) (*models.QueueEntry, error) {
	res := r.db.WithContext(ctx).
		Model(&models.QueueEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.l.Error("queueRepository.UpdateStatus", "error", res.Error)
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// The entry moved under us, or never existed. Reload to tell the
		// caller which.
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrInvalidTransition
	}

	return r.FindByID(ctx, id)
}

func (r *queueRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Delete(&models.QueueEntry{}, "id IN ?", ids).Error; err != nil {
		r.l.Error("queueRepository.DeleteByIDs", "error", err)
		return err
	}

	r.l.Debug("Queue entries deleted", "count", len(ids))

	return nil
}
