package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

// AppointmentRepository is the read-side view of the scheduling subsystem's
// data that the auto-admit sweep consumes.
type AppointmentRepository interface {
	Get(ctx context.Context, id string) (*models.Appointment, error)
	// ListConfirmedForDay returns confirmed appointments for the local
	// calendar day. An empty branch means all branches.
	ListConfirmedForDay(ctx context.Context, day string, branch models.Branch) ([]models.Appointment, error)
}

type appointmentRepository struct {
	db *gorm.DB
	l  logger.Logger
}

func NewAppointmentRepository(db *gorm.DB, l logger.Logger) AppointmentRepository {
	return &appointmentRepository{db: db, l: l}
}

func (r *appointmentRepository) Get(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAppointmentNotFound
		}
		r.l.Error("appointmentRepository.Get", "error", err)
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) ListConfirmedForDay(ctx context.Context, day string, branch models.Branch) ([]models.Appointment, error) {
	q := r.db.WithContext(ctx).
		Where("date = ? AND status = ?", day, models.AppointmentConfirmed)
	if branch != "" {
		q = q.Where("branch = ?", branch)
	}

	var appts []models.Appointment
	if err := q.Order("created_at ASC").Find(&appts).Error; err != nil {
		r.l.Error("appointmentRepository.ListConfirmedForDay", "error", err)
		return nil, err
	}
	return appts, nil
}
