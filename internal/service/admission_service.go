package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/delivery/kafka"
	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/events"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	repo "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/repository/postgres"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/util"
)

// AdmissionService is the single entry point for joining the queue. Every
// trigger (front desk, patient self check-in, the auto-admit sweep) goes
// through Admit, which guarantees at most one active entry per patient per
// admission-day no matter how many callers race.
type AdmissionService interface {
	Admit(ctx context.Context, in AdmitInput) (AdmitResult, error)
}

type admissionService struct {
	queueRepo   repo.QueueRepository
	reconciler  *Reconciler
	bus         events.Bus
	notifier    Notifier
	prod        kafka.Producer
	loc         *time.Location
	maxAttempts int
	now         func() time.Time
	l           logger.Logger
}

func NewAdmissionService(
	queueRepo repo.QueueRepository,
	reconciler *Reconciler,
	bus events.Bus,
	notifier Notifier,
	prod kafka.Producer,
	loc *time.Location,
	maxAttempts int,
	l logger.Logger,
) AdmissionService {
	return &admissionService{
		queueRepo:   queueRepo,
		reconciler:  reconciler,
		bus:         bus,
		notifier:    notifier,
		prod:        prod,
		loc:         loc,
		maxAttempts: maxAttempts,
		now:         time.Now,
		l:           l,
	}
}

func (s *admissionService) Admit(ctx context.Context, in AdmitInput) (AdmitResult, error) {
	if !in.Branch.Valid() {
		return AdmitResult{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownBranch, in.Branch)
	}

	day := util.AdmissionDay(s.now(), s.loc)

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		existing, err := s.queueRepo.FindActiveByPatientDay(ctx, in.PatientID, day)
		if err != nil && !errors.Is(err, apperrors.ErrEntryNotFound) {
			return AdmitResult{}, fmt.Errorf("failed to check existing entry: %w", err)
		}

		if existing != nil {
			// Idempotent outcome: a redundant admission hands back the entry
			// that already holds the patient's slot.
			return AdmitResult{
				Admitted: false,
				Reason:   ReasonAlreadyInQueue,
				Entry:    existing,
			}, nil
		}

		entry := &models.QueueEntry{
			ID:            uuid.NewString(),
			PatientID:     in.PatientID,
			AppointmentID: in.AppointmentID,
			Branch:        in.Branch,
			AdmissionDay:  day,
			Status:        models.StatusWaiting,
		}

		err = s.queueRepo.InsertWithNextNumber(ctx, entry)
		if err == nil {
			s.afterAdmit(ctx, entry)
			return AdmitResult{Admitted: true, Entry: entry}, nil
		}

		if !errors.Is(err, apperrors.ErrWriteConflict) {
			return AdmitResult{}, fmt.Errorf("failed to insert queue entry: %w", err)
		}

		// Lost the insertion race. Loop back: if the winner admitted this
		// same patient we return the idempotent result instead of burning a
		// second queue number.
		s.l.Debug("Admission insert conflicted, re-checking",
			"patient_id", in.PatientID,
			"branch", in.Branch,
			"attempt", attempt+1,
		)
	}

	return AdmitResult{}, apperrors.ErrContention
}

func (s *admissionService) afterAdmit(ctx context.Context, entry *models.QueueEntry) {
	s.l.Info("Patient admitted to queue",
		"entry_id", entry.ID,
		"patient_id", entry.PatientID,
		"branch", entry.Branch,
		"queue_number", entry.QueueNumber,
	)

	// Safety net for duplicates that predate the ledger constraint.
	s.reconciler.Reconcile(ctx, entry.PatientID, entry.AdmissionDay)

	ev := events.QueueEvent{
		Type:      events.EventEntryCreated,
		Entry:     *entry,
		Timestamp: time.Now(),
	}
	s.bus.Publish(ev)

	// Notifications route only here, in the committing process; peers see the
	// event through the bus for their snapshot ticks but never re-route it.
	if s.notifier != nil {
		s.notifier.HandleEvent(ctx, ev)
	}

	if s.prod != nil {
		if err := s.prod.PublishQueueAdmitted(ctx, kafka.QueueAdmittedEvent{
			EntryID:       entry.ID,
			PatientID:     entry.PatientID,
			AppointmentID: entry.AppointmentID,
			Branch:        entry.Branch,
			AdmissionDay:  entry.AdmissionDay,
			QueueNumber:   entry.QueueNumber,
			AdmittedAt:    entry.CreatedAt,
		}); err != nil {
			s.l.Error("Failed to publish queue admitted event",
				"entry_id", entry.ID,
				"error", err,
			)
		}
	}
}
