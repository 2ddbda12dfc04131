package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	repo "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/repository/postgres"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/util"
)

// Sweeper auto-admits patients with confirmed appointments for the current
// admission-day. Several service processes may run the sweep on the same
// schedule; admission idempotency makes the overlap harmless, so the net
// effect of N concurrent sweeps equals one.
type Sweeper struct {
	apptRepo   repo.AppointmentRepository
	queueRepo  repo.QueueRepository
	admissions AdmissionService
	loc        *time.Location
	schedule   string
	now        func() time.Time
	l          logger.Logger

	cron *cron.Cron
}

func NewSweeper(
	apptRepo repo.AppointmentRepository,
	queueRepo repo.QueueRepository,
	admissions AdmissionService,
	loc *time.Location,
	schedule string,
	l logger.Logger,
) *Sweeper {
	return &Sweeper{
		apptRepo:   apptRepo,
		queueRepo:  queueRepo,
		admissions: admissions,
		loc:        loc,
		schedule:   schedule,
		now:        time.Now,
		l:          l,
	}
}

// Start registers the sweep on its cron schedule and begins running it.
func (s *Sweeper) Start() error {
	s.cron = cron.New(cron.WithSeconds(), cron.WithLocation(s.loc))

	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			s.l.Error("Auto-admit sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule auto-admit sweep: %w", err)
	}

	s.cron.Start()
	s.l.Info("Auto-admit sweep scheduled", "schedule", s.schedule)
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep admits every confirmed appointment for today whose patient has no
// queue entry yet. Patients who already completed or cancelled today are
// skipped: re-admission after service is a deliberate staff action, not
// something the sweep does on its own.
func (s *Sweeper) Sweep(ctx context.Context) error {
	day := util.AdmissionDay(s.now(), s.loc)

	appts, err := s.apptRepo.ListConfirmedForDay(ctx, day, "")
	if err != nil {
		return fmt.Errorf("failed to list confirmed appointments: %w", err)
	}

	if len(appts) == 0 {
		return nil
	}

	admitted := 0
	for _, appt := range appts {
		existing, err := s.queueRepo.FindByPatientDay(ctx, appt.PatientID, day)
		if err != nil {
			s.l.Warn("Sweep could not check patient history, skipping",
				"patient_id", appt.PatientID,
				"error", err,
			)
			continue
		}
		if len(existing) > 0 {
			continue
		}

		apptID := appt.ID
		result, err := s.admissions.Admit(ctx, AdmitInput{
			PatientID:     appt.PatientID,
			AppointmentID: &apptID,
			Branch:        appt.Branch,
		})
		if err != nil {
			if errors.Is(err, apperrors.ErrContention) {
				// A concurrent sweep is admitting the same patient; theirs
				// will land.
				s.l.Debug("Sweep lost admission race", "patient_id", appt.PatientID)
				continue
			}
			s.l.Error("Sweep failed to admit patient",
				"patient_id", appt.PatientID,
				"appointment_id", appt.ID,
				"error", err,
			)
			continue
		}

		if result.Admitted {
			admitted++
		}
	}

	if admitted > 0 {
		s.l.Info("Auto-admit sweep completed",
			"day", day,
			"appointments", len(appts),
			"admitted", admitted,
		)
	}

	return nil
}
