package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/delivery/kafka"
	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/events"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	repo "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/repository/postgres"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/util"
)

// QueueService is the state transition engine plus the read side: it advances
// entries through the waiting→serving→terminal machine and computes the
// viewer-specific snapshots pushed to subscribers.
type QueueService interface {
	Advance(ctx context.Context, entryID string, target models.EntryStatus) (*models.QueueEntry, error)
	GetEntry(ctx context.Context, entryID string) (*models.QueueEntry, error)
	GetQueueNumber(ctx context.Context, entryID string) (int, error)
	Snapshot(ctx context.Context, viewer Viewer, branch models.Branch) (*models.QueueSnapshot, error)
}

type queueService struct {
	queueRepo     repo.QueueRepository
	userRepo      repo.UserRepository
	reconciler    *Reconciler
	bus           events.Bus
	notifier      Notifier
	prod          kafka.Producer
	loc           *time.Location
	avgServiceMin int
	snapshotMax   int
	now           func() time.Time
	l             logger.Logger
}

func NewQueueService(
	queueRepo repo.QueueRepository,
	userRepo repo.UserRepository,
	reconciler *Reconciler,
	bus events.Bus,
	notifier Notifier,
	prod kafka.Producer,
	loc *time.Location,
	avgServiceMinutes int,
	snapshotMaxEntries int,
	l logger.Logger,
) QueueService {
	return &queueService{
		queueRepo:     queueRepo,
		userRepo:      userRepo,
		reconciler:    reconciler,
		bus:           bus,
		notifier:      notifier,
		prod:          prod,
		loc:           loc,
		avgServiceMin: avgServiceMinutes,
		snapshotMax:   snapshotMaxEntries,
		now:           time.Now,
		l:             l,
	}
}

func (s *queueService) Advance(ctx context.Context, entryID string, target models.EntryStatus) (*models.QueueEntry, error) {
	entry, err := s.queueRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if !models.ValidTransition(entry.Status, target) {
		return nil, fmt.Errorf("%w: %s → %s", apperrors.ErrInvalidTransition, entry.Status, target)
	}

	from := entry.Status
	updated, err := s.queueRepo.UpdateStatus(ctx, entryID, from, target)
	if err != nil {
		return nil, err
	}

	s.l.Info("Queue entry advanced",
		"entry_id", entryID,
		"from", from,
		"to", target,
	)

	ev := events.QueueEvent{
		Type:      events.EventStatusChanged,
		Entry:     *updated,
		Previous:  from,
		Timestamp: time.Now(),
	}
	s.bus.Publish(ev)

	// Routed in the committing process only; relayed copies of this event on
	// peer processes drive snapshots, not notifications.
	if s.notifier != nil {
		s.notifier.HandleEvent(ctx, ev)
	}

	if s.prod != nil {
		if err := s.prod.PublishStatusChanged(ctx, kafka.QueueStatusChangedEvent{
			EntryID:      updated.ID,
			PatientID:    updated.PatientID,
			Branch:       updated.Branch,
			AdmissionDay: updated.AdmissionDay,
			QueueNumber:  updated.QueueNumber,
			From:         from,
			To:           target,
		}); err != nil {
			s.l.Error("Failed to publish status change event",
				"entry_id", updated.ID,
				"error", err,
			)
		}

		// Completing a served appointment hands it to billing. This is a
		// signal to the external collaborator, nothing more.
		if target == models.StatusCompleted && updated.AppointmentID != nil {
			if err := s.prod.PublishBillingReady(ctx, kafka.BillingReadyEvent{
				AppointmentID: *updated.AppointmentID,
				PatientID:     updated.PatientID,
				EntryID:       updated.ID,
				Branch:        updated.Branch,
				CompletedAt:   updated.UpdatedAt,
			}); err != nil {
				s.l.Error("Failed to publish billing ready event",
					"appointment_id", *updated.AppointmentID,
					"error", err,
				)
			}
		}
	}

	return updated, nil
}

func (s *queueService) GetEntry(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	return s.queueRepo.FindByID(ctx, entryID)
}

func (s *queueService) GetQueueNumber(ctx context.Context, entryID string) (int, error) {
	entry, err := s.queueRepo.FindByID(ctx, entryID)
	if err != nil {
		return 0, err
	}
	return entry.QueueNumber, nil
}

// Snapshot recomputes the viewer's visible slice of today's queue from the
// ledger. It is called on every propagation tick rather than patched
// incrementally, so a viewer's state can never drift from the store.
func (s *queueService) Snapshot(ctx context.Context, viewer Viewer, branch models.Branch) (*models.QueueSnapshot, error) {
	if branch != "" && !branch.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownBranch, branch)
	}

	now := s.now()
	day := util.AdmissionDay(now, s.loc)

	// Opportunistic cleanup of the viewer's own duplicates on read.
	if viewer.Role == models.RolePatient {
		s.reconciler.Reconcile(ctx, viewer.ID, day)
	}

	entries, err := s.queueRepo.ListByDay(ctx, day, branch,
		models.StatusWaiting, models.StatusServing)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue for snapshot: %w", err)
	}

	// ListByDay orders by queue number, so the cap keeps the head of the
	// line and bounds the payload on pathological days.
	if s.snapshotMax > 0 && len(entries) > s.snapshotMax {
		entries = entries[:s.snapshotMax]
	}

	patientIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		patientIDs = append(patientIDs, e.PatientID)
	}
	users, err := s.userRepo.GetMany(ctx, patientIDs)
	if err != nil {
		// Snapshot degrades to masked placeholders rather than failing the tick.
		s.l.Warn("Failed to load patient names for snapshot", "error", err)
		users = map[string]models.User{}
	}

	snapshot := BuildSnapshot(entries, users, viewer, day, branch, s.avgServiceMin, now)
	return snapshot, nil
}
