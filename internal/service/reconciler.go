package service

import (
	"context"
	"time"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/events"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	repo "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/repository/postgres"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

// Reconciler collapses duplicate active entries for a patient-day, keeping
// the most recently created one. With the ledger's partial unique index in
// place new duplicates cannot appear, so this is a safety net for rows
// written before that guarantee existed. It runs after every admission and
// opportunistically on read.
type Reconciler struct {
	queueRepo repo.QueueRepository
	bus       events.Bus
	l         logger.Logger
}

func NewReconciler(queueRepo repo.QueueRepository, bus events.Bus, l logger.Logger) *Reconciler {
	return &Reconciler{queueRepo: queueRepo, bus: bus, l: l}
}

// Reconcile never raises to its caller: any error is logged and the
// duplicate set is left for the next pass.
func (r *Reconciler) Reconcile(ctx context.Context, patientID, day string) {
	entries, err := r.queueRepo.FindByPatientDay(ctx, patientID, day)
	if err != nil {
		r.l.Warn("Reconciler failed to load entries, will retry next pass",
			"patient_id", patientID,
			"day", day,
			"error", err,
		)
		return
	}

	// Completed and cancelled entries are legitimate history (a patient may
	// be re-admitted by staff after completion); only live duplicates are
	// race artifacts.
	var active []models.QueueEntry
	for _, e := range entries {
		if e.Active() {
			active = append(active, e)
		}
	}

	if len(active) <= 1 {
		return
	}

	// FindByPatientDay orders by created_at then id, so the keeper is last.
	keeper := active[len(active)-1]
	stale := active[:len(active)-1]

	ids := make([]string, 0, len(stale))
	for _, e := range stale {
		ids = append(ids, e.ID)
	}

	if err := r.queueRepo.DeleteByIDs(ctx, ids); err != nil {
		r.l.Warn("Reconciler failed to delete duplicates, will retry next pass",
			"patient_id", patientID,
			"day", day,
			"count", len(ids),
			"error", err,
		)
		return
	}

	r.l.Info("Reconciled duplicate queue entries",
		"patient_id", patientID,
		"day", day,
		"kept_entry_id", keeper.ID,
		"deleted", len(ids),
	)

	for _, e := range stale {
		r.bus.Publish(events.QueueEvent{
			Type:      events.EventEntryDeleted,
			Entry:     e,
			Timestamp: time.Now(),
		})
	}
}
