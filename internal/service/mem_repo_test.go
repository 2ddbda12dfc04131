package service

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/events"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
)

var baseTime = time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)

// memQueueRepo is an in-memory QueueRepository that enforces the same two
// constraints the real store carries: a unique (branch, day, number) triple
// and at most one active entry per (patient, day). It reports violations as
// ErrWriteConflict exactly like the translated duplicate-key error.
type memQueueRepo struct {
	mu      sync.Mutex
	entries map[string]*models.QueueEntry
	seq     int64

	// failInserts forces the next N inserts to conflict without writing,
	// simulating a raced sequence read.
	failInserts int
	insertCalls int
	deleteErr   error
}

func newMemQueueRepo() *memQueueRepo {
	return &memQueueRepo{entries: map[string]*models.QueueEntry{}}
}

func (m *memQueueRepo) InsertWithNextNumber(_ context.Context, entry *models.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertCalls++
	if m.failInserts > 0 {
		m.failInserts--
		return apperrors.ErrWriteConflict
	}

	max := 0
	for _, e := range m.entries {
		if e.Branch == entry.Branch && e.AdmissionDay == entry.AdmissionDay && e.QueueNumber > max {
			max = e.QueueNumber
		}
		if e.PatientID == entry.PatientID && e.AdmissionDay == entry.AdmissionDay && e.Active() {
			return apperrors.ErrWriteConflict
		}
	}

	entry.QueueNumber = max + 1
	m.seq++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = baseTime.Add(time.Duration(m.seq) * time.Second)
	}
	cp := *entry
	m.entries[entry.ID] = &cp
	return nil
}

func (m *memQueueRepo) FindByID(_ context.Context, id string) (*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, apperrors.ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memQueueRepo) FindActiveByPatientDay(_ context.Context, patientID, day string) (*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.PatientID == patientID && e.AdmissionDay == day && e.Active() {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.ErrEntryNotFound
}

func (m *memQueueRepo) FindByPatientDay(_ context.Context, patientID, day string) ([]models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.QueueEntry
	for _, e := range m.entries {
		if e.PatientID == patientID && e.AdmissionDay == day {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memQueueRepo) ListByDay(_ context.Context, day string, branch models.Branch, statuses ...models.EntryStatus) ([]models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match := func(s models.EntryStatus) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, want := range statuses {
			if s == want {
				return true
			}
		}
		return false
	}

	var out []models.QueueEntry
	for _, e := range m.entries {
		if e.AdmissionDay != day {
			continue
		}
		if branch != "" && e.Branch != branch {
			continue
		}
		if !match(e.Status) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueueNumber < out[j].QueueNumber })
	return out, nil
}

func (m *memQueueRepo) UpdateStatus(_ context.Context, id string, from, to models.EntryStatus) (*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, apperrors.ErrEntryNotFound
	}
	if e.Status != from {
		return nil, apperrors.ErrInvalidTransition
	}
	e.Status = to
	cp := *e
	return &cp, nil
}

func (m *memQueueRepo) DeleteByIDs(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

// seed bypasses the constraints so tests can construct pre-constraint states
// like historical duplicates.
func (m *memQueueRepo) seed(entry models.QueueEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := entry
	m.entries[entry.ID] = &cp
}

func (m *memQueueRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu        sync.Mutex
	published []events.QueueEvent
}

func (b *recordingBus) Publish(ev events.QueueEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, ev)
}

func (b *recordingBus) Subscribe(func(events.QueueEvent)) func() { return func() {} }

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) ofType(t events.EventType) []events.QueueEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.QueueEvent
	for _, ev := range b.published {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
