package errors

import "errors"

var (
	// ErrContention is returned after the admission transaction has lost its
	// insertion race too many times. Transient; the caller may retry the
	// whole admit call once after backoff.
	ErrContention = errors.New("admission lost insertion race, retry later")

	ErrInvalidTransition = errors.New("illegal queue status transition")
	ErrEntryNotFound     = errors.New("queue entry not found")
	ErrUnknownBranch     = errors.New("unknown branch")

	// ErrWriteConflict marks a unique-constraint violation on insert: another
	// caller took the queue number or the patient's admission slot first.
	ErrWriteConflict = errors.New("ledger write conflict")
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// ErrSinkUnavailable wraps notification delivery failures. Notifications are
// best-effort: callers log this and move on, never failing the mutation.
var ErrSinkUnavailable = errors.New("notification sink unavailable")
