package run

import "errors"

// Per-search failure kinds. They never escape a search execution; they are carried in an Outcome.
var (
	// ErrMatch signals that the listing query failed for one search.
	ErrMatch = errors.New("match failed")
	// ErrPersist signals that the watermark write failed for one search.
	ErrPersist = errors.New("persist watermark failed")
	// ErrSend signals that the notification transport failed for one search.
	ErrSend = errors.New("send notification failed")
)

// MatchError wraps a listing matcher failure.
type MatchError struct{ Err error }

func (e *MatchError) Error() string { return ErrMatch.Error() + ": " + e.Err.Error() }

// Unwrap exposes both the kind sentinel and the cause.
func (e *MatchError) Unwrap() []error { return []error{ErrMatch, e.Err} }

// PersistenceError wraps a stored-search save failure.
type PersistenceError struct{ Err error }

func (e *PersistenceError) Error() string { return ErrPersist.Error() + ": " + e.Err.Error() }

// Unwrap exposes both the kind sentinel and the cause.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersist, e.Err} }

// SendError wraps a notification channel failure.
type SendError struct{ Err error }

func (e *SendError) Error() string { return ErrSend.Error() + ": " + e.Err.Error() }

// Unwrap exposes both the kind sentinel and the cause.
func (e *SendError) Unwrap() []error { return []error{ErrSend, e.Err} }
