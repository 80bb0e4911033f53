package run

import (
	"errors"

	"github.com/kailas-cloud/searchagent/internal/domain"
)

// Dispatch is what happened on the notification side of one search execution.
type Dispatch string

// Dispatch values.
const (
	DispatchNone            Dispatch = "none"
	DispatchSent            Dispatch = "sent"
	DispatchSkippedDisabled Dispatch = "skipped_disabled"
	DispatchFailed          Dispatch = "failed"
)

// Outcome is the result of executing one stored search.
type Outcome struct {
	SearchID  string
	Section   domain.Section
	Email     string
	Filtered  bool
	Matches   int
	Advanced  bool
	Dispatch  Dispatch
	Errs      []error
	Attempted bool
}

// NewFiltered marks a search skipped by the run's principal filter.
func NewFiltered(searchID string, section domain.Section, email string) Outcome {
	return Outcome{SearchID: searchID, Section: section, Email: email, Filtered: true, Dispatch: DispatchNone}
}

// Err joins all per-search errors, nil when the execution was clean.
func (o Outcome) Err() error { return errors.Join(o.Errs...) }

// HasError reports whether any step failed.
func (o Outcome) HasError() bool { return len(o.Errs) > 0 }

// AddError records a step failure.
func (o *Outcome) AddError(err error) {
	if err != nil {
		o.Errs = append(o.Errs, err)
	}
}
