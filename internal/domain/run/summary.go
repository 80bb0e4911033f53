package run

import (
	"errors"
	"time"
)

// Summary aggregates the outcomes of one run. It is transient and only reported.
type Summary struct {
	RunID           string        `json:"run_id"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
	DryRun          bool          `json:"dry_run"`
	SendMail        bool          `json:"send_mail"`
	Total           int           `json:"total"`
	Processed       int           `json:"processed"`
	Filtered        int           `json:"filtered"`
	NotStarted      int           `json:"not_started"`
	Matches         int           `json:"matches"`
	Advanced        int           `json:"watermarks_advanced"`
	Sent            int           `json:"sent"`
	SkippedDisabled int           `json:"skipped_disabled"`
	SendFailures    int           `json:"send_failures"`
	MatchErrors     int           `json:"match_errors"`
	PersistErrors   int           `json:"persist_errors"`
	Errors          int           `json:"errors"`
	Searches        []SearchEntry `json:"searches,omitempty"`
}

// SearchEntry is the reportable form of an Outcome.
type SearchEntry struct {
	SearchID string   `json:"search_id"`
	Section  string   `json:"section"`
	Email    string   `json:"email"`
	Matches  int      `json:"matches"`
	Advanced bool     `json:"watermark_advanced"`
	Dispatch Dispatch `json:"dispatch"`
	Error    string   `json:"error,omitempty"`
}

// Add folds one outcome into the summary.
// A search counts as one error regardless of how many of its steps failed.
func (s *Summary) Add(o Outcome) {
	if o.Filtered {
		s.Filtered++
		return
	}
	if !o.Attempted {
		s.NotStarted++
		return
	}
	s.Processed++
	s.Matches += o.Matches
	if o.Advanced {
		s.Advanced++
	}
	switch o.Dispatch {
	case DispatchSent:
		s.Sent++
	case DispatchSkippedDisabled:
		s.SkippedDisabled++
	case DispatchFailed:
		s.SendFailures++
	}
	for _, err := range o.Errs {
		if errors.Is(err, ErrMatch) {
			s.MatchErrors++
		}
		if errors.Is(err, ErrPersist) {
			s.PersistErrors++
		}
	}
	if o.HasError() {
		s.Errors++
	}

	entry := SearchEntry{
		SearchID: o.SearchID,
		Section:  string(o.Section),
		Email:    o.Email,
		Matches:  o.Matches,
		Advanced: o.Advanced,
		Dispatch: o.Dispatch,
	}
	if err := o.Err(); err != nil {
		entry.Error = err.Error()
	}
	s.Searches = append(s.Searches, entry)
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
