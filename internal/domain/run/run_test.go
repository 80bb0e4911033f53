package run

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/searchagent/internal/domain"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"match", &MatchError{Err: cause}, ErrMatch},
		{"persist", &PersistenceError{Err: cause}, ErrPersist},
		{"send", &SendError{Err: cause}, ErrSend},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.kind) {
				t.Errorf("errors.Is(%v, kind) = false", tc.err)
			}
			if !errors.Is(tc.err, cause) {
				t.Errorf("cause not reachable from %v", tc.err)
			}
		})
	}

	var me *MatchError
	if !errors.As(error(&MatchError{Err: cause}), &me) {
		t.Error("errors.As(*MatchError) failed")
	}
}

func TestSummaryAdd(t *testing.T) {
	var s Summary

	s.Add(NewFiltered("premium:u9", domain.SectionPremium, "x@example.com"))
	s.Add(Outcome{SearchID: "marketplace:u1", Attempted: true, Matches: 3, Advanced: true, Dispatch: DispatchSent})
	s.Add(Outcome{SearchID: "premium:u2", Attempted: true, Matches: 1, Advanced: true, Dispatch: DispatchSkippedDisabled})

	failed := Outcome{SearchID: "premium:u3", Attempted: true, Dispatch: DispatchFailed, Advanced: false}
	failed.AddError(&PersistenceError{Err: errors.New("down")})
	failed.AddError(&SendError{Err: errors.New("smtp 451")})
	s.Add(failed)

	broken := Outcome{SearchID: "premium:u4", Attempted: true, Dispatch: DispatchNone}
	broken.AddError(&MatchError{Err: errors.New("index missing")})
	s.Add(broken)

	s.Add(Outcome{SearchID: "premium:u5"})

	if s.Filtered != 1 {
		t.Errorf("Filtered = %d, want 1", s.Filtered)
	}
	if s.NotStarted != 1 {
		t.Errorf("NotStarted = %d, want 1", s.NotStarted)
	}
	if s.Processed != 4 {
		t.Errorf("Processed = %d, want 4", s.Processed)
	}
	if s.Matches != 4 {
		t.Errorf("Matches = %d, want 4", s.Matches)
	}
	if s.Sent != 1 || s.SkippedDisabled != 1 || s.SendFailures != 1 {
		t.Errorf("sent/skipped/failed = %d/%d/%d", s.Sent, s.SkippedDisabled, s.SendFailures)
	}
	if s.Advanced != 2 {
		t.Errorf("Advanced = %d, want 2", s.Advanced)
	}
	if s.MatchErrors != 1 || s.PersistErrors != 1 {
		t.Errorf("match/persist errors = %d/%d", s.MatchErrors, s.PersistErrors)
	}
	if s.Errors != 2 {
		t.Errorf("Errors = %d, want 2 (one per failing search)", s.Errors)
	}
	if len(s.Searches) != 4 {
		t.Fatalf("Searches = %d entries, want 4", len(s.Searches))
	}
	if s.Searches[2].Error == "" {
		t.Error("failed search entry should carry an error message")
	}
}

func TestOutcomeErr(t *testing.T) {
	var o Outcome
	if o.Err() != nil || o.HasError() {
		t.Error("clean outcome must report no error")
	}
	o.AddError(nil)
	if o.HasError() {
		t.Error("AddError(nil) must be a no-op")
	}
}
