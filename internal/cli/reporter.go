package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/usecase/notify"
)

var _ notify.Progress = (*textReporter)(nil)

// textReporter prints run progress as operator-facing lines.
type textReporter struct {
	w     io.Writer
	quiet bool
}

func newTextReporter(w io.Writer, quiet bool) *textReporter {
	return &textReporter{w: w, quiet: quiet}
}

func (r *textReporter) printf(format string, args ...any) {
	if r.quiet {
		return
	}
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

// RunStarted implements notify.Progress.
func (r *textReporter) RunStarted(total int) {
	if total == 0 {
		r.printf("Found no stored searches")
		return
	}
	r.printf("Found %d stored searches", total)
}

// SearchStarted implements notify.Progress.
func (r *textReporter) SearchStarted(index, total int, section domain.Section, email string) {
	r.printf("Executing %d/%d: %s for %s", index, total, section, email)
}

// SearchFinished implements notify.Progress.
func (r *textReporter) SearchFinished(o run.Outcome) {
	if o.Filtered || !o.Attempted {
		return
	}
	if !errors.Is(o.Err(), run.ErrMatch) {
		r.printf("Found %d houses", o.Matches)
		if o.Dispatch == run.DispatchSkippedDisabled {
			r.printf("Search disabled, not sending mail")
		}
	}
	for _, err := range o.Errs {
		r.printf("Error: %v", err)
	}
}

// RunFinished implements notify.Progress.
func (r *textReporter) RunFinished(s run.Summary) {
	if s.Total > 0 {
		r.printf("Processed %d, filtered %d, not started %d, sent %d, errors %d",
			s.Processed, s.Filtered, s.NotStarted, s.Sent, s.Errors)
	}
	r.printf("Done")
}
