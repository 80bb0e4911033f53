package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
)

func reporterScenario(r *textReporter) {
	outcomes := []run.Outcome{
		{
			SearchID: "marketplace:u1", Section: domain.SectionMarketplace, Email: "ann@example.com",
			Attempted: true, Matches: 3, Advanced: true, Dispatch: run.DispatchSent,
		},
		run.NewFiltered("premium:u9", domain.SectionPremium, "zed@example.com"),
		{
			SearchID: "premium:u2", Section: domain.SectionPremium, Email: "bob@example.com",
			Attempted: true, Matches: 1, Advanced: true, Dispatch: run.DispatchSkippedDisabled,
		},
		{
			SearchID: "premium:u3", Section: domain.SectionPremium, Email: "carol@example.com",
			Attempted: true, Dispatch: run.DispatchNone,
			Errs: []error{&run.MatchError{Err: errors.New("index missing")}},
		},
	}

	summary := run.Summary{Total: len(outcomes)}
	r.RunStarted(summary.Total)
	for i, o := range outcomes {
		if !o.Filtered {
			r.SearchStarted(i+1, summary.Total, o.Section, o.Email)
		}
		r.SearchFinished(o)
		summary.Add(o)
	}
	r.RunFinished(summary)
}

func TestTextReporterGolden(t *testing.T) {
	var buf bytes.Buffer
	reporterScenario(newTextReporter(&buf, false))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "reporter_run", buf.Bytes())
}

func TestTextReporterNoSearches(t *testing.T) {
	var buf bytes.Buffer
	r := newTextReporter(&buf, false)
	r.RunStarted(0)
	r.RunFinished(run.Summary{})

	assert.Equal(t, "Found no stored searches\nDone\n", buf.String())
}

func TestTextReporterQuiet(t *testing.T) {
	var buf bytes.Buffer
	reporterScenario(newTextReporter(&buf, true))

	assert.Empty(t, buf.String())
}

func TestTextReporterSendFailure(t *testing.T) {
	var buf bytes.Buffer
	r := newTextReporter(&buf, false)
	r.SearchFinished(run.Outcome{
		Attempted: true, Matches: 2, Advanced: true, Dispatch: run.DispatchFailed,
		Errs: []error{&run.SendError{Err: errors.New("smtp 451")}},
	})

	assert.Equal(t, "Found 2 houses\nError: send notification failed: smtp 451\n", buf.String())
}
