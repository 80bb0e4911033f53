package notify

import (
	"context"
	"time"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/domain/search/criteria"
	"github.com/kailas-cloud/searchagent/internal/domain/storedsearch"
)

// SearchStore loads and persists stored searches.
type SearchStore interface {
	LoadAll(ctx context.Context) ([]storedsearch.StoredSearch, error)
	Save(ctx context.Context, s storedsearch.StoredSearch) error
}

// Matcher finds listings of a section that satisfy criteria and were updated after watermark.
// A zero watermark means no lower bound.
type Matcher interface {
	Match(ctx context.Context, section domain.Section, c criteria.Criteria, watermark time.Time) ([]listing.Listing, error)
}

// Channel delivers one new-listings notification.
type Channel interface {
	Send(
		ctx context.Context, p principal.Principal, locale language.Tag,
		section domain.Section, listings []listing.Listing,
	) error
}

// RunRecorder keeps the latest run summary for inspection.
type RunRecorder interface {
	SaveLast(ctx context.Context, s run.Summary) error
}

// Progress receives run lifecycle events. Calls are serialized by the service.
type Progress interface {
	RunStarted(total int)
	SearchStarted(index, total int, section domain.Section, email string)
	SearchFinished(o run.Outcome)
	RunFinished(s run.Summary)
}

// NopProgress ignores all events.
type NopProgress struct{}

// RunStarted implements Progress.
func (NopProgress) RunStarted(int) {}

// SearchStarted implements Progress.
func (NopProgress) SearchStarted(int, int, domain.Section, string) {}

// SearchFinished implements Progress.
func (NopProgress) SearchFinished(run.Outcome) {}

// RunFinished implements Progress.
func (NopProgress) RunFinished(run.Summary) {}
