package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/domain/search/criteria"
	"github.com/kailas-cloud/searchagent/internal/domain/storedsearch"
)

var testNow = time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// testWatermark is the watermark a run at testNow records: the millisecond before the clock.
var testWatermark = testNow.Add(-time.Millisecond)

// --- Mocks ---

type mockStore struct {
	mu       sync.Mutex
	searches []storedsearch.StoredSearch
	loadErr  error
	saveErr  func(id string) error
	saved    []storedsearch.StoredSearch
}

func (m *mockStore) LoadAll(_ context.Context) ([]storedsearch.StoredSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]storedsearch.StoredSearch, len(m.searches))
	copy(out, m.searches)
	return out, nil
}

func (m *mockStore) Save(_ context.Context, s storedsearch.StoredSearch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		if err := m.saveErr(s.ID()); err != nil {
			return err
		}
	}
	m.saved = append(m.saved, s)
	for i := range m.searches {
		if m.searches[i].ID() == s.ID() {
			m.searches[i] = s
		}
	}
	return nil
}

func (m *mockStore) savedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.saved))
	for i, s := range m.saved {
		ids[i] = s.ID()
	}
	return ids
}

type matchCall struct {
	section   domain.Section
	watermark time.Time
}

// mockMatcher serves a fixed inventory per section, honoring the watermark.
type mockMatcher struct {
	mu        sync.Mutex
	inventory map[domain.Section][]listing.Listing
	errFor    map[string]error // keyed by criteria city
	matchFn   func(ctx context.Context) error
	calls     []matchCall
}

func (m *mockMatcher) Match(
	ctx context.Context, section domain.Section, c criteria.Criteria, wm time.Time,
) ([]listing.Listing, error) {
	m.mu.Lock()
	m.calls = append(m.calls, matchCall{section: section, watermark: wm})
	m.mu.Unlock()

	if m.matchFn != nil {
		if err := m.matchFn(ctx); err != nil {
			return nil, err
		}
	}
	if err := m.errFor[c.City]; err != nil {
		return nil, err
	}
	var out []listing.Listing
	for _, l := range m.inventory[section] {
		if wm.IsZero() || l.UpdatedAt().After(wm) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockMatcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type sendCall struct {
	email    string
	locale   language.Tag
	section  domain.Section
	listings int
}

type mockChannel struct {
	mu    sync.Mutex
	err   error
	sends []sendCall
}

func (m *mockChannel) Send(
	_ context.Context, p principal.Principal, locale language.Tag,
	section domain.Section, ls []listing.Listing,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, sendCall{email: p.Email(), locale: locale, section: section, listings: len(ls)})
	return nil
}

type mockRecorder struct {
	last *run.Summary
}

func (m *mockRecorder) SaveLast(_ context.Context, s run.Summary) error {
	m.last = &s
	return nil
}

// recordingProgress captures events as text lines.
type recordingProgress struct {
	lines []string
}

func (p *recordingProgress) RunStarted(total int) {
	p.lines = append(p.lines, fmt.Sprintf("start %d", total))
}

func (p *recordingProgress) SearchStarted(i, total int, section domain.Section, email string) {
	p.lines = append(p.lines, fmt.Sprintf("exec %d/%d %s %s", i, total, section, email))
}

func (p *recordingProgress) SearchFinished(o run.Outcome) {
	p.lines = append(p.lines, fmt.Sprintf("done %s %d %s", o.SearchID, o.Matches, o.Dispatch))
}

func (p *recordingProgress) RunFinished(s run.Summary) {
	p.lines = append(p.lines, fmt.Sprintf("finish %d", s.Processed))
}

// --- Fixtures ---

func newPrincipal(id, email, locale string) principal.Principal {
	return principal.Reconstruct(id, email, "User "+id, locale, "")
}

func newSearch(
	t *testing.T, owner storedsearch.Owner, city string, wm time.Time, enabled bool,
) storedsearch.StoredSearch {
	t.Helper()
	return storedsearch.Reconstruct(owner, criteria.Criteria{City: city}, wm, enabled)
}

func newListings(t *testing.T, prefix string, n int, section domain.Section, updated time.Time) []listing.Listing {
	t.Helper()
	out := make([]listing.Listing, n)
	for i := range n {
		l, err := listing.New(
			fmt.Sprintf("%s%d", prefix, i),
			listing.Attrs{Title: "House", City: "Aarhus", Price: 1e6},
			[]domain.Section{section},
			updated.Add(-time.Hour), updated,
		)
		if err != nil {
			t.Fatalf("listing.New: %v", err)
		}
		out[i] = l
	}
	return out
}

func newTestService(ms *mockStore, mm *mockMatcher, mc *mockChannel) *Service {
	svc := New(ms, mm, mc).WithClock(fixedClock)
	svc.newID = func() string { return "run-1" }
	return svc
}
