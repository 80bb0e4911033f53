package listing

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/searchagent/internal/db"
	"github.com/kailas-cloud/searchagent/internal/domain"
	domlisting "github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/repository/keyspace"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn      func(ctx context.Context, items []db.HashSetItem) error
	createIndexFn    func(ctx context.Context, def *db.Schema) error
	dropIndexFn      func(ctx context.Context, name string) error
	indexExistsFn    func(ctx context.Context, name string) (bool, error)
	searchFilteredFn func(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.Schema) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchFiltered(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error) {
	if m.searchFilteredFn != nil {
		return m.searchFilteredFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, keyspace.New("sa")), ms
}

func testListing(t *testing.T, id string, updated time.Time) domlisting.Listing {
	t.Helper()
	l, err := domlisting.New(id, domlisting.Attrs{
		Title:        "House " + id,
		City:         "Aarhus",
		PropertyType: "villa",
		Price:        2500000,
		Area:         140.5,
		Rooms:        5,
	}, []domain.Section{domain.SectionMarketplace, domain.SectionPremium}, updated.Add(-time.Hour), updated)
	if err != nil {
		t.Fatalf("new listing: %v", err)
	}
	return l
}

func hit(l domlisting.Listing) db.SearchEntry {
	return db.SearchEntry{Key: "sa:listing:" + l.ID(), Fields: listingToHash(l)}
}
