package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchagent/internal/db"
	"github.com/kailas-cloud/searchagent/internal/domain"
	domlisting "github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/search/criteria"
	"github.com/kailas-cloud/searchagent/internal/repository/keyspace"
)

const (
	defaultPageSize = 100
	// maxResults mirrors the RediSearch MAXSEARCHRESULTS default; paging past it is rejected by the server.
	maxResults = 10000
)

// ErrTooManyMatches is returned by Match when more listings match than one query can page through.
var ErrTooManyMatches = errors.New("too many matching listings")

// store is the consumer interface for listings (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.Schema) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchFiltered(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

// Repo implements usecase/notify.Matcher over the listing index.
type Repo struct {
	store    store
	keys     keyspace.Keyspace
	pageSize int
}

// New creates a listing repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys, pageSize: defaultPageSize}
}

// WithPageSize sets the FT.SEARCH page size used by Match.
func (r *Repo) WithPageSize(n int) *Repo {
	if n > 0 {
		r.pageSize = n
	}
	return r
}

// Match returns the listings of section satisfying c and updated strictly after watermark
// (zero watermark = no lower bound), newest first. A result that does not fit under
// maxResults is an error rather than a truncated list.
func (r *Repo) Match(
	ctx context.Context, section domain.Section, c criteria.Criteria, watermark time.Time,
) ([]domlisting.Listing, error) {
	expr, err := buildExpression(section, c, watermark)
	if err != nil {
		return nil, err
	}

	var (
		out    []domlisting.Listing
		offset int
		total  int
	)
	for offset < maxResults {
		limit := min(r.pageSize, maxResults-offset)
		res, err := r.store.SearchFiltered(ctx, &db.FilterQuery{
			IndexName: r.keys.ListingIndex(),
			Filters:   expr,
			Offset:    offset,
			Limit:     limit,
			SortBy:    fieldUpdatedAt,
			SortDesc:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("search listings for %s: %w", section, err)
		}

		for _, e := range res.Entries {
			l, err := listingFromHash(e.Fields)
			if err != nil {
				return nil, fmt.Errorf("parse listing %s: %w", e.Key, err)
			}
			out = append(out, l)
		}

		offset += len(res.Entries)
		total = res.Total
		if len(res.Entries) == 0 || offset >= total {
			break
		}
	}
	if offset < total {
		return nil, fmt.Errorf("%s: %w (%d of %d fetched)", section, ErrTooManyMatches, offset, total)
	}

	return out, nil
}

// EnsureIndex creates the listing index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) (created bool, err error) {
	exists, err := r.store.IndexExists(ctx, r.keys.ListingIndex())
	if err != nil {
		return false, fmt.Errorf("check listing index: %w", err)
	}
	if exists {
		return false, nil
	}
	return r.create(ctx)
}

// Reindex drops and recreates the listing index. Documents are kept and re-indexed by the server.
func (r *Repo) Reindex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.keys.ListingIndex()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop listing index: %w", err)
	}
	_, err := r.create(ctx)
	return err
}

func (r *Repo) create(ctx context.Context) (bool, error) {
	def, err := buildIndex(r.keys)
	if err != nil {
		return false, fmt.Errorf("build listing index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create listing index: %w", err)
	}
	return true, nil
}

// UpsertBatch writes listings in one pipeline.
func (r *Repo) UpsertBatch(ctx context.Context, ls []domlisting.Listing) error {
	if len(ls) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(ls))
	for i, l := range ls {
		items[i] = db.HashSetItem{Key: r.keys.Listing(l.ID()), Fields: listingToHash(l)}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset listings: %w", err)
	}
	return nil
}
