package storedsearch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchagent/internal/db"
	domprincipal "github.com/kailas-cloud/searchagent/internal/domain/principal"
	domss "github.com/kailas-cloud/searchagent/internal/domain/storedsearch"
	"github.com/kailas-cloud/searchagent/internal/logger"
	"github.com/kailas-cloud/searchagent/internal/repository/keyspace"
	"github.com/kailas-cloud/searchagent/internal/repository/principal"
)

// store is the consumer interface for stored searches (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/notify.SearchStore.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a stored search repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// LoadAll returns every stored search with its owner hydrated, in key order.
// Records whose owner cannot be resolved or whose fields are corrupt are skipped with a warning;
// they could never be executed.
func (r *Repo) LoadAll(ctx context.Context) ([]domss.StoredSearch, error) {
	keys, err := r.store.Scan(ctx, r.keys.StoredSearchPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan stored searches: %w", err)
	}
	if len(keys) == 0 {
		return []domss.StoredSearch{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi stored searches: %w", err)
	}

	log := logger.FromContext(ctx)

	rows := make([]row, 0, len(hashes))
	rowKeys := make([]string, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		rw, err := rowFromHash(m)
		if err != nil {
			log.Warn("skipping corrupt stored search", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		rows = append(rows, rw)
		rowKeys = append(rowKeys, keys[i])
	}

	principals, err := r.loadPrincipals(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := make([]domss.StoredSearch, 0, len(rows))
	for i, rw := range rows {
		owner, err := domss.OwnerFrom(lookup(principals, rw.marketplaceID), lookup(principals, rw.premiumID))
		if err != nil {
			log.Warn("skipping stored search without owner", zap.String("key", rowKeys[i]), zap.Error(err))
			continue
		}
		out = append(out, domss.Reconstruct(owner, rw.criteria, rw.watermark, rw.enabled).WithRef(rowKeys[i]))
	}

	return out, nil
}

// loadPrincipals fetches every referenced principal in one round-trip. Missing principals are absent from the map.
func (r *Repo) loadPrincipals(ctx context.Context, rows []row) (map[string]domprincipal.Principal, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, rw := range rows {
		for _, id := range []string{rw.marketplaceID, rw.premiumID} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return map[string]domprincipal.Principal{}, nil
	}

	pkeys := make([]string, len(ids))
	for i, id := range ids {
		pkeys[i] = r.keys.Principal(id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, pkeys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi principals: %w", err)
	}

	out := make(map[string]domprincipal.Principal, len(ids))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		p, err := principal.FromHash(m)
		if err != nil {
			logger.FromContext(ctx).Warn("skipping corrupt principal", zap.String("key", pkeys[i]), zap.Error(err))
			continue
		}
		out[ids[i]] = p
	}
	return out, nil
}

func lookup(ps map[string]domprincipal.Principal, id string) *domprincipal.Principal {
	if id == "" {
		return nil
	}
	p, ok := ps[id]
	if !ok {
		return nil
	}
	return &p
}

// Save persists the watermark of s. For a loaded search only the watermark field of the
// record it was read from is written, so concurrent profile edits survive. A search without
// a storage ref is written in full under its identity key.
func (r *Repo) Save(ctx context.Context, s domss.StoredSearch) error {
	if s.Ref() == "" {
		fields, err := searchToHash(s)
		if err != nil {
			return err
		}
		if err := r.store.HSet(ctx, r.keys.StoredSearch(s.ID()), fields); err != nil {
			return fmt.Errorf("hset stored search %s: %w", s.ID(), err)
		}
		return nil
	}

	wm, ok := s.Watermark()
	if !ok {
		return nil
	}
	if err := r.store.HSet(ctx, s.Ref(), watermarkHash(wm)); err != nil {
		return fmt.Errorf("hset watermark %s: %w", s.Ref(), err)
	}
	return nil
}

// SaveBatch writes several stored searches in one pipeline.
func (r *Repo) SaveBatch(ctx context.Context, searches []domss.StoredSearch) error {
	items := make([]db.HashSetItem, 0, len(searches))
	var errs []error
	for _, s := range searches {
		fields, err := searchToHash(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("stored search %s: %w", s.ID(), err))
			continue
		}
		items = append(items, db.HashSetItem{Key: r.keys.StoredSearch(s.ID()), Fields: fields})
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset stored searches: %w", err)
	}
	return nil
}
