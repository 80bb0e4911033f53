package principal

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/searchagent/internal/db"
	"github.com/kailas-cloud/searchagent/internal/domain"
	domprincipal "github.com/kailas-cloud/searchagent/internal/domain/principal"
	"github.com/kailas-cloud/searchagent/internal/repository/keyspace"
)

// store is the consumer interface for principals (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
}

// Repo stores principals as hashes.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a principal repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// Get retrieves a principal by id.
func (r *Repo) Get(ctx context.Context, id string) (domprincipal.Principal, error) {
	m, err := r.store.HGetAll(ctx, r.keys.Principal(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domprincipal.Principal{}, domain.ErrPrincipalNotFound
		}
		return domprincipal.Principal{}, fmt.Errorf("hgetall principal %s: %w", id, err)
	}
	return FromHash(m)
}

// UpsertBatch writes principals in one pipeline.
func (r *Repo) UpsertBatch(ctx context.Context, ps []domprincipal.Principal) error {
	items := make([]db.HashSetItem, len(ps))
	for i, p := range ps {
		items[i] = db.HashSetItem{Key: r.keys.Principal(p.ID()), Fields: principalToHash(p)}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset principals: %w", err)
	}
	return nil
}
