package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchagent/internal/db"
	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/repository/keyspace"
)

// store is the consumer interface for the run log (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo keeps the summary of the most recent run.
type Repo struct {
	store store
	keys  keyspace.Keyspace
	ttl   time.Duration
}

// New creates a run log repository. ttl <= 0 keeps the summary until overwritten.
func New(s store, keys keyspace.Keyspace, ttl time.Duration) *Repo {
	return &Repo{store: s, keys: keys, ttl: ttl}
}

// SaveLast stores s as the latest run summary.
func (r *Repo) SaveLast(ctx context.Context, s run.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.keys.LastRun(), data, r.ttl); err != nil {
		return fmt.Errorf("save run summary %s: %w", s.RunID, err)
	}
	return nil
}

// Last returns the latest run summary or domain.ErrNotFound.
func (r *Repo) Last(ctx context.Context) (run.Summary, error) {
	data, err := r.store.Get(ctx, r.keys.LastRun())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return run.Summary{}, domain.ErrNotFound
		}
		return run.Summary{}, fmt.Errorf("get run summary: %w", err)
	}
	var s run.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return run.Summary{}, fmt.Errorf("unmarshal run summary: %w", err)
	}
	return s, nil
}
