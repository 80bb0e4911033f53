package storedsearch

import (
	"context"
	"maps"
	"sort"
	"strings"
	"testing"

	"github.com/kailas-cloud/searchagent/internal/db"
	"github.com/kailas-cloud/searchagent/internal/repository/keyspace"
)

// mockStore implements the consumer interface for tests, backed by an in-memory hash map.
type mockStore struct {
	hashes map[string]map[string]string

	hsetFn    func(ctx context.Context, key string, fields map[string]string) error
	scanErr   error
	hgetMulti int
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	maps.Copy(h, fields)
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, it := range items {
		if err := m.HSet(ctx, it.Key, it.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	m.hgetMulti++
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.hashes[k]
		if out[i] == nil {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, keyspace.New("sa")), ms
}

func (m *mockStore) putPrincipal(id, email string) {
	m.hashes["sa:principal:"+id] = map[string]string{"id": id, "email": email, "locale": "da"}
}
