package redis

import (
	"context"

	"github.com/kailas-cloud/searchagent/internal/db"
)

// CreateIndex runs FT.CREATE for the schema.
// An invalid schema is rejected before anything is sent to the server.
func (s *Store) CreateIndex(ctx context.Context, schema *db.Schema) error {
	args, err := schema.Args()
	if err != nil {
		return err
	}

	err = s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case isRedisErr(err, "index already exists"):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
}

// DropIndex removes the index definition. Indexed hashes are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	err := s.do(ctx, s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()).Error()
	switch {
	case err == nil:
		return nil
	case isRedisErr(err, unknownIndex):
		return db.ErrIndexNotFound
	default:
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
}

// IndexExists probes the index with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case isRedisErr(err, unknownIndex):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

const unknownIndex = "unknown index name"
