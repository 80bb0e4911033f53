package redis

import (
	"errors"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/searchagent/internal/db"
)

const (
	principalKey = "searchagent:principal:u1"
	listingKey   = "searchagent:listing:h1"
	lastRunKey   = "searchagent:run:last"
	listingIdx   = "searchagent:listings:idx"
)

// newMockStore returns a Store backed by a gomock rueidis client.
func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return NewStoreForTest(c), c
}

func wantDBError(t *testing.T, err error, op string) {
	t.Helper()
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("want *db.Error, got %T (%v)", err, err)
	}
	if dbErr.Op != op {
		t.Errorf("Op = %q, want %q", dbErr.Op, op)
	}
}

func cmdIs(name string) gomock.Matcher {
	return mock.MatchFn(func(cmd []string) bool { return len(cmd) > 0 && cmd[0] == name })
}
