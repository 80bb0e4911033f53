package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/searchagent/internal/db"
)

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", lastRunKey)).
		Return(mock.Result(mock.RedisBlobString(`{"run_id":"r1"}`)))

	data, err := s.Get(context.Background(), lastRunKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"run_id":"r1"}` {
		t.Errorf("data = %s", data)
	}
}

func TestGetMissing(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", lastRunKey)).Return(mock.Result(mock.RedisNil()))

	if _, err := s.Get(context.Background(), lastRunKey); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestGetFailure(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", lastRunKey)).Return(mock.ErrorResult(errors.New("broken pipe")))

	_, err := s.Get(context.Background(), lastRunKey)
	wantDBError(t, err, db.OpGet)
}

func TestSetWithTTL(t *testing.T) {
	tests := []struct {
		name  string
		ttl   time.Duration
		match []string
	}{
		{"expiring", 30 * 24 * time.Hour, []string{"SET", lastRunKey, "{}", "EX", "2592000"}},
		{"forever", 0, []string{"SET", lastRunKey, "{}"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match(tc.match...)).Return(mock.Result(mock.RedisString("OK")))

			if err := s.SetWithTTL(context.Background(), lastRunKey, []byte("{}"), tc.ttl); err != nil {
				t.Fatalf("SetWithTTL: %v", err)
			}
		})
	}
}

func TestSetWithTTLFailure(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), cmdIs("SET")).Return(mock.ErrorResult(context.Canceled))

	err := s.SetWithTTL(context.Background(), lastRunKey, []byte("{}"), time.Hour)
	wantDBError(t, err, db.OpSet)
}
