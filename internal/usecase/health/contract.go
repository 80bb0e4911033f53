package health

import "context"

// Pinger reaches the listing and search store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker verifies the notification channel can reach its transport.
type Checker interface {
	Check(ctx context.Context) error
}
