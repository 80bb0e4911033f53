package notify

import (
	"time"

	"github.com/kailas-cloud/searchagent/internal/domain/principal"
)

// RunConfig controls one run.
type RunConfig struct {
	// SendNotifications enables dispatch. Off by default: a plain run only advances watermarks.
	SendNotifications bool
	// DryRun suppresses both watermark persistence and dispatch.
	DryRun bool
	// OnlyPrincipalEmail restricts the run to searches owned by this address (case-insensitive).
	OnlyPrincipalEmail string
	// Workers is the number of searches executed concurrently; <= 0 uses the service default.
	Workers int
	// SearchTimeout bounds the listing query of each search; 0 means no bound.
	SearchTimeout time.Duration
	// Progress receives lifecycle events; nil means none.
	Progress Progress
}

// excludes reports whether the principal filter rules out email.
func (c RunConfig) excludes(email string) bool {
	only := principal.NormalizeEmail(c.OnlyPrincipalEmail)
	return only != "" && only != principal.NormalizeEmail(email)
}
