package storedsearch

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/search/criteria"
)

// StoredSearch is a saved listing filter for one (principal, section) pair with a
// watermark marking the last instant up to which matches were reported.
type StoredSearch struct {
	owner     Owner
	criteria  criteria.Criteria
	watermark time.Time
	enabled   bool

	// ref is the storage key the search was loaded from, empty until persisted.
	ref string
}

// New validates and creates a StoredSearch with no watermark.
func New(owner Owner, c criteria.Criteria, enabled bool) (StoredSearch, error) {
	if owner.IsZero() {
		return StoredSearch{}, domain.ErrNoOwner
	}
	if err := c.Validate(); err != nil {
		return StoredSearch{}, fmt.Errorf("stored search %s: %w", MakeID(owner.Section(), owner.Principal().ID()), err)
	}
	return StoredSearch{owner: owner, criteria: c, enabled: enabled}, nil
}

// Reconstruct creates a StoredSearch without validation (storage hydration).
// A zero watermark means the search has never advanced.
func Reconstruct(owner Owner, c criteria.Criteria, watermark time.Time, enabled bool) StoredSearch {
	return StoredSearch{owner: owner, criteria: c, watermark: watermark, enabled: enabled}
}

// WithRef returns a copy bound to the storage record it was loaded from.
func (s StoredSearch) WithRef(ref string) StoredSearch {
	s.ref = ref
	return s
}

// Ref returns the storage key set by WithRef.
func (s StoredSearch) Ref() string { return s.ref }

// MakeID builds the identity of a stored search from its section and principal id.
func MakeID(section domain.Section, principalID string) string {
	return string(section) + ":" + principalID
}

// ID returns the "<section>:<principal id>" identity.
func (s StoredSearch) ID() string { return MakeID(s.owner.Section(), s.owner.Principal().ID()) }

// Owner returns the owning principal tagged with its section.
func (s StoredSearch) Owner() Owner { return s.owner }

// Section is shorthand for Owner().Section().
func (s StoredSearch) Section() domain.Section { return s.owner.Section() }

// Criteria returns the saved filter.
func (s StoredSearch) Criteria() criteria.Criteria { return s.criteria }

// Enabled reports whether notifications may be sent for this search.
func (s StoredSearch) Enabled() bool { return s.enabled }

// Watermark returns the watermark and whether one has been set.
func (s StoredSearch) Watermark() (time.Time, bool) {
	return s.watermark, !s.watermark.IsZero()
}

// WithWatermark returns a copy advanced to t. The watermark never moves backward:
// if t is not after the current watermark the copy is unchanged and advanced is false.
func (s StoredSearch) WithWatermark(t time.Time) (next StoredSearch, advanced bool) {
	if t.IsZero() || (!s.watermark.IsZero() && !t.After(s.watermark)) {
		return s, false
	}
	s.watermark = t
	return s, true
}
