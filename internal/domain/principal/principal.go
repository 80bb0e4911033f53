package principal

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchagent/internal/domain"
)

// Principal is a registered user as seen by the notification engine.
type Principal struct {
	id              string
	email           string
	name            string
	preferredLocale string
	section         domain.Section
}

// New validates and creates a Principal.
// Email is required and lowercased; the locale is kept verbatim and resolved by the mail layer.
func New(id, email, name, preferredLocale string, section domain.Section) (Principal, error) {
	if id == "" {
		return Principal{}, fmt.Errorf("principal id is required: %w", domain.ErrInvalidPrincipal)
	}
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return Principal{}, fmt.Errorf("principal %s: email %q: %w", id, email, domain.ErrInvalidPrincipal)
	}
	if section != "" {
		if _, err := domain.ParseSection(string(section)); err != nil {
			return Principal{}, fmt.Errorf("principal %s: %w", id, err)
		}
	}
	return Principal{
		id:              id,
		email:           email,
		name:            strings.TrimSpace(name),
		preferredLocale: strings.TrimSpace(preferredLocale),
		section:         section,
	}, nil
}

// Reconstruct creates a Principal without validation (storage hydration).
func Reconstruct(id, email, name, preferredLocale string, section domain.Section) Principal {
	return Principal{id: id, email: email, name: name, preferredLocale: preferredLocale, section: section}
}

// ID returns the principal identifier.
func (p Principal) ID() string { return p.id }

// Email returns the normalized email address.
func (p Principal) Email() string { return p.email }

// Name returns the display name, possibly empty.
func (p Principal) Name() string { return p.name }

// PreferredLocale returns the raw preferred locale (e.g. "da", "en-GB"), possibly empty.
func (p Principal) PreferredLocale() string { return p.preferredLocale }

// RegisteredOn returns the section the principal registered on, possibly empty.
func (p Principal) RegisteredOn() domain.Section { return p.section }

// NormalizeEmail trims and lowercases an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
