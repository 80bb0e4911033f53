package domain

import "fmt"

// Section is one of the mutually exclusive market contexts of the site.
type Section string

// Site sections.
const (
	SectionMarketplace Section = "marketplace"
	SectionPremium     Section = "premium"
)

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionMarketplace, SectionPremium:
		return Section(s), nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidSection)
	}
}

// String returns the section name.
func (s Section) String() string { return string(s) }
