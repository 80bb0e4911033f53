package cli

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
	"github.com/kailas-cloud/searchagent/internal/domain/search/criteria"
	"github.com/kailas-cloud/searchagent/internal/domain/storedsearch"
)

type fixtureFile struct {
	Principals []principalYAML `yaml:"principals"`
	Listings   []listingYAML   `yaml:"listings"`
	Searches   []searchYAML    `yaml:"searches"`
}

type principalYAML struct {
	ID      string `yaml:"id"`
	Email   string `yaml:"email"`
	Name    string `yaml:"name"`
	Locale  string `yaml:"locale"`
	Section string `yaml:"section"`
}

type listingYAML struct {
	ID           string    `yaml:"id"`
	Title        string    `yaml:"title"`
	City         string    `yaml:"city"`
	Address      string    `yaml:"address"`
	PropertyType string    `yaml:"property_type"`
	URL          string    `yaml:"url"`
	Price        float64   `yaml:"price"`
	Area         float64   `yaml:"area"`
	Rooms        int       `yaml:"rooms"`
	Sections     []string  `yaml:"sections"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

type searchYAML struct {
	Principal string            `yaml:"principal"`
	Section   string            `yaml:"section"`
	Enabled   *bool             `yaml:"enabled"` // default true
	Watermark *time.Time        `yaml:"watermark"`
	Criteria  criteria.Criteria `yaml:"criteria"`
}

// fixture is a validated import data set.
type fixture struct {
	principals []principal.Principal
	listings   []listing.Listing
	searches   []storedsearch.StoredSearch
}

// parseFixture decodes and validates a YAML fixture. Searches reference principals by id.
func parseFixture(data []byte) (fixture, error) {
	var raw fixtureFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fixture{}, fmt.Errorf("parse fixture: %w", err)
	}

	var f fixture
	byID := make(map[string]principal.Principal, len(raw.Principals))
	for i, rp := range raw.Principals {
		p, err := principal.New(rp.ID, rp.Email, rp.Name, rp.Locale, domain.Section(rp.Section))
		if err != nil {
			return fixture{}, fmt.Errorf("principals[%d]: %w", i, err)
		}
		if _, dup := byID[p.ID()]; dup {
			return fixture{}, fmt.Errorf("principals[%d]: duplicate id %q", i, p.ID())
		}
		byID[p.ID()] = p
		f.principals = append(f.principals, p)
	}

	for i, rl := range raw.Listings {
		sections := make([]domain.Section, 0, len(rl.Sections))
		for _, s := range rl.Sections {
			sections = append(sections, domain.Section(s))
		}
		l, err := listing.New(rl.ID, listing.Attrs{
			Title:        rl.Title,
			City:         rl.City,
			Address:      rl.Address,
			PropertyType: rl.PropertyType,
			URL:          rl.URL,
			Price:        rl.Price,
			Area:         rl.Area,
			Rooms:        rl.Rooms,
		}, sections, rl.CreatedAt, rl.UpdatedAt)
		if err != nil {
			return fixture{}, fmt.Errorf("listings[%d]: %w", i, err)
		}
		f.listings = append(f.listings, l)
	}

	seen := make(map[string]bool, len(raw.Searches))
	for i, rs := range raw.Searches {
		s, err := buildSearch(rs, byID)
		if err != nil {
			return fixture{}, fmt.Errorf("searches[%d]: %w", i, err)
		}
		if seen[s.ID()] {
			return fixture{}, fmt.Errorf("searches[%d]: duplicate search %q", i, s.ID())
		}
		seen[s.ID()] = true
		f.searches = append(f.searches, s)
	}

	return f, nil
}

func buildSearch(rs searchYAML, principals map[string]principal.Principal) (storedsearch.StoredSearch, error) {
	p, ok := principals[rs.Principal]
	if !ok {
		return storedsearch.StoredSearch{}, fmt.Errorf("principal %q: %w", rs.Principal, domain.ErrPrincipalNotFound)
	}
	section, err := domain.ParseSection(rs.Section)
	if err != nil {
		return storedsearch.StoredSearch{}, err
	}
	owner := storedsearch.PremiumOwner(p)
	if section == domain.SectionMarketplace {
		owner = storedsearch.MarketplaceOwner(p)
	}

	enabled := true
	if rs.Enabled != nil {
		enabled = *rs.Enabled
	}
	s, err := storedsearch.New(owner, rs.Criteria, enabled)
	if err != nil {
		return storedsearch.StoredSearch{}, err
	}
	if rs.Watermark != nil {
		s, _ = s.WithWatermark(*rs.Watermark)
	}
	return s, nil
}
