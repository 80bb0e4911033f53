package listing

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/kailas-cloud/searchagent/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Listing is a house offered on one or both site sections (immutable value object).
type Listing struct {
	id           string
	title        string
	city         string
	address      string
	propertyType string
	url          string
	price        float64
	area         float64
	rooms        int
	sections     []domain.Section
	createdAt    time.Time
	updatedAt    time.Time
}

// Attrs groups the descriptive listing attributes.
type Attrs struct {
	Title        string
	City         string
	Address      string
	PropertyType string
	URL          string
	Price        float64
	Area         float64
	Rooms        int
}

// New validates and creates a Listing.
// A zero updatedAt defaults to createdAt; a listing must be published on at least one section.
func New(id string, attrs Attrs, sections []domain.Section, createdAt, updatedAt time.Time) (Listing, error) {
	if id == "" || len(id) > 256 || !idRegex.MatchString(id) {
		return Listing{}, fmt.Errorf("listing id %q: %w", id, domain.ErrInvalidListing)
	}
	if len(sections) == 0 {
		return Listing{}, fmt.Errorf("listing %s is not published on any section: %w", id, domain.ErrInvalidListing)
	}
	for _, s := range sections {
		if _, err := domain.ParseSection(string(s)); err != nil {
			return Listing{}, fmt.Errorf("listing %s: %w", id, err)
		}
	}
	if attrs.Price < 0 || attrs.Area < 0 || attrs.Rooms < 0 {
		return Listing{}, fmt.Errorf("listing %s has negative price, area or rooms: %w", id, domain.ErrInvalidListing)
	}
	if createdAt.IsZero() {
		return Listing{}, fmt.Errorf("listing %s: created_at is required: %w", id, domain.ErrInvalidListing)
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	if updatedAt.Before(createdAt) {
		return Listing{}, fmt.Errorf("listing %s: updated_at before created_at: %w", id, domain.ErrInvalidListing)
	}
	return Reconstruct(id, attrs, sections, createdAt, updatedAt), nil
}

// Reconstruct creates a Listing without validation (storage hydration).
func Reconstruct(id string, attrs Attrs, sections []domain.Section, createdAt, updatedAt time.Time) Listing {
	return Listing{
		id:           id,
		title:        attrs.Title,
		city:         attrs.City,
		address:      attrs.Address,
		propertyType: attrs.PropertyType,
		url:          attrs.URL,
		price:        attrs.Price,
		area:         attrs.Area,
		rooms:        attrs.Rooms,
		sections:     slices.Clone(sections),
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the listing identifier.
func (l Listing) ID() string { return l.id }

// Title returns the listing headline.
func (l Listing) Title() string { return l.title }

// City returns the city name.
func (l Listing) City() string { return l.city }

// Address returns the street address.
func (l Listing) Address() string { return l.address }

// PropertyType returns the property type (house, apartment, ...).
func (l Listing) PropertyType() string { return l.propertyType }

// URL returns an absolute or site-relative link to the listing page.
func (l Listing) URL() string { return l.url }

// Price returns the asking price or monthly rent.
func (l Listing) Price() float64 { return l.price }

// Area returns the living area in square metres.
func (l Listing) Area() float64 { return l.area }

// Rooms returns the room count.
func (l Listing) Rooms() int { return l.rooms }

// Sections returns the sections the listing is published on.
func (l Listing) Sections() []domain.Section { return l.sections }

// PublishedOn reports whether the listing is visible on the given section.
func (l Listing) PublishedOn(s domain.Section) bool { return slices.Contains(l.sections, s) }

// CreatedAt returns the creation instant.
func (l Listing) CreatedAt() time.Time { return l.createdAt }

// UpdatedAt returns the last modification instant, compared against stored-search watermarks.
func (l Listing) UpdatedAt() time.Time { return l.updatedAt }
