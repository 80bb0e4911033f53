package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/searchagent/internal/domain"
	domlisting "github.com/kailas-cloud/searchagent/internal/domain/listing"
)

// Hash field names; the indexed ones double as FT schema fields.
const (
	fieldID        = "id"
	fieldTitle     = "title"
	fieldCity      = "city"
	fieldAddress   = "address"
	fieldType      = "type"
	fieldURL       = "url"
	fieldPrice     = "price"
	fieldArea      = "area"
	fieldRooms     = "rooms"
	fieldSections  = "sections"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

const sectionSeparator = ","

func listingToHash(l domlisting.Listing) map[string]string {
	sections := make([]string, len(l.Sections()))
	for i, s := range l.Sections() {
		sections[i] = string(s)
	}
	return map[string]string{
		fieldID:        l.ID(),
		fieldTitle:     l.Title(),
		fieldCity:      l.City(),
		fieldAddress:   l.Address(),
		fieldType:      l.PropertyType(),
		fieldURL:       l.URL(),
		fieldPrice:     strconv.FormatFloat(l.Price(), 'f', -1, 64),
		fieldArea:      strconv.FormatFloat(l.Area(), 'f', -1, 64),
		fieldRooms:     strconv.Itoa(l.Rooms()),
		fieldSections:  strings.Join(sections, sectionSeparator),
		fieldCreatedAt: strconv.FormatInt(l.CreatedAt().UnixMilli(), 10),
		fieldUpdatedAt: strconv.FormatInt(l.UpdatedAt().UnixMilli(), 10),
	}
}

// listingFromHash hydrates a Listing from a search hit or HGETALL result.
func listingFromHash(m map[string]string) (domlisting.Listing, error) {
	id := m[fieldID]
	if id == "" {
		return domlisting.Listing{}, fmt.Errorf("listing hash without id: %w", domain.ErrInvalidListing)
	}

	createdAt, err := parseMillis(m[fieldCreatedAt])
	if err != nil {
		return domlisting.Listing{}, fmt.Errorf("listing %s: invalid created_at: %w", id, err)
	}
	updatedAt, err := parseMillis(m[fieldUpdatedAt])
	if err != nil {
		return domlisting.Listing{}, fmt.Errorf("listing %s: invalid updated_at: %w", id, err)
	}

	attrs := domlisting.Attrs{
		Title:        m[fieldTitle],
		City:         m[fieldCity],
		Address:      m[fieldAddress],
		PropertyType: m[fieldType],
		URL:          m[fieldURL],
	}
	if attrs.Price, err = parseFloat(m[fieldPrice]); err != nil {
		return domlisting.Listing{}, fmt.Errorf("listing %s: invalid price: %w", id, err)
	}
	if attrs.Area, err = parseFloat(m[fieldArea]); err != nil {
		return domlisting.Listing{}, fmt.Errorf("listing %s: invalid area: %w", id, err)
	}
	if raw := m[fieldRooms]; raw != "" {
		if attrs.Rooms, err = strconv.Atoi(raw); err != nil {
			return domlisting.Listing{}, fmt.Errorf("listing %s: invalid rooms: %w", id, err)
		}
	}

	var sections []domain.Section
	for _, s := range strings.Split(m[fieldSections], sectionSeparator) {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, domain.Section(s))
		}
	}

	return domlisting.Reconstruct(id, attrs, sections, createdAt, updatedAt), nil
}

func parseMillis(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
