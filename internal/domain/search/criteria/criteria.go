package criteria

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchagent/internal/domain"
)

// Criteria is a saved house-search filter. The engine treats it as an opaque value;
// only the listing matcher interprets the fields.
type Criteria struct {
	City         string   `json:"city,omitempty" yaml:"city,omitempty"`
	PropertyType string   `json:"property_type,omitempty" yaml:"property_type,omitempty"`
	MinPrice     *float64 `json:"min_price,omitempty" yaml:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty" yaml:"max_price,omitempty"`
	MinArea      *float64 `json:"min_area,omitempty" yaml:"min_area,omitempty"`
	MaxArea      *float64 `json:"max_area,omitempty" yaml:"max_area,omitempty"`
	MinRooms     *int     `json:"min_rooms,omitempty" yaml:"min_rooms,omitempty"`
}

// Validate checks bounds consistency.
func (c Criteria) Validate() error {
	if err := checkRange("price", c.MinPrice, c.MaxPrice); err != nil {
		return err
	}
	if err := checkRange("area", c.MinArea, c.MaxArea); err != nil {
		return err
	}
	if c.MinRooms != nil && *c.MinRooms < 0 {
		return fmt.Errorf("min_rooms must not be negative: %w", domain.ErrInvalidCriteria)
	}
	return nil
}

// Normalized returns a copy with trimmed, lowercased tag values.
func (c Criteria) Normalized() Criteria {
	c.City = strings.ToLower(strings.TrimSpace(c.City))
	c.PropertyType = strings.ToLower(strings.TrimSpace(c.PropertyType))
	return c
}

func checkRange(name string, lo, hi *float64) error {
	if lo != nil && *lo < 0 {
		return fmt.Errorf("min_%s must not be negative: %w", name, domain.ErrInvalidCriteria)
	}
	if hi != nil && *hi < 0 {
		return fmt.Errorf("max_%s must not be negative: %w", name, domain.ErrInvalidCriteria)
	}
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("min_%s %g exceeds max_%s %g: %w", name, *lo, name, *hi, domain.ErrInvalidCriteria)
	}
	return nil
}
