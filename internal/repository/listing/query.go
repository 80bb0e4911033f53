package listing

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/search/criteria"
	"github.com/kailas-cloud/searchagent/internal/domain/search/filter"
)

// buildExpression converts stored search criteria into a filter expression:
// section tag, optional city and type tags, numeric ranges, and updated_at strictly after the watermark.
func buildExpression(section domain.Section, c criteria.Criteria, watermark time.Time) (filter.Expression, error) {
	c = c.Normalized()
	expr, err := filter.NewBuilder().
		Match(fieldSections, string(section)).
		Match(fieldCity, c.City).
		Match(fieldType, c.PropertyType).
		Between(fieldPrice, c.MinPrice, c.MaxPrice).
		Between(fieldArea, c.MinArea, c.MaxArea).
		AtLeast(fieldRooms, c.MinRooms).
		After(fieldUpdatedAt, watermark).
		Build()
	if err != nil {
		return filter.Expression{}, fmt.Errorf("build listing filter: %w", err)
	}
	return expr, nil
}
