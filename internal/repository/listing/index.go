package listing

import (
	"github.com/kailas-cloud/searchagent/internal/db"
	"github.com/kailas-cloud/searchagent/internal/repository/keyspace"
)

// buildIndex describes the FT index over listing hashes.
// Tag fields are case-insensitive, so criteria match city and type regardless of case.
func buildIndex(keys keyspace.Keyspace) (*db.Schema, error) {
	return db.NewSchema(keys.ListingIndex(), keys.ListingPrefix()).
		Tag(fieldSections, db.Separator(sectionSeparator)).
		Tag(fieldCity).
		Tag(fieldType).
		Numeric(fieldPrice).
		Numeric(fieldArea).
		Numeric(fieldRooms).
		Numeric(fieldUpdatedAt, db.Sortable()).
		Build()
}
