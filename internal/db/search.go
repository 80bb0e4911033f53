package db

import "github.com/kailas-cloud/searchagent/internal/domain/search/filter"

// FilterQuery is the input for a filter-only FT.SEARCH.
type FilterQuery struct {
	IndexName    string
	Filters      filter.Expression
	Offset       int
	Limit        int
	SortBy       string // must be a SORTABLE field
	SortDesc     bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
