// Package keyspace owns the Redis key layout shared by the repositories.
//
// Layout, with the configured prefix P (default "searchagent:"):
//
//	P principal:{id}            principal hash
//	P search:{section}:{id}     stored search hash
//	P listing:{id}              listing hash, indexed by P listings:idx
//	P run:last                  JSON summary of the latest run
package keyspace

import "strings"

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "searchagent:"

// Keyspace builds keys under one prefix.
type Keyspace struct {
	prefix string
}

// New creates a Keyspace. An empty prefix falls back to DefaultPrefix; a missing trailing colon is added.
func New(prefix string) Keyspace {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return Keyspace{prefix: prefix}
}

// Prefix returns the normalized prefix.
func (k Keyspace) Prefix() string { return k.prefix }

// Principal returns the key of a principal hash.
func (k Keyspace) Principal(id string) string { return k.prefix + "principal:" + id }

// StoredSearch returns the key of a stored search hash by its ID ("section:principal").
func (k Keyspace) StoredSearch(id string) string { return k.StoredSearchPrefix() + id }

// StoredSearchPrefix is the common prefix of all stored search keys.
func (k Keyspace) StoredSearchPrefix() string { return k.prefix + "search:" }

// Listing returns the key of a listing hash.
func (k Keyspace) Listing(id string) string { return k.ListingPrefix() + id }

// ListingPrefix is the common prefix of all listing keys (the FT index prefix).
func (k Keyspace) ListingPrefix() string { return k.prefix + "listing:" }

// ListingIndex returns the FT index name over listings.
func (k Keyspace) ListingIndex() string { return k.prefix + "listings:idx" }

// LastRun returns the key holding the latest run summary.
func (k Keyspace) LastRun() string { return k.prefix + "run:last" }
