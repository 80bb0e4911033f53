package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPrincipalNotFound signals a stored search referencing an unknown principal.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrNoOwner signals a stored search with neither a marketplace nor a premium owner.
	ErrNoOwner = errors.New("stored search has no owner")
	// ErrInvalidCriteria signals malformed search criteria.
	ErrInvalidCriteria = errors.New("invalid criteria")
	// ErrInvalidSection signals an unknown site section.
	ErrInvalidSection = errors.New("invalid section")
	// ErrInvalidListing signals a listing that fails validation.
	ErrInvalidListing = errors.New("invalid listing")
	// ErrInvalidPrincipal signals a principal that fails validation.
	ErrInvalidPrincipal = errors.New("invalid principal")
)
