// Package filter describes listing queries independently of the index engine:
// a conjunction of tag matches and numeric ranges, optionally negated.
package filter

import (
	"errors"
	"fmt"
	"time"
)

// MaxConditions caps the clauses of one expression.
const MaxConditions = 32

// Expression is a conjunction of conditions, with optional negated conditions.
type Expression struct {
	must    []Condition
	mustNot []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(must, mustNot []Condition) (Expression, error) {
	if n := len(must) + len(mustNot); n > MaxConditions {
		return Expression{}, fmt.Errorf("expression has %d conditions, max %d", n, MaxConditions)
	}
	return Expression{must: must, mustNot: mustNot}, nil
}

// Must returns the conditions that all have to hold.
func (e Expression) Must() []Condition { return e.must }

// MustNot returns the conditions that must not hold.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression matches everything.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 && len(e.mustNot) == 0 }

// Condition is a tag match (any of several values) or a numeric range on one field.
type Condition struct {
	key   string
	anyOf []string
	rng   *Range
}

// NewMatch creates an exact tag match.
func NewMatch(key, value string) (Condition, error) {
	return NewMatchAny(key, value)
}

// NewMatchAny creates a tag condition satisfied by any of values.
func NewMatchAny(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, errors.New("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("%s: at least one value is required", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("%s: empty value", key)
		}
	}
	return Condition{key: key, anyOf: values}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, errors.New("filter key is required")
	}
	return Condition{key: key, rng: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Values returns the accepted tag values.
func (c Condition) Values() []string { return c.anyOf }

// Range returns the numeric range, nil for tag conditions.
func (c Condition) Range() *Range { return c.rng }

// IsMatch reports whether this is a tag condition.
func (c Condition) IsMatch() bool { return len(c.anyOf) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rng != nil }

// Range is a numeric interval. Each side is open, closed or unbounded.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range. At least one bound is required,
// a side cannot be both open and closed, and the lower bound may not exceed the upper.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, errors.New("at least one range bound is required")
	}
	if gt != nil && gte != nil {
		return Range{}, errors.New("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, errors.New("cannot specify both lt and lte")
	}
	lo, hi := first(gt, gte), first(lt, lte)
	if lo != nil && hi != nil && *lo > *hi {
		return Range{}, fmt.Errorf("lower bound %g exceeds upper bound %g", *lo, *hi)
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

func first(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

// GT returns the exclusive lower bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the inclusive lower bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the exclusive upper bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the inclusive upper bound.
func (r Range) LTE() *float64 { return r.lte }

// Builder accumulates conditions and keeps the first error.
// Optional criteria are skipped when unset, so callers need no branching.
type Builder struct {
	must []Condition
	err  error
}

// NewBuilder starts an empty expression.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) add(c Condition, err error) *Builder {
	if b.err != nil {
		return b
	}
	if err != nil {
		b.err = err
		return b
	}
	b.must = append(b.must, c)
	return b
}

// Match requires the tag field to equal value. An empty value adds nothing.
func (b *Builder) Match(key, value string) *Builder {
	if value == "" {
		return b
	}
	return b.add(NewMatch(key, value))
}

// Between requires lo <= field <= hi. Nil bounds are open-ended; both nil adds nothing.
func (b *Builder) Between(key string, lo, hi *float64) *Builder {
	if lo == nil && hi == nil {
		return b
	}
	r, err := NewRangeFilter(nil, lo, nil, hi)
	if err != nil {
		return b.add(Condition{}, fmt.Errorf("%s: %w", key, err))
	}
	return b.add(NewRange(key, r))
}

// AtLeast requires field >= n.
func (b *Builder) AtLeast(key string, n *int) *Builder {
	if n == nil {
		return b
	}
	v := float64(*n)
	return b.Between(key, &v, nil)
}

// After requires a millisecond timestamp field strictly later than t. A zero t adds nothing.
func (b *Builder) After(key string, t time.Time) *Builder {
	if t.IsZero() {
		return b
	}
	ms := float64(t.UnixMilli())
	r, err := NewRangeFilter(&ms, nil, nil, nil)
	if err != nil {
		return b.add(Condition{}, err)
	}
	return b.add(NewRange(key, r))
}

// Build returns the expression or the first error met while building.
func (b *Builder) Build() (Expression, error) {
	if b.err != nil {
		return Expression{}, b.err
	}
	return NewExpression(b.must, nil)
}
