package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/searchagent/internal/db"
	"github.com/kailas-cloud/searchagent/internal/domain/search/filter"
)

// SearchFiltered runs a filter-only FT.SEARCH with optional sort and paging.
func (s *Store) SearchFiltered(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error) {
	args, err := searchArgs(q)
	if err != nil {
		return nil, err
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	switch {
	case err == nil:
		return parseSearchReply(raw)
	case isRedisErr(err, "no such index"), isRedisErr(err, unknownIndex):
		return nil, db.ErrIndexNotFound
	default:
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
}

func searchArgs(q *db.FilterQuery) ([]string, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("search: index name is required")
	case q.Limit <= 0:
		return nil, fmt.Errorf("search: limit %d must be positive", q.Limit)
	case q.Offset < 0:
		return nil, fmt.Errorf("search: negative offset %d", q.Offset)
	}

	query := "*"
	if !q.Filters.IsEmpty() {
		query = buildFilter(q.Filters)
	}
	args := []string{q.IndexName, query}

	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n))
		args = append(args, q.ReturnFields...)
	}
	if q.SortBy != "" {
		order := "ASC"
		if q.SortDesc {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, order)
	}
	return append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit), "DIALECT", "2"), nil
}

// parseSearchReply reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// Entries that do not have that shape are skipped.
func parseSearchReply(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	res := &db.SearchResult{}
	if len(raw) == 0 {
		return res, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("search: reply total: %w", err)
	}
	res.Total = int(total)

	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		res.Entries = append(res.Entries, db.SearchEntry{Key: key, Fields: fieldMap(pairs)})
	}
	return res, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, nerr := pairs[i].ToString()
		value, verr := pairs[i+1].ToString()
		if nerr == nil && verr == nil {
			m[name] = value
		}
	}
	return m
}

// buildFilter renders an expression in the FT.SEARCH query syntax:
// conditions are ANDed by juxtaposition and exclusions are prefixed with '-'.
func buildFilter(expr filter.Expression) string {
	var sb strings.Builder
	write := func(prefix string, cond filter.Condition) {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(prefix)
		sb.WriteString(condition(cond))
	}
	for _, cond := range expr.Must() {
		write("", cond)
	}
	for _, cond := range expr.MustNot() {
		write("-", cond)
	}
	return sb.String()
}

func condition(cond filter.Condition) string {
	switch {
	case cond.IsMatch():
		values := make([]string, len(cond.Values()))
		for i, v := range cond.Values() {
			values[i] = tagEscaper.Replace(v)
		}
		return "@" + cond.Key() + ":{" + strings.Join(values, " | ") + "}"
	case cond.IsRange():
		lo, hi := bounds(*cond.Range())
		return "@" + cond.Key() + ":[" + lo + " " + hi + "]"
	default:
		return ""
	}
}

// bounds renders range limits; a leading '(' marks an exclusive bound.
func bounds(r filter.Range) (lo, hi string) {
	lo, hi = "-inf", "+inf"
	switch {
	case r.GT() != nil:
		lo = "(" + number(*r.GT())
	case r.GTE() != nil:
		lo = number(*r.GTE())
	}
	switch {
	case r.LT() != nil:
		hi = "(" + number(*r.LT())
	case r.LTE() != nil:
		hi = number(*r.LTE())
	}
	return lo, hi
}

// number avoids exponent notation so millisecond timestamps stay exact.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// tagEscaper escapes the TAG query punctuation, whitespace included.
// The backslash leads the set; a Replacer makes a single pass, so inserted
// escapes are never escaped again.
var tagEscaper = func() *strings.Replacer {
	const special = `\,.<>{}[]|"':;!@#$%^&*()-+=~/? `
	pairs := make([]string, 0, 2*len(special))
	for _, r := range special {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()
