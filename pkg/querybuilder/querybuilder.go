// Package querybuilder turns request query parameters into a storage-neutral
// Query: equality and range filters, free-text search, field selection,
// multi-key sort, pagination and relation population.
//
// Build is a pure function. Rendering a Query for a concrete store (and
// rejecting fields that store does not know) is the store's job.
package querybuilder

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

const (
	ParamSelect   = "select"
	ParamSort     = "sort"
	ParamPage     = "page"
	ParamLimit    = "limit"
	ParamSearch   = "search"
	ParamPopulate = "populate"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit well inside int32 for any limit up to MaxLimit.
	MaxPage = 1_000_000
)

// reserved parameter names are never entity-field filters.
var reserved = map[string]bool{
	ParamSelect:   true,
	ParamSort:     true,
	ParamPage:     true,
	ParamLimit:    true,
	ParamSearch:   true,
	ParamPopulate: true,
}

var operatorKey = regexp.MustCompile(`^([A-Za-z0-9_.]+)\[(gt|gte|lt|lte|in)\]$`)

type Filter struct {
	Field  string
	Op     Operator
	Values []string
}

// Value returns the first operand, or "" when there is none.
func (f Filter) Value() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[0]
}

type SortField struct {
	Field string
	Desc  bool
}

type Query struct {
	Filters      []Filter
	Search       string
	SearchFields []string
	Select       []string
	Sort         []SortField
	Page         int
	Limit        int
	Populate     []string
}

// Offset is the number of records skipped before the current page.
func (q Query) Offset() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	page, limit := min(q.Page, MaxPage), min(q.Limit, MaxLimit)
	return (page - 1) * limit
}

// Populates reports whether relation should be eagerly resolved.
func (q Query) Populates(relation string) bool {
	for _, p := range q.Populate {
		if p == relation {
			return true
		}
	}
	return false
}

type Options struct {
	SearchFields []string
	DefaultSort  []SortField
	DefaultLimit int
	MaxLimit     int
}

// NewestFirst is the default ordering for listings.
var NewestFirst = []SortField{{Field: "createdAt", Desc: true}}

// IsReserved reports whether key (with or without an operator suffix) names a
// control parameter rather than a field.
func IsReserved(key string) bool {
	if m := operatorKey.FindStringSubmatch(key); m != nil {
		key = m[1]
	}
	return reserved[key]
}

// Build translates params into a Query. Unknown operator suffixes are kept as
// plain equality on the raw key so the store can reject the field.
func Build(params map[string][]string, opts Options) Query {
	defaultLimit := opts.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	maxLimit := opts.MaxLimit
	if maxLimit < 1 {
		maxLimit = MaxLimit
	}

	q := Query{
		Page:  parsePositive(first(params[ParamPage]), DefaultPage),
		Limit: parsePositive(first(params[ParamLimit]), defaultLimit),
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}

	if search := strings.TrimSpace(first(params[ParamSearch])); search != "" {
		q.Search = search
		q.SearchFields = append([]string(nil), opts.SearchFields...)
	}

	q.Select = splitList(params[ParamSelect])
	q.Populate = splitList(params[ParamPopulate])

	q.Sort = parseSort(splitList(params[ParamSort]))
	if len(q.Sort) == 0 {
		q.Sort = append([]SortField(nil), opts.DefaultSort...)
		if len(q.Sort) == 0 {
			q.Sort = append([]SortField(nil), NewestFirst...)
		}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if IsReserved(key) {
			continue
		}
		values := params[key]
		if len(values) == 0 {
			continue
		}

		if m := operatorKey.FindStringSubmatch(key); m != nil {
			op := Operator(m[2])
			operands := values
			if op == OpIn {
				operands = splitList(values)
			}
			q.Filters = append(q.Filters, Filter{Field: m[1], Op: op, Values: operands})
			continue
		}

		if len(values) > 1 {
			q.Filters = append(q.Filters, Filter{Field: key, Op: OpIn, Values: values})
			continue
		}
		q.Filters = append(q.Filters, Filter{Field: key, Op: OpEq, Values: values[:1]})
	}

	return q
}

func parseSort(fields []string) []SortField {
	var out []SortField
	for _, f := range fields {
		desc := strings.HasPrefix(f, "-")
		name := strings.TrimLeft(f, "-+")
		if name == "" {
			continue
		}
		out = append(out, SortField{Field: name, Desc: desc})
	}
	return out
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
