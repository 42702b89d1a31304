// Package query translates caller-supplied list parameters into safe store
// queries. Recognized reserved keys are select, sort, page and limit; every
// other key is treated as a field filter, optionally carrying a comparison
// suffix (field[gt], field[gte], field[lt], field[lte], field[in]). Fields
// and operators outside the entity's public projection are silently ignored.
package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

// Filter is one field comparison.
type Filter struct {
	Field  string // public field name
	Column string // resolved column
	Op     Op
	Values []string
}

// SortField is one sort key.
type SortField struct {
	Column     string
	Descending bool
}

// ListQuery is the compiled list request.
type ListQuery struct {
	Select  []string
	Sort    []SortField
	Page    int
	Limit   int
	Filters []Filter
}

// Schema describes an entity's public projection: which caller-visible
// fields exist and the columns they map to. DefaultSort uses the public
// field name with an optional leading '-'.
type Schema struct {
	Columns     map[string]string
	DefaultSort string
}

var reservedKeys = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

var knownOps = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
}

// Parse compiles raw query values against a schema. Unknown fields and
// unknown operator suffixes are dropped; page and limit fall back to their
// defaults on junk input.
func Parse(values url.Values, schema Schema) ListQuery {
	q := ListQuery{
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page >= 1 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit >= 1 {
		if limit > MaxLimit {
			limit = MaxLimit
		}
		q.Limit = limit
	}

	if sel := values.Get("select"); sel != "" {
		for _, field := range strings.Split(sel, ",") {
			field = strings.TrimSpace(field)
			if _, ok := schema.Columns[field]; ok {
				q.Select = append(q.Select, field)
			}
		}
	}

	sortSpec := values.Get("sort")
	if sortSpec == "" {
		sortSpec = schema.DefaultSort
	}
	q.Sort = parseSort(sortSpec, schema)

	for key, vals := range values {
		if reservedKeys[key] || len(vals) == 0 {
			continue
		}
		field, op, ok := splitFilterKey(key)
		if !ok {
			continue
		}
		column, ok := schema.Columns[field]
		if !ok {
			continue
		}
		filter := Filter{Field: field, Column: column, Op: op, Values: vals}
		if op == OpIn {
			filter.Values = strings.Split(vals[0], ",")
		}
		q.Filters = append(q.Filters, filter)
	}

	return q
}

// splitFilterKey separates "field[op]" into its parts. A bare key is an
// equality filter; an unrecognized operator drops the filter entirely.
func splitFilterKey(key string) (field string, op Op, ok bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, true
	}
	if !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	field = key[:open]
	opName := key[open+1 : len(key)-1]
	op, known := knownOps[opName]
	if !known {
		return "", "", false
	}
	return field, op, true
}

func parseSort(spec string, schema Schema) []SortField {
	var sorts []SortField
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := false
		if strings.HasPrefix(part, "-") {
			desc = true
			part = part[1:]
		}
		column, ok := schema.Columns[part]
		if !ok {
			continue
		}
		sorts = append(sorts, SortField{Column: column, Descending: desc})
	}
	return sorts
}

// Offset returns the 0-based row offset for the compiled page.
func (q ListQuery) Offset() uint64 {
	return uint64((q.Page - 1) * q.Limit)
}

// ApplyFilters conjoins the compiled filters onto a squirrel builder.
func (q ListQuery) ApplyFilters(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	for _, f := range q.Filters {
		b = b.Where(f.Sqlizer())
	}
	return b
}

// ApplyFiltersCount conjoins the compiled filters onto a count builder.
func (q ListQuery) ApplyFiltersCount(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	return q.ApplyFilters(b)
}

// ApplySort orders the builder by the compiled sort keys.
func (q ListQuery) ApplySort(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Descending {
			dir = "DESC"
		}
		b = b.OrderBy(fmt.Sprintf("%s %s", s.Column, dir))
	}
	return b
}

// ApplyPagination limits and offsets the builder.
func (q ListQuery) ApplyPagination(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	return b.Limit(uint64(q.Limit)).Offset(q.Offset())
}

// Sqlizer compiles one filter into a squirrel condition.
func (f Filter) Sqlizer() squirrel.Sqlizer {
	switch f.Op {
	case OpGt:
		return squirrel.Gt{f.Column: coerce(f.Values[0])}
	case OpGte:
		return squirrel.GtOrEq{f.Column: coerce(f.Values[0])}
	case OpLt:
		return squirrel.Lt{f.Column: coerce(f.Values[0])}
	case OpLte:
		return squirrel.LtOrEq{f.Column: coerce(f.Values[0])}
	case OpIn:
		vals := make([]interface{}, 0, len(f.Values))
		for _, v := range f.Values {
			vals = append(vals, coerce(strings.TrimSpace(v)))
		}
		return squirrel.Eq{f.Column: vals}
	default:
		return squirrel.Eq{f.Column: coerce(f.Values[0])}
	}
}

// coerce maps a raw filter value onto a typed argument so the driver binds
// parameters with the right type.
func coerce(v string) interface{} {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if fl, err := strconv.ParseFloat(v, 64); err == nil {
		return fl
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t
	}
	return v
}

// Project reduces items to the selected public fields. With no selection the
// items pass through unchanged. Items must marshal to JSON objects.
func Project(items interface{}, fields []string) interface{} {
	if len(fields) == 0 {
		return items
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return items
	}
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return items
	}

	keep := make(map[string]bool, len(fields)+1)
	keep["id"] = true
	for _, f := range fields {
		keep[f] = true
	}

	projected := make([]map[string]json.RawMessage, 0, len(list))
	for _, item := range list {
		row := make(map[string]json.RawMessage, len(keep))
		for k, v := range item {
			if keep[k] {
				row[k] = v
			}
		}
		projected = append(projected, row)
	}
	return projected
}
