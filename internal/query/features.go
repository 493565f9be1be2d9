// Package query turns list request parameters into a refined goqu dataset:
// filter, sort, field projection and pagination, applied in that order.
package query

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"

	DefaultPage  = 1
	DefaultLimit = 100
)

var reserved = map[string]struct{}{
	ParamPage:   {},
	ParamSort:   {},
	ParamLimit:  {},
	ParamFields: {},
}

// price[gte]=500 style keys.
var operatorKey = regexp.MustCompile(`^([A-Za-z0-9_]+)\[(gte|gt|lte|lt)\]$`)

// IsReserved reports whether key is a control parameter rather than a filter.
func IsReserved(key string) bool {
	_, ok := reserved[key]
	return ok
}

// Features is the in-flight list query. Every step mutates and returns the
// receiver so calls chain.
type Features struct {
	ds     *goqu.SelectDataset
	params url.Values
	schema Schema

	fields []string
	page   uint
	limit  uint
}

// New copies params so later steps never see caller mutations.
func New(ds *goqu.SelectDataset, params url.Values, schema Schema) *Features {
	cp := make(url.Values, len(params))
	for k, v := range params {
		cp[k] = append([]string(nil), v...)
	}
	return &Features{ds: ds, params: cp, schema: schema, page: DefaultPage, limit: DefaultLimit}
}

// matchNothing stands in for a comparison whose value does not fit the
// column; MySQL would otherwise cast the string to 0 and compare.
var matchNothing = goqu.L("FALSE")

func predicate(field Field, op string, values []string) exp.Expression {
	col := goqu.C(field.Column)
	if op == "" && len(values) > 1 {
		in := make([]any, 0, len(values))
		for _, raw := range values {
			if v, ok := field.coerce(raw); ok {
				in = append(in, v)
			}
		}
		if len(in) == 0 {
			return matchNothing
		}
		return col.In(in...)
	}

	v, ok := field.coerce(values[0])
	if !ok {
		return matchNothing
	}
	switch op {
	case "gte":
		return col.Gte(v)
	case "gt":
		return col.Gt(v)
	case "lte":
		return col.Lte(v)
	case "lt":
		return col.Lt(v)
	}
	return col.Eq(v)
}

// Predicates returns the filter expressions the params describe, without
// touching the dataset.
func (f *Features) Predicates() []exp.Expression {
	keys := make([]string, 0, len(f.params))
	for k := range f.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []exp.Expression{}
	for _, key := range keys {
		values := f.params[key]
		if len(values) == 0 || IsReserved(key) {
			continue
		}

		name, op := key, ""
		if m := operatorKey.FindStringSubmatch(key); m != nil {
			name, op = m[1], m[2]
		}
		if IsReserved(name) {
			continue
		}
		field, ok := f.schema.Lookup(name)
		if !ok {
			continue
		}

		out = append(out, predicate(field, op, values))
	}
	return out
}

func (f *Features) Filter() *Features {
	if preds := f.Predicates(); len(preds) > 0 {
		f.ds = f.ds.Where(preds...)
	}
	return f
}

// Sort applies sort=a,-b as a multi-key order, falling back to the schema
// default. The id column always breaks remaining ties.
func (f *Features) Sort() *Features {
	orders := f.orderBy(f.params.Get(ParamSort))
	if len(orders) == 0 {
		orders = f.orderBy(f.schema.DefaultSort)
	}

	hasID := false
	for _, o := range orders {
		if c, ok := o.SortExpression().(exp.IdentifierExpression); ok && c.GetCol() == f.idColumn() {
			hasID = true
		}
	}
	if !hasID {
		orders = append(orders, goqu.C(f.idColumn()).Asc())
	}

	f.ds = f.ds.Order(orders...)
	return f
}

func (f *Features) orderBy(raw string) []exp.OrderedExpression {
	out := []exp.OrderedExpression{}
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(strings.TrimPrefix(part, "-"), "+")
		field, ok := f.schema.Lookup(name)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		if desc {
			out = append(out, goqu.C(field.Column).Desc())
		} else {
			out = append(out, goqu.C(field.Column).Asc())
		}
	}
	return out
}

// LimitFields projects fields=a,b (plus id). fields=-a,-b excludes instead.
// Without the parameter every non-hidden field is selected.
func (f *Features) LimitFields() *Features {
	raw := strings.TrimSpace(f.params.Get(ParamFields))
	names := f.schema.Visible()

	if raw != "" {
		include := []string{f.schema.IDField}
		exclude := map[string]bool{}
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "-") {
				exclude[strings.TrimPrefix(part, "-")] = true
				continue
			}
			if _, ok := f.schema.Lookup(part); ok && !contains(include, part) {
				include = append(include, part)
			}
		}

		if len(include) > 1 || len(exclude) == 0 {
			names = include
			f.fields = include
		} else {
			kept := []string{}
			for _, n := range names {
				if !exclude[n] || n == f.schema.IDField {
					kept = append(kept, n)
				}
			}
			names = kept
			f.fields = kept
		}
	}

	cols := make([]any, 0, len(names))
	for _, n := range names {
		field, _ := f.schema.Lookup(n)
		cols = append(cols, field.selectExprs()...)
	}
	f.ds = f.ds.Select(cols...)
	return f
}

// Paginate reads page/limit; missing or non-positive values use the defaults.
func (f *Features) Paginate() *Features {
	f.page = positiveOr(f.params.Get(ParamPage), DefaultPage)
	f.limit = positiveOr(f.params.Get(ParamLimit), DefaultLimit)
	f.ds = f.ds.Offset(f.Skip()).Limit(f.limit)
	return f
}

func (f *Features) Dataset() *goqu.SelectDataset { return f.ds }

// Where adds route-derived predicates, e.g. the parent id of a nested route.
func (f *Features) Where(preds ...exp.Expression) *Features {
	f.ds = f.ds.Where(preds...)
	return f
}

// Fields is the explicit projection, nil when the caller did not ask for one.
func (f *Features) Fields() []string { return f.fields }

// Wants reports whether a field is part of the result, used to skip loading
// relations nobody asked for.
func (f *Features) Wants(name string) bool {
	return f.fields == nil || contains(f.fields, name)
}

func (f *Features) Page() uint  { return f.page }
func (f *Features) Limit() uint { return f.limit }
func (f *Features) Skip() uint  { return (f.page - 1) * f.limit }

func (f *Features) idColumn() string {
	if field, ok := f.schema.Lookup(f.schema.IDField); ok {
		return field.Column
	}
	return "id"
}

func positiveOr(raw string, def uint) uint {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return uint(n)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
