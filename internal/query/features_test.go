package query

import (
	"net/url"
	"strings"
	"testing"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = NewSchema("-createdAt",
	Field{Name: "id", Column: "id", Kind: Number},
	Field{Name: "name", Column: "name"},
	Field{Name: "price", Column: "price", Kind: Number},
	Field{Name: "difficulty", Column: "difficulty"},
	Field{Name: "secretTour", Column: "secret_tour", Kind: Bool},
	Field{Name: "createdAt", Column: "created_at", Kind: Time, Hidden: true},
)

func build(t *testing.T, raw string) (*Features, string, []any) {
	t.Helper()
	params, err := url.ParseQuery(raw)
	require.NoError(t, err)

	ds := goqu.Dialect("mysql").From("tours").Prepared(true)
	f := New(ds, params, testSchema).Filter().Sort().LimitFields().Paginate()
	sql, args, err := f.Dataset().ToSQL()
	require.NoError(t, err)
	return f, sql, args
}

func whereClause(sql string) string {
	start := strings.Index(sql, "WHERE")
	if start < 0 {
		return ""
	}
	end := strings.Index(sql, "ORDER BY")
	if end < 0 {
		end = len(sql)
	}
	return sql[start:end]
}

func Test_Filter_ReservedKeysNeverBecomePredicates(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "all_control_keys", query: "page=2&sort=price&limit=5&fields=name"},
		{name: "control_keys_with_operators", query: "page[gte]=2&limit[lt]=3"},
		{name: "control_keys_mixed_with_filters", query: "difficulty=easy&page=3&fields=name,price"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			f := New(goqu.Dialect("mysql").From("tours"), params, testSchema)
			for _, p := range f.Predicates() {
				sql, _, err := goqu.Dialect("mysql").From("tours").Where(p).ToSQL()
				require.NoError(t, err)
				for key := range reserved {
					assert.NotContains(t, whereClause(sql), "`"+key+"`")
				}
			}

			_, sql, _ := build(t, tc.query)
			for key := range reserved {
				assert.NotContains(t, whereClause(sql), "`"+key+"`")
			}
		})
	}
}

func Test_Filter_RewritesComparisonOperators(t *testing.T) {
	_, sql, args := build(t, "price[gte]=500&price[lt]=1500&difficulty=easy")

	where := whereClause(sql)
	assert.Contains(t, where, "`price` >= ?")
	assert.Contains(t, where, "`price` < ?")
	assert.Contains(t, where, "`difficulty` = ?")
	assert.Contains(t, args, 500.0)
	assert.Contains(t, args, 1500.0)
	assert.Contains(t, args, "easy")
}

func Test_Filter_RepeatedValuesBecomeIn(t *testing.T) {
	_, sql, args := build(t, "difficulty=easy&difficulty=medium")

	assert.Contains(t, whereClause(sql), "`difficulty` IN (?, ?)")
	assert.Contains(t, args, "easy")
	assert.Contains(t, args, "medium")
}

func Test_Filter_IgnoresUnknownFieldsAndCoercesBooleans(t *testing.T) {
	_, sql, args := build(t, "password=x&secretTour=false")

	where := whereClause(sql)
	assert.NotContains(t, where, "password")
	assert.Contains(t, where, "`secret_tour` = ?")
	assert.Contains(t, args, int64(0))
}

func Test_Filter_UncoercibleValuesMatchNothing(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "number_with_operator", query: "price[gte]=abc"},
		{name: "number_equality", query: "price=abc"},
		{name: "number_not_finite", query: "price[lt]=NaN"},
		{name: "bool", query: "secretTour=maybe"},
		{name: "time", query: "createdAt[gte]=yesterday"},
		{name: "every_in_value_bad", query: "price=abc&price=xyz"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, sql, args := build(t, tc.query)
			where := whereClause(sql)
			assert.Contains(t, where, "FALSE")
			assert.NotContains(t, where, "`price`")
			for _, a := range args {
				assert.NotEqual(t, "abc", a)
			}
		})
	}
}

func Test_Filter_InKeepsCoercibleValues(t *testing.T) {
	_, sql, args := build(t, "price=397&price=abc")

	assert.Contains(t, whereClause(sql), "`price` IN (?)")
	assert.Contains(t, args, 397.0)
	assert.NotContains(t, args, "abc")
}

func Test_Sort(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "multi_key_desc_then_asc", query: "sort=-price,name", want: "ORDER BY `price` DESC, `name` ASC, `id` ASC"},
		{name: "default_newest_first", query: "", want: "ORDER BY `created_at` DESC, `id` ASC"},
		{name: "unknown_keys_fall_back_to_default", query: "sort=bogus", want: "ORDER BY `created_at` DESC, `id` ASC"},
		{name: "explicit_id_not_duplicated", query: "sort=-id", want: "ORDER BY `id` DESC LIMIT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, sql, _ := build(t, tc.query)
			assert.Contains(t, sql, tc.want)
		})
	}
}

func Test_LimitFields(t *testing.T) {
	f, sql, _ := build(t, "fields=name,price")
	assert.True(t, strings.HasPrefix(sql, "SELECT `id`, `name`, `price` FROM"), sql)
	assert.Equal(t, []string{"id", "name", "price"}, f.Fields())
	assert.False(t, f.Wants("difficulty"))

	f, sql, _ = build(t, "")
	assert.True(t, strings.HasPrefix(sql, "SELECT `id`, `name`, `price`, `difficulty`, `secret_tour` FROM"), sql)
	assert.Nil(t, f.Fields())
	assert.True(t, f.Wants("difficulty"))

	f, sql, _ = build(t, "fields=-price,-difficulty")
	assert.True(t, strings.HasPrefix(sql, "SELECT `id`, `name`, `secret_tour` FROM"), sql)
	assert.Equal(t, []string{"id", "name", "secretTour"}, f.Fields())

	_, sql, _ = build(t, "fields=createdAt")
	assert.True(t, strings.HasPrefix(sql, "SELECT `id`, `created_at` FROM"), sql)
}

func Test_Paginate(t *testing.T) {
	tests := []struct {
		query             string
		page, limit, skip uint
	}{
		{query: "page=2&limit=5", page: 2, limit: 5, skip: 5},
		{query: "", page: 1, limit: 100, skip: 0},
		{query: "page=abc&limit=-3", page: 1, limit: 100, skip: 0},
		{query: "page=1000&limit=10", page: 1000, limit: 10, skip: 9990},
	}

	for _, tc := range tests {
		f, sql, _ := build(t, tc.query)
		assert.Equal(t, tc.page, f.Page(), tc.query)
		assert.Equal(t, tc.limit, f.Limit(), tc.query)
		assert.Equal(t, tc.skip, f.Skip(), tc.query)
		assert.Contains(t, sql, "LIMIT ?")
		if tc.skip > 0 {
			assert.Contains(t, sql, "OFFSET ?")
		}
	}
}

func Test_New_CopiesParams(t *testing.T) {
	params := url.Values{"difficulty": {"easy"}}
	f := New(goqu.Dialect("mysql").From("tours"), params, testSchema)
	params.Set("difficulty", "medium")

	sql, args, err := f.Filter().Dataset().Prepared(true).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, "`difficulty` = ?")
	assert.Equal(t, []any{"easy"}, args)
}

func Test_Project(t *testing.T) {
	type rec struct {
		ID    int64   `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
		Level string  `json:"difficulty"`
	}
	records := []rec{{ID: 1, Name: "The Forest Hiker", Price: 397, Level: "easy"}}

	shaped, err := Project(records, []string{"id", "name", "price"})
	require.NoError(t, err)
	require.Len(t, shaped, 1)
	m, ok := shaped[0].(map[string]any)
	require.True(t, ok)
	assert.Len(t, m, 3)
	assert.Equal(t, "The Forest Hiker", m["name"])
	assert.NotContains(t, m, "difficulty")

	untouched, err := Project(records, nil)
	require.NoError(t, err)
	assert.Equal(t, records[0], untouched[0])
}
