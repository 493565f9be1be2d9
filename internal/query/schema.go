package query

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
)

// Kind controls how raw parameter strings are coerced before they are bound.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	Time
)

// Field maps an API field name onto storage.
type Field struct {
	Name   string
	Column string
	Kind   Kind
	// Select overrides the projected expression, e.g. a geometry decoded with ST_AsBinary.
	Select any
	// Also lists extra columns projected together with this field.
	Also []string
	// Hidden fields are filterable and sortable but only projected when asked for.
	Hidden bool
}

func (f Field) selectExprs() []any {
	out := make([]any, 0, 1+len(f.Also))
	if f.Select != nil {
		out = append(out, f.Select)
	} else {
		out = append(out, goqu.C(f.Column))
	}
	for _, c := range f.Also {
		out = append(out, goqu.C(c))
	}
	return out
}

// coerce binds raw as the field's kind. ok is false when a number, bool or
// time field gets a value of the wrong shape; string fields always coerce.
func (f Field) coerce(raw string) (v any, ok bool) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case Number:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false
		}
		return n, true
	case Bool:
		// bound as 1/0: goqu renders a Go bool as IS TRUE/IS FALSE
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false
		}
		if b {
			return 1, true
		}
		return 0, true
	case Time:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
		return nil, false
	}
	return raw, true
}

// Schema is the set of fields an entity exposes to list queries.
type Schema struct {
	DefaultSort string
	IDField     string

	fields map[string]Field
	names  []string
}

func NewSchema(defaultSort string, fields ...Field) Schema {
	s := Schema{
		DefaultSort: defaultSort,
		IDField:     "id",
		fields:      make(map[string]Field, len(fields)),
		names:       make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		s.fields[f.Name] = f
		s.names = append(s.names, f.Name)
	}
	return s
}

func (s Schema) Lookup(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Visible lists the default projection in declaration order.
func (s Schema) Visible() []string {
	out := make([]string, 0, len(s.names))
	for _, n := range s.names {
		if !s.fields[n].Hidden {
			out = append(out, n)
		}
	}
	return out
}

// Columns lists every selectable column of the schema, hidden ones included,
// for single-record reads that bypass the pipeline.
func (s Schema) Columns() []any {
	cols := []any{}
	for _, n := range s.names {
		cols = append(cols, s.fields[n].selectExprs()...)
	}
	return cols
}
