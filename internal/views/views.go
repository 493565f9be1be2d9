// Package views holds the server-rendered pages. Templates are embedded so
// the binary needs no files next to it.
package views

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"natours/internal/utils"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"date":  utils.FormatDate,
	"price": utils.FormatPrice,
	"month": func(t time.Time) string { return t.Format("January 2006") },
	"first": func(s string) string {
		if i := strings.IndexByte(s, ' '); i > 0 {
			return s[:i]
		}
		return s
	},
	"stars": func(rating float64) []bool {
		out := make([]bool, 5)
		for i := range out {
			out[i] = rating >= float64(i+1)
		}
		return out
	},
}

// Templates parses every embedded page; each is addressed by its file name.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.html"))
}
