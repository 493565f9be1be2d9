package db

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry  = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

var duplicateValueRe = regexp.MustCompile(`Duplicate entry '(.*)' for key`)

// QueryRower is satisfied by *sql.DB, *sqlx.DB and transactions.
type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings without writing empty values.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// DuplicateValue reports whether err is a unique-key violation and returns the
// offending value as MySQL quoted it.
func DuplicateValue(err error) (string, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != errDuplicateEntry {
		return "", false
	}
	if m := duplicateValueRe.FindStringSubmatch(me.Message); len(m) == 2 {
		return m[1], true
	}
	return "", true
}

// IsForeignKeyViolation covers both directions: missing parent and existing children.
func IsForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == errNoReferencedRow || me.Number == errRowIsReferenced
}

// HasTable is used by the health check to confirm migrations ran.
func HasTable(ctx context.Context, q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}
