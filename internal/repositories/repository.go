package repositories

import (
	"context"
	"database/sql"
	"errors"

	intdb "natours/internal/db"
	"natours/internal/domain"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
)

var (
	dialect = goqu.Dialect("mysql")
	json    = jsoniter.ConfigCompatibleWithStandardLibrary
)

// selectAll renders a dataset and scans every row into dest.
func selectAll(ctx context.Context, db sqlx.QueryerContext, ds *goqu.SelectDataset, dest any) error {
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return domain.InternalError{Msg: "failed to build query", Err: err}
	}
	return sqlx.SelectContext(ctx, db, dest, q, args...)
}

// getOne is selectAll for a single row; no row becomes NotFoundError.
func getOne(ctx context.Context, db sqlx.QueryerContext, ds *goqu.SelectDataset, dest any, resource string) error {
	q, args, err := ds.Prepared(true).Limit(1).ToSQL()
	if err != nil {
		return domain.InternalError{Msg: "failed to build query", Err: err}
	}
	if err := sqlx.GetContext(ctx, db, dest, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundError{Resource: resource, Err: err}
		}
		return err
	}
	return nil
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func exec(ctx context.Context, db sqlx.ExecerContext, b sqlBuilder) (sql.Result, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to build query", Err: err}
	}
	return db.ExecContext(ctx, q, args...)
}

// writeErr maps driver failures on insert/update onto domain errors.
func writeErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	if v, ok := intdb.DuplicateValue(err); ok {
		return domain.ConflictError{Resource: resource, Value: v, Err: err}
	}
	if intdb.IsForeignKeyViolation(err) {
		return domain.ValidationError{Field: resource, Msg: "Referenced record does not exist", Err: err}
	}
	return err
}

// affected turns a zero-row write into NotFoundError.
func affected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource}
	}
	return nil
}

func rollback(tx *sqlx.Tx) {
	_ = tx.Rollback()
}
