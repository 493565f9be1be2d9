package repositories

import (
	"context"
	"errors"
	"testing"

	"natours/internal/domain"
)

type brokenBuilder struct{}

func (brokenBuilder) ToSQL() (string, []any, error) {
	return "", nil, errors.New("unsupported expression")
}

func TestExecReportsBuildFailureInEnglish(t *testing.T) {
	db, mock := newMock(t)

	_, err := exec(context.Background(), db, brokenBuilder{})
	if !domain.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err.Error() != "failed to build query" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if errors.Unwrap(err) == nil {
		t.Fatalf("cause not wrapped: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("store touched: %v", err)
	}
}

func TestWriteErrLeavesNilAlone(t *testing.T) {
	if err := writeErr(nil, "tour"); err != nil {
		t.Fatalf("writeErr(nil) = %v", err)
	}
}
