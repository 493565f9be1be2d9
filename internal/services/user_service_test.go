package services

import (
	"context"
	"strings"
	"testing"

	"natours/internal/domain"
	"natours/internal/domain/models"
	"natours/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return UserService{Repo: repositories.UserRepository{DB: sqlx.NewDb(db, "mysql")}, Validator: NewValidator()}, mock
}

func TestUserUpdateRejectsPasswordKeys(t *testing.T) {
	svc, mock := newUserService(t)
	for _, body := range []map[string]any{
		{"password": "newpass123"},
		{"name": "Jonas", "passwordConfirm": "newpass123"},
	} {
		_, err := svc.UpdateMe(context.Background(), 7, body)
		require.True(t, domain.IsValidation(err), "got %v", err)
		assert.Contains(t, err.Error(), "/updateMyPassword")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateMeDropsRoleAndPhoto(t *testing.T) {
	svc, mock := newUserService(t)
	mock.ExpectQuery("FROM `users`").WillReturnRows(userRow(nil))
	mock.ExpectExec("UPDATE `users` SET").
		WithArgs("jonas@example.io", "Jonas Schmedtmann", "user-7.jpg", "user", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM `users`").WillReturnRows(userRow(nil))

	_, err := svc.UpdateMe(context.Background(), 7, map[string]any{
		"name":  "Jonas Schmedtmann",
		"role":  "admin",
		"photo": "hacked.jpg",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDefaultsAndLowercases(t *testing.T) {
	svc, mock := newUserService(t)
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("FROM `users`").WillReturnRows(userRow(nil))

	_, err := svc.Create(context.Background(), map[string]any{
		"name":            "Lourdes Browning",
		"email":           "Loulou@Example.com",
		"password":        "test1234",
		"passwordConfirm": "test1234",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateMismatchedConfirm(t *testing.T) {
	svc, _ := newUserService(t)
	_, err := svc.Create(context.Background(), map[string]any{
		"name":            "Lourdes Browning",
		"email":           "loulou@example.com",
		"password":        "test1234",
		"passwordConfirm": "test4321",
	})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "Passwords are not the same!")
}

func TestUserDeleteMeMissingIsNotFound(t *testing.T) {
	svc, mock := newUserService(t)
	mock.ExpectExec("UPDATE `users` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	err := svc.DeleteMe(context.Background(), 7)
	require.True(t, domain.IsNotFound(err), "got %v", err)
}

func TestValidatorMessages(t *testing.T) {
	v := NewValidator()

	err := v.Struct(models.UserInput{Email: "not-an-email", Password: "short", PasswordConfirm: "other", Role: "boss"})
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"Please provide name",
		"Please provide a valid email",
		"password must have at least 8 characters",
		"Passwords are not the same!",
		"role is either: user, guide, lead-guide, admin",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %q", want, msg)
	}

	assert.NoError(t, v.Struct(models.ReviewInput{Review: "ok", Rating: 4, Tour: 1, User: 2}))
	err = v.Struct(models.ReviewInput{Review: "ok", Rating: 0.5, Tour: 1, User: 2})
	assert.Contains(t, err.Error(), "rating must be at least 1")
}
