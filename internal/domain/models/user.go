package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"natours/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordCost       = 12
	PasswordResetValid = 10 * time.Minute
)

type User struct {
	ID                   int64       `json:"id" db:"id"`
	Name                 string      `json:"name" db:"name"`
	Email                string      `json:"email" db:"email"`
	Photo                string      `json:"photo" db:"photo"`
	Role                 domain.Role `json:"role" db:"role"`
	Password             string      `json:"-" db:"password"` // bcrypt hash, never serialized
	PasswordChangedAt    *time.Time  `json:"-" db:"password_changed_at"`
	PasswordResetToken   *string     `json:"-" db:"password_reset_token"`
	PasswordResetExpires *time.Time  `json:"-" db:"password_reset_expires"`
	Active               bool        `json:"-" db:"active"`
	CreatedAt            time.Time   `json:"createdAt" db:"created_at"`
}

// UserInput is the signup/admin shape; PasswordConfirm is never stored.
type UserInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Photo           string `json:"photo"`
	Role            string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// UserUpdate is what admins and /updateMe may change; passwords go through
// their own routes.
type UserUpdate struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Photo string `json:"photo"`
	Role  string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
}

func (u User) Update() UserUpdate {
	return UserUpdate{Name: u.Name, Email: u.Email, Photo: u.Photo, Role: string(u.Role)}
}

// HashPassword uses the same cost for signup, reset and change.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (u *User) CorrectPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
}

// ChangedPasswordAfter reports whether the password changed after a token was issued.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// CreatePasswordResetToken stores the sha256 of a fresh random token on the
// user and returns the plain token for delivery.
func (u *User) CreatePasswordResetToken(now time.Time) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	hashed := HashResetToken(token)
	expires := now.Add(PasswordResetValid)
	u.PasswordResetToken = &hashed
	u.PasswordResetExpires = &expires
	return token, nil
}

func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
