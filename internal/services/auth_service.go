package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"natours/internal/domain"
	"natours/internal/domain/models"
	"natours/internal/repositories"
	"natours/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// Mailer delivers password reset messages.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, _ string) error {
	utils.LogEvent(utils.RequestIDFrom(ctx), "mail", "send", fmt.Sprintf("to=%s subject=%q", to, subject))
	return nil
}

type passwordChange struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// AuthService issues and checks JWTs and runs the password flows.
type AuthService struct {
	Users     UserService
	Secret    []byte
	ExpiresIn time.Duration
	Mailer    Mailer
	Now       func() time.Time
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) repo() repositories.UserRepository { return s.Users.Repo }

// SignToken issues an HS256 token carrying the user id.
func (s AuthService) SignToken(id int64) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  id,
		"iat": now.Unix(),
		"exp": now.Add(s.ExpiresIn).Unix(),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", domain.InternalError{Msg: "failed to sign token", Err: err}
	}
	return signed, nil
}

// Signup always creates a plain user regardless of the requested role.
func (s AuthService) Signup(ctx context.Context, body map[string]any) (models.User, string, error) {
	var in models.UserInput
	if err := applyBody(body, &in); err != nil {
		return models.User{}, "", err
	}
	in.Role = string(domain.RoleUser)
	u, err := s.Users.register(ctx, in)
	if err != nil {
		return models.User{}, "", err
	}
	token, err := s.SignToken(u.ID)
	return u, token, err
}

func (s AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.User{}, "", domain.ValidationError{Msg: "Please provide email and password!"}
	}
	u, err := s.repo().FindByEmail(ctx, email)
	if err != nil && !domain.IsNotFound(err) {
		return models.User{}, "", err
	}
	if err != nil || !u.CorrectPassword(password) {
		return models.User{}, "", domain.AuthError{Msg: "Incorrect email or password"}
	}
	token, err := s.SignToken(u.ID)
	return u, token, err
}

// Authenticate resolves a token to its still-valid user.
func (s AuthService) Authenticate(ctx context.Context, raw string) (models.User, error) {
	if raw == "" {
		return models.User{}, domain.AuthError{}
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.User{}, domain.AuthError{Msg: "Your token has expired! Please log in again.", Err: err}
		}
		return models.User{}, domain.AuthError{Msg: "Invalid token. Please log in again!", Err: err}
	}

	idVal, ok := claims["id"].(float64)
	if !ok {
		return models.User{}, domain.AuthError{Msg: "Invalid token. Please log in again!"}
	}
	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return models.User{}, domain.AuthError{Msg: "Invalid token. Please log in again!", Err: err}
	}

	u, err := s.repo().FindByID(ctx, int64(idVal))
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, domain.AuthError{Msg: "The user belonging to this token does no longer exist."}
		}
		return models.User{}, err
	}
	if u.ChangedPasswordAfter(issuedAt.Time) {
		return models.User{}, domain.AuthError{Msg: "User recently changed password! Please log in again."}
	}
	return u, nil
}

// ForgotPassword stores a reset token and mails the plain one. resetURL gets
// the token appended.
func (s AuthService) ForgotPassword(ctx context.Context, email, resetURL string) error {
	u, err := s.repo().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.NotFoundError{Resource: "user", Msg: "There is no user with email address.", Err: err}
		}
		return err
	}

	token, err := u.CreatePasswordResetToken(s.now())
	if err != nil {
		return domain.InternalError{Msg: "failed to create reset token", Err: err}
	}
	if err := s.repo().SetResetToken(ctx, u.ID, u.PasswordResetToken, u.PasswordResetExpires); err != nil {
		return err
	}

	body := fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s%s.\n"+
		"If you didn't forget your password, please ignore this email!", resetURL, token)
	if err := s.Mailer.Send(ctx, u.Email, "Your password reset token (valid for 10 min)", body); err != nil {
		_ = s.repo().SetResetToken(ctx, u.ID, nil, nil)
		return domain.InternalError{Msg: "There was an error sending the email. Try again later!", Public: true, Err: err}
	}
	return nil
}

func (s AuthService) ResetPassword(ctx context.Context, token string, body map[string]any) (models.User, string, error) {
	u, err := s.repo().FindByResetToken(ctx, models.HashResetToken(token), s.now())
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, "", domain.ValidationError{Msg: "Token is invalid or has expired"}
		}
		return models.User{}, "", err
	}
	if err := s.setPassword(ctx, u.ID, body); err != nil {
		return models.User{}, "", err
	}
	jwtToken, err := s.SignToken(u.ID)
	return u, jwtToken, err
}

// UpdatePassword requires the current password before accepting a new one.
func (s AuthService) UpdatePassword(ctx context.Context, userID int64, body map[string]any) (models.User, string, error) {
	u, err := s.repo().FindByID(ctx, userID)
	if err != nil {
		return models.User{}, "", err
	}
	current, _ := body["passwordCurrent"].(string)
	if !u.CorrectPassword(current) {
		return models.User{}, "", domain.AuthError{Msg: "Your current password is wrong."}
	}
	if err := s.setPassword(ctx, u.ID, body); err != nil {
		return models.User{}, "", err
	}
	token, err := s.SignToken(u.ID)
	return u, token, err
}

func (s AuthService) setPassword(ctx context.Context, id int64, body map[string]any) error {
	var in passwordChange
	if err := applyBody(body, &in); err != nil {
		return err
	}
	if err := s.Users.Validator.Struct(in); err != nil {
		return err
	}
	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return domain.InternalError{Msg: "failed to hash password", Err: err}
	}
	// backdated so a token signed right after still counts as newer
	return s.repo().SetPassword(ctx, id, hash, s.now().Add(-time.Second))
}
