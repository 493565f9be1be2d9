package services

import (
	"context"
	"net/url"
	"strings"

	"natours/internal/domain"
	"natours/internal/domain/models"
	"natours/internal/loaders"
	"natours/internal/query"
	"natours/internal/repositories"
)

const passwordRouteMsg = "This route is not for password updates. Please use /updateMyPassword."

// UserService backs the admin user routes and the /me family.
type UserService struct {
	Repo      repositories.UserRepository
	Validator *Validator
}

func (s UserService) Query(params url.Values) *query.Features {
	return s.Repo.Query(params)
}

func (s UserService) Find(ctx context.Context, f *query.Features) ([]models.User, error) {
	return s.Repo.Find(ctx, f)
}

func (s UserService) FindByID(ctx context.Context, id int64, _ ...string) (models.User, error) {
	return s.Repo.FindByID(ctx, id)
}

// Create registers a user from a signup-shaped body.
func (s UserService) Create(ctx context.Context, body map[string]any) (models.User, error) {
	var in models.UserInput
	if err := applyBody(body, &in); err != nil {
		return models.User{}, err
	}
	return s.register(ctx, in)
}

func (s UserService) register(ctx context.Context, in models.UserInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.Validator.Struct(in); err != nil {
		return models.User{}, err
	}
	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return models.User{}, domain.InternalError{Msg: "failed to hash password", Err: err}
	}
	u := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Photo:    in.Photo,
		Role:     domain.Role(in.Role),
		Password: hash,
	}
	if u.Photo == "" {
		u.Photo = "default.jpg"
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	id, err := s.Repo.Create(ctx, u)
	if err != nil {
		return models.User{}, err
	}
	return s.Repo.FindByID(ctx, id)
}

// Update changes profile fields only; passwords have their own routes.
func (s UserService) Update(ctx context.Context, id int64, body map[string]any) (models.User, error) {
	if has(body, "password", "passwordConfirm") {
		return models.User{}, domain.ValidationError{Field: "password", Msg: passwordRouteMsg}
	}
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	in := existing.Update()
	if err := applyBody(body, &in); err != nil {
		return models.User{}, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.Validator.Struct(in); err != nil {
		return models.User{}, err
	}
	if err := s.Repo.UpdateProfile(ctx, id, in); err != nil {
		return models.User{}, err
	}
	forgetUser(ctx, id)
	return s.Repo.FindByID(ctx, id)
}

func (s UserService) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	forgetUser(ctx, id)
	return nil
}

// UpdateMe lets a user change their own name and email; every other key is
// dropped.
func (s UserService) UpdateMe(ctx context.Context, id int64, body map[string]any) (models.User, error) {
	if has(body, "password", "passwordConfirm") {
		return models.User{}, domain.ValidationError{Field: "password", Msg: passwordRouteMsg}
	}
	filtered := map[string]any{}
	for _, k := range []string{"name", "email"} {
		if v, ok := body[k]; ok {
			filtered[k] = v
		}
	}
	return s.Update(ctx, id, filtered)
}

// DeleteMe deactivates the account; it disappears from every read.
func (s UserService) DeleteMe(ctx context.Context, id int64) error {
	if err := s.Repo.Deactivate(ctx, id); err != nil {
		return err
	}
	forgetUser(ctx, id)
	return nil
}

// forgetUser drops the cached author of the current request, if any.
func forgetUser(ctx context.Context, id int64) {
	if l := loaders.For(ctx); l != nil {
		l.ForgetUser(ctx, id)
	}
}
