package repositories

import (
	"context"
	"net/url"
	"time"

	"natours/internal/domain/models"
	"natours/internal/query"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
)

// UserSchema never exposes credentials or the active flag.
var UserSchema = query.NewSchema("-createdAt",
	query.Field{Name: "id", Column: "id", Kind: query.Number},
	query.Field{Name: "name", Column: "name"},
	query.Field{Name: "email", Column: "email"},
	query.Field{Name: "photo", Column: "photo"},
	query.Field{Name: "role", Column: "role"},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Time},
)

var userColumns = []any{
	"id", "name", "email", "photo", "role", "password", "password_changed_at",
	"password_reset_token", "password_reset_expires", "active", "created_at",
}

type UserRepository struct {
	DB *sqlx.DB
}

// Base hides deactivated accounts from every read.
func (r UserRepository) Base() *goqu.SelectDataset {
	return dialect.From("users").Prepared(true).Where(goqu.C("active").IsTrue())
}

func (r UserRepository) Query(params url.Values) *query.Features {
	return query.New(r.Base(), params, UserSchema)
}

func (r UserRepository) Find(ctx context.Context, f *query.Features) ([]models.User, error) {
	out := []models.User{}
	if err := selectAll(ctx, r.DB, f.Dataset(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r UserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	return r.findOne(ctx, goqu.C("id").Eq(id))
}

func (r UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, goqu.C("email").Eq(email))
}

// FindByResetToken matches the hashed token and requires it to be unexpired.
func (r UserRepository) FindByResetToken(ctx context.Context, hashed string, now time.Time) (models.User, error) {
	return r.findOne(ctx, goqu.And(
		goqu.C("password_reset_token").Eq(hashed),
		goqu.C("password_reset_expires").Gt(now.UTC()),
	))
}

func (r UserRepository) findOne(ctx context.Context, pred exp.Expression) (models.User, error) {
	var u models.User
	ds := r.Base().Select(userColumns...).Where(pred)
	if err := getOne(ctx, r.DB, ds, &u, "user"); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Create stores an already hashed user. A preset ID is kept (dev-data import).
func (r UserRepository) Create(ctx context.Context, u models.User) (int64, error) {
	rec := goqu.Record{
		"name":     u.Name,
		"email":    u.Email,
		"photo":    u.Photo,
		"role":     string(u.Role),
		"password": u.Password,
		"active":   true,
	}
	if u.ID > 0 {
		rec["id"] = u.ID
	}
	if u.PasswordChangedAt != nil {
		rec["password_changed_at"] = u.PasswordChangedAt.UTC()
	}
	res, err := exec(ctx, r.DB, dialect.Insert("users").Prepared(true).Rows(rec))
	if err != nil {
		return 0, writeErr(err, "user")
	}
	return res.LastInsertId()
}

// UpdateProfile writes the non-credential fields.
func (r UserRepository) UpdateProfile(ctx context.Context, id int64, in models.UserUpdate) error {
	rec := goqu.Record{"name": in.Name, "email": in.Email, "photo": in.Photo}
	if in.Role != "" {
		rec["role"] = in.Role
	}
	_, err := exec(ctx, r.DB, dialect.Update("users").Prepared(true).Set(rec).
		Where(goqu.C("id").Eq(id), goqu.C("active").IsTrue()))
	return writeErr(err, "user")
}

// SetPassword stores a new hash and clears any pending reset token.
func (r UserRepository) SetPassword(ctx context.Context, id int64, hash string, changedAt time.Time) error {
	upd := dialect.Update("users").Prepared(true).Set(goqu.Record{
		"password":               hash,
		"password_changed_at":    changedAt.UTC(),
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	}).Where(goqu.C("id").Eq(id))
	_, err := exec(ctx, r.DB, upd)
	return err
}

// SetResetToken stores or clears (nil) the hashed reset token.
func (r UserRepository) SetResetToken(ctx context.Context, id int64, hashed *string, expires *time.Time) error {
	rec := goqu.Record{"password_reset_token": nil, "password_reset_expires": nil}
	if hashed != nil && expires != nil {
		rec["password_reset_token"] = *hashed
		rec["password_reset_expires"] = expires.UTC()
	}
	_, err := exec(ctx, r.DB, dialect.Update("users").Prepared(true).Set(rec).Where(goqu.C("id").Eq(id)))
	return err
}

// Deactivate is the soft delete behind /deleteMe.
func (r UserRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := exec(ctx, r.DB, dialect.Update("users").Prepared(true).
		Set(goqu.Record{"active": false}).
		Where(goqu.C("id").Eq(id), goqu.C("active").IsTrue()))
	if err != nil {
		return err
	}
	return affected(res, "user")
}

func (r UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := exec(ctx, r.DB, dialect.Delete("users").Prepared(true).
		Where(goqu.C("id").Eq(id), goqu.C("active").IsTrue()))
	if err != nil {
		return err
	}
	return affected(res, "user")
}

func (r UserRepository) DeleteAll(ctx context.Context) error {
	_, err := exec(ctx, r.DB, dialect.Delete("users").Prepared(true))
	return err
}

// Authors loads the public profile of many active users in one query.
func (r UserRepository) Authors(ctx context.Context, ids []int64) (map[int64]models.ReviewAuthor, error) {
	out := make(map[int64]models.ReviewAuthor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ReviewAuthor
	ds := r.Base().Select("id", "name", "photo").Where(goqu.C("id").In(int64Args(ids)...))
	if err := selectAll(ctx, r.DB, ds, &rows); err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.ID] = a
	}
	return out, nil
}
