package services

import (
	"context"
	"fmt"
	"net/url"

	"natours/internal/domain/models"
	"natours/internal/loaders"
	"natours/internal/query"
	"natours/internal/repositories"
	"natours/internal/utils"
)

const defaultRating = 4.5

// ReviewService keeps tour rating stats in step with review writes.
type ReviewService struct {
	Repo      repositories.ReviewRepository
	Tours     repositories.TourRepository
	Users     repositories.UserRepository
	Validator *Validator
}

func (s ReviewService) loaders(ctx context.Context) *loaders.Loaders {
	if l := loaders.For(ctx); l != nil {
		return l
	}
	return loaders.New(s.Tours, s.Repo, s.Users)
}

func (s ReviewService) Query(params url.Values) *query.Features {
	return s.Repo.Query(params)
}

func (s ReviewService) Find(ctx context.Context, f *query.Features) ([]models.Review, error) {
	reviews, err := s.Repo.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if f.Wants("userId") {
		if err := attachAuthors(ctx, s.loaders(ctx), reviews); err != nil {
			return nil, err
		}
	}
	return reviews, nil
}

func (s ReviewService) FindByID(ctx context.Context, id int64, _ ...string) (models.Review, error) {
	r, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return models.Review{}, err
	}
	list := []models.Review{r}
	if err := attachAuthors(ctx, s.loaders(ctx), list); err != nil {
		return models.Review{}, err
	}
	return list[0], nil
}

// Create requires a visible tour; one review per user and tour is enforced by
// the store.
func (s ReviewService) Create(ctx context.Context, body map[string]any) (models.Review, error) {
	var in models.ReviewInput
	if err := applyBody(body, &in); err != nil {
		return models.Review{}, err
	}
	if err := s.Validator.Struct(in); err != nil {
		return models.Review{}, err
	}
	if _, err := s.Tours.FindByID(ctx, in.Tour); err != nil {
		return models.Review{}, err
	}
	id, err := s.Repo.Create(ctx, in)
	if err != nil {
		return models.Review{}, err
	}
	if err := s.recalc(ctx, in.Tour); err != nil {
		return models.Review{}, err
	}
	return s.FindByID(ctx, id)
}

func (s ReviewService) Update(ctx context.Context, id int64, body map[string]any) (models.Review, error) {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return models.Review{}, err
	}
	in := existing.Input()
	if err := applyBody(body, &in); err != nil {
		return models.Review{}, err
	}
	if err := s.Validator.Struct(in); err != nil {
		return models.Review{}, err
	}
	if in.Tour != existing.TourID {
		if _, err := s.Tours.FindByID(ctx, in.Tour); err != nil {
			return models.Review{}, err
		}
	}
	if err := s.Repo.Update(ctx, id, in); err != nil {
		return models.Review{}, err
	}
	for _, tourID := range uniqueIDs([]int64{existing.TourID, in.Tour}) {
		if err := s.recalc(ctx, tourID); err != nil {
			return models.Review{}, err
		}
	}
	return s.FindByID(ctx, id)
}

func (s ReviewService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.recalc(ctx, existing.TourID)
}

// Import stores many reviews and recalculates each touched tour once.
func (s ReviewService) Import(ctx context.Context, inputs []models.ReviewInput) error {
	tourIDs := make([]int64, 0, len(inputs))
	for _, in := range inputs {
		if err := s.Validator.Struct(in); err != nil {
			return err
		}
		if _, err := s.Repo.Create(ctx, in); err != nil {
			return err
		}
		tourIDs = append(tourIDs, in.Tour)
	}
	for _, id := range uniqueIDs(tourIDs) {
		if err := s.recalc(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// recalc writes the tour's review count and rounded average, falling back to
// the default rating once no reviews remain.
func (s ReviewService) recalc(ctx context.Context, tourID int64) error {
	stats, err := s.Repo.CalcRatings(ctx, tourID)
	if err != nil {
		return err
	}
	if stats.Quantity == 0 {
		stats.Average = defaultRating
	} else {
		stats.Average = models.RoundRating(stats.Average)
	}
	if err := s.Tours.SetRatings(ctx, tourID, stats); err != nil {
		return err
	}
	s.loaders(ctx).ForgetTour(ctx, tourID)
	utils.LogEvent(utils.RequestIDFrom(ctx), "reviews", "recalc",
		fmt.Sprintf("tour_id=%d n_rating=%d avg_rating=%.1f", tourID, stats.Quantity, stats.Average))
	return nil
}

// attachAuthors fills review.User from the author loader; deactivated authors
// stay empty.
func attachAuthors(ctx context.Context, l *loaders.Loaders, reviews []models.Review) error {
	ids := make([]int64, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.UserID)
	}
	authors, err := l.Authors(ctx, uniqueIDs(ids))
	if err != nil {
		return err
	}
	for i := range reviews {
		if a, ok := authors[reviews[i].UserID]; ok && a.ID != 0 {
			author := a
			reviews[i].User = &author
		}
	}
	return nil
}
