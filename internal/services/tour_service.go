package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"natours/internal/domain"
	"natours/internal/domain/models"
	"natours/internal/loaders"
	"natours/internal/query"
	"natours/internal/repositories"
	"natours/internal/utils"

	"github.com/paulmach/orb"
)

// TourService owns tour validation, derived fields and relationship loading.
type TourService struct {
	Repo      repositories.TourRepository
	Reviews   repositories.ReviewRepository
	Users     repositories.UserRepository
	Validator *Validator
}

func (s TourService) loaders(ctx context.Context) *loaders.Loaders {
	if l := loaders.For(ctx); l != nil {
		return l
	}
	return loaders.New(s.Repo, s.Reviews, s.Users)
}

func (s TourService) Query(params url.Values) *query.Features {
	return s.Repo.Query(params)
}

func (s TourService) Find(ctx context.Context, f *query.Features) ([]models.Tour, error) {
	tours, err := s.Repo.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, tours, f.Wants("startDates"), f.Wants("guides"), false); err != nil {
		return nil, err
	}
	return tours, nil
}

// FindByID always resolves start dates and guides; "reviews" in populate
// also loads the tour's reviews with their authors.
func (s TourService) FindByID(ctx context.Context, id int64, populate ...string) (models.Tour, error) {
	t, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return models.Tour{}, err
	}
	return s.finish(ctx, t, populate...)
}

func (s TourService) FindBySlug(ctx context.Context, slug string, populate ...string) (models.Tour, error) {
	t, err := s.Repo.FindBySlug(ctx, slug)
	if err != nil {
		return models.Tour{}, err
	}
	return s.finish(ctx, t, populate...)
}

func (s TourService) finish(ctx context.Context, t models.Tour, populate ...string) (models.Tour, error) {
	withReviews := false
	for _, p := range populate {
		if p == "reviews" {
			withReviews = true
		}
	}
	list := []models.Tour{t}
	if err := s.populate(ctx, list, true, true, withReviews); err != nil {
		return models.Tour{}, err
	}
	return list[0], nil
}

func (s TourService) populate(ctx context.Context, tours []models.Tour, dates, guides, reviews bool) error {
	ids := make([]int64, 0, len(tours))
	for _, t := range tours {
		ids = append(ids, t.ID)
	}
	l := s.loaders(ctx)

	if dates {
		byTour, err := l.StartDates(ctx, ids)
		if err != nil {
			return err
		}
		for i := range tours {
			tours[i].StartDates = byTour[tours[i].ID]
		}
	}
	if guides {
		byTour, err := l.Guides(ctx, ids)
		if err != nil {
			return err
		}
		for i := range tours {
			tours[i].Guides = byTour[tours[i].ID]
		}
	}
	if reviews {
		byTour, err := l.Reviews(ctx, ids)
		if err != nil {
			return err
		}
		for i := range tours {
			list := append([]models.Review{}, byTour[tours[i].ID]...)
			if err := attachAuthors(ctx, l, list); err != nil {
				return err
			}
			tours[i].Reviews = list
		}
	}
	for i := range tours {
		tours[i].Finalize()
	}
	return nil
}

// Create validates the body against the tour schema and stores it.
func (s TourService) Create(ctx context.Context, body map[string]any) (models.Tour, error) {
	in := models.NewTourInput()
	if err := applyBody(body, &in); err != nil {
		return models.Tour{}, err
	}
	w, err := s.prepare(in)
	if err != nil {
		return models.Tour{}, err
	}
	id, err := s.Repo.Create(ctx, w)
	if err != nil {
		return models.Tour{}, err
	}
	return s.FindByID(ctx, id)
}

// Update applies the patch to the stored tour and re-validates the merged
// result. Start dates and guides are only rewritten when the patch names them.
func (s TourService) Update(ctx context.Context, id int64, body map[string]any) (models.Tour, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Tour{}, err
	}
	in := existing.Input()
	if err := applyBody(body, &in); err != nil {
		return models.Tour{}, err
	}
	w, err := s.prepare(in)
	if err != nil {
		return models.Tour{}, err
	}
	if err := s.Repo.Update(ctx, id, w, has(body, "startDates"), has(body, "guides")); err != nil {
		return models.Tour{}, err
	}
	s.loaders(ctx).ForgetTour(ctx, id)
	return s.FindByID(ctx, id)
}

// Import stores a tour under a fixed id so seeded references stay stable.
func (s TourService) Import(ctx context.Context, id int64, body map[string]any) error {
	in := models.NewTourInput()
	if err := applyBody(body, &in); err != nil {
		return err
	}
	w, err := s.prepare(in)
	if err != nil {
		return err
	}
	w.ID = id
	_, err = s.Repo.Create(ctx, w)
	return err
}

func (s TourService) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.loaders(ctx).ForgetTour(ctx, id)
	return nil
}

// prepare validates an input and derives the stored form.
func (s TourService) prepare(in models.TourInput) (repositories.TourWrite, error) {
	if err := s.Validator.Struct(in); err != nil {
		return repositories.TourWrite{}, err
	}
	if in.PriceDiscount != nil && *in.PriceDiscount >= in.Price {
		return repositories.TourWrite{}, domain.ValidationError{
			Field:    "priceDiscount",
			Messages: []string{fmt.Sprintf("Discount price (%s) should be below regular price", strconv.FormatFloat(*in.PriceDiscount, 'f', -1, 64))},
		}
	}
	if in.StartLocation.Type != "" && in.StartLocation.Type != "Point" {
		return repositories.TourWrite{}, domain.ValidationError{
			Field:    "startLocation",
			Messages: []string{"startLocation type must be Point"},
		}
	}
	in.StartLocation.Type = "Point"
	for i := range in.Locations {
		in.Locations[i].Type = "Point"
	}
	in.RatingsAverage = models.RoundRating(in.RatingsAverage)
	in.Guides = uniqueIDs(in.Guides)

	dates := make([]time.Time, 0, len(in.StartDates))
	for _, raw := range in.StartDates {
		d, err := utils.ParseStartDate(raw)
		if err != nil {
			return repositories.TourWrite{}, domain.ValidationError{
				Field:    "startDates",
				Messages: []string{fmt.Sprintf("Invalid startDates: %s", raw)},
				Err:      err,
			}
		}
		dates = append(dates, d)
	}

	return repositories.TourWrite{Input: in, Slug: utils.Slugify(in.Name), StartDates: dates}, nil
}

// ParseLatLng reads the "lat,lng" path segment into an orb point (lng, lat).
func ParseLatLng(raw string) (orb.Point, error) {
	parts := utils.SplitList(raw)
	if len(parts) != 2 {
		return orb.Point{}, domain.ValidationError{Field: "latlng", Msg: "Please provide latitude and longitude in the format lat,lng."}
	}
	lat, errLat := parseFinite(parts[0])
	lng, errLng := parseFinite(parts[1])
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return orb.Point{}, domain.ValidationError{Field: "latlng", Msg: "Please provide latitude and longitude in the format lat,lng."}
	}
	return orb.Point{lng, lat}, nil
}

// parseFinite is strconv.ParseFloat without NaN and the infinities.
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", raw)
	}
	return v, nil
}

func parseUnit(raw string) (domain.Unit, error) {
	u := domain.Unit(raw)
	if !u.Valid() {
		return "", domain.ValidationError{Field: "unit", Msg: fmt.Sprintf("Invalid unit: %s. Use mi or km.", raw)}
	}
	return u, nil
}

// Within lists tours starting within distance (in unit) of center.
func (s TourService) Within(ctx context.Context, distanceRaw, latlng, unitRaw string) ([]models.Tour, error) {
	distance, err := parseFinite(distanceRaw)
	if err != nil || distance < 0 {
		return nil, domain.ValidationError{Field: "distance", Msg: fmt.Sprintf("Invalid distance: %s.", distanceRaw)}
	}
	center, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	unit, err := parseUnit(unitRaw)
	if err != nil {
		return nil, err
	}

	tours, err := s.Repo.Within(ctx, center, distance/unit.EarthRadius())
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, tours, true, true, false); err != nil {
		return nil, err
	}
	return tours, nil
}

// Distances lists every tour with its distance from center in unit.
func (s TourService) Distances(ctx context.Context, latlng, unitRaw string) ([]models.TourDistance, error) {
	center, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	unit, err := parseUnit(unitRaw)
	if err != nil {
		return nil, err
	}
	return s.Repo.Distances(ctx, center, unit.FromMeters())
}
