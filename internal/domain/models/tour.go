package models

import (
	"math"
	"time"

	"natours/internal/domain"

	"github.com/paulmach/orb"
)

// GeoPoint is a GeoJSON point; coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates orb.Point `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

type Tour struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Slug            string            `json:"slug"`
	Duration        int               `json:"duration"`
	MaxGroupSize    int               `json:"maxGroupSize"`
	Difficulty      domain.Difficulty `json:"difficulty"`
	RatingsAverage  float64           `json:"ratingsAverage"`
	RatingsQuantity int               `json:"ratingsQuantity"`
	Price           float64           `json:"price"`
	PriceDiscount   *float64          `json:"priceDiscount,omitempty"`
	Summary         string            `json:"summary"`
	Description     string            `json:"description"`
	ImageCover      string            `json:"imageCover"`
	Images          []string          `json:"images"`
	CreatedAt       *time.Time        `json:"createdAt,omitempty"`
	StartDates      []time.Time       `json:"startDates"`
	SecretTour      bool              `json:"secretTour"`
	StartLocation   GeoPoint          `json:"startLocation"`
	Locations       []GeoPoint        `json:"locations"`
	Guides          []Guide           `json:"guides"`
	Reviews         []Review          `json:"reviews,omitempty"`
	DurationWeeks   float64           `json:"durationWeeks"`
}

// Guide is the populated form of a tour guide reference.
type Guide struct {
	ID    int64       `json:"id" db:"id"`
	Name  string      `json:"name" db:"name"`
	Email string      `json:"email" db:"email"`
	Photo string      `json:"photo" db:"photo"`
	Role  domain.Role `json:"role" db:"role"`
}

// Finalize fills the derived fields after a load.
func (t *Tour) Finalize() {
	t.DurationWeeks = float64(t.Duration) / 7
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	if t.Locations == nil {
		t.Locations = []GeoPoint{}
	}
	if t.Guides == nil {
		t.Guides = []Guide{}
	}
	if t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
}

// TourInput is the writable shape of a tour, used for both create and the
// merged result of a partial update.
type TourInput struct {
	Name            string     `json:"name" validate:"required,min=10,max=40"`
	Duration        int        `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int        `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      string     `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64    `json:"ratingsAverage" validate:"min=1,max=5"`
	RatingsQuantity int        `json:"ratingsQuantity" validate:"min=0"`
	Price           float64    `json:"price" validate:"required,gt=0"`
	PriceDiscount   *float64   `json:"priceDiscount" validate:"omitempty,min=0"`
	Summary         string     `json:"summary"`
	Description     string     `json:"description" validate:"required"`
	ImageCover      string     `json:"imageCover" validate:"required"`
	Images          []string   `json:"images"`
	StartDates      []string   `json:"startDates"`
	SecretTour      bool       `json:"secretTour"`
	StartLocation   GeoPoint   `json:"startLocation"`
	Locations       []GeoPoint `json:"locations"`
	Guides          []int64    `json:"guides"`
}

// NewTourInput returns an input carrying the schema defaults.
func NewTourInput() TourInput {
	return TourInput{RatingsAverage: 4.5}
}

// Input converts a stored tour back into its writable shape so a patch can be
// applied on top of it.
func (t Tour) Input() TourInput {
	in := TourInput{
		Name:            t.Name,
		Duration:        t.Duration,
		MaxGroupSize:    t.MaxGroupSize,
		Difficulty:      string(t.Difficulty),
		RatingsAverage:  t.RatingsAverage,
		RatingsQuantity: t.RatingsQuantity,
		Price:           t.Price,
		PriceDiscount:   t.PriceDiscount,
		Summary:         t.Summary,
		Description:     t.Description,
		ImageCover:      t.ImageCover,
		Images:          t.Images,
		SecretTour:      t.SecretTour,
		StartLocation:   t.StartLocation,
		Locations:       t.Locations,
	}
	for _, d := range t.StartDates {
		in.StartDates = append(in.StartDates, d.Format(time.RFC3339))
	}
	for _, g := range t.Guides {
		in.Guides = append(in.Guides, g.ID)
	}
	return in
}

// RoundRating keeps one decimal, e.g. 4.666 -> 4.7.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// TourStats is one row of the ratings summary report.
type TourStats struct {
	Difficulty string  `json:"difficulty" db:"difficulty"`
	NumTours   int     `json:"numTours" db:"num_tours"`
	NumRatings int     `json:"numRatings" db:"num_ratings"`
	AvgRating  float64 `json:"avgRating" db:"avg_rating"`
	AvgPrice   float64 `json:"avgPrice" db:"avg_price"`
	MinPrice   float64 `json:"minPrice" db:"min_price"`
	MaxPrice   float64 `json:"maxPrice" db:"max_price"`
}

// MonthlyPlan is one row of the monthly tour-start report.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourDistance is one row of the distances query.
type TourDistance struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Distance float64 `json:"distance" db:"distance"`
}
