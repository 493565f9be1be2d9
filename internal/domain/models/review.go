package models

import "time"

type Review struct {
	ID        int64         `json:"id" db:"id"`
	Review    string        `json:"review" db:"review"`
	Rating    float64       `json:"rating" db:"rating"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	TourID    int64         `json:"tour" db:"tour_id"`
	UserID    int64         `json:"userId" db:"user_id"`
	User      *ReviewAuthor `json:"user,omitempty" db:"-"`
}

// ReviewAuthor is the populated user on a review.
type ReviewAuthor struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Photo string `json:"photo" db:"photo"`
}

type ReviewInput struct {
	Review string  `json:"review" validate:"required"`
	Rating float64 `json:"rating" validate:"required,min=1,max=5"`
	Tour   int64   `json:"tour" validate:"required,gt=0"`
	User   int64   `json:"user" validate:"required,gt=0"`
}

func (r Review) Input() ReviewInput {
	return ReviewInput{Review: r.Review, Rating: r.Rating, Tour: r.TourID, User: r.UserID}
}

// RatingStats is the per-tour aggregate written back after review changes.
type RatingStats struct {
	Quantity int     `db:"n_rating"`
	Average  float64 `db:"avg_rating"`
}
