// Package loaders batches relationship lookups (guides, start dates, reviews,
// review authors) per request.
package loaders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"natours/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader"
)

type ctxKey string

const loadersKey ctxKey = "loaders"

type TourRelations interface {
	StartDates(ctx context.Context, tourIDs []int64) (map[int64][]time.Time, error)
	Guides(ctx context.Context, tourIDs []int64) (map[int64][]models.Guide, error)
}

type ReviewSource interface {
	ForTours(ctx context.Context, tourIDs []int64) (map[int64][]models.Review, error)
}

type AuthorSource interface {
	Authors(ctx context.Context, userIDs []int64) (map[int64]models.ReviewAuthor, error)
}

// Loaders caches for the lifetime of one request; writes must Forget the
// keys they touch.
type Loaders struct {
	startDates *dataloader.Loader
	guides     *dataloader.Loader
	reviews    *dataloader.Loader
	authors    *dataloader.Loader
}

func New(tours TourRelations, reviews ReviewSource, users AuthorSource) *Loaders {
	wait := dataloader.WithWait(5 * time.Millisecond)
	return &Loaders{
		startDates: dataloader.NewBatchedLoader(batch(tours.StartDates), wait),
		guides:     dataloader.NewBatchedLoader(batch(tours.Guides), wait),
		reviews:    dataloader.NewBatchedLoader(batch(reviews.ForTours), wait),
		authors:    dataloader.NewBatchedLoader(batch(users.Authors), wait),
	}
}

// Middleware attaches fresh loaders to every request context.
func Middleware(newLoaders func() *Loaders) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), loadersKey, newLoaders())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request's loaders, nil outside a request.
func For(ctx context.Context) *Loaders {
	if l, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return l
	}
	return nil
}

func (l *Loaders) StartDates(ctx context.Context, tourIDs []int64) (map[int64][]time.Time, error) {
	return loadMany[[]time.Time](ctx, l.startDates, tourIDs)
}

func (l *Loaders) Guides(ctx context.Context, tourIDs []int64) (map[int64][]models.Guide, error) {
	return loadMany[[]models.Guide](ctx, l.guides, tourIDs)
}

func (l *Loaders) Reviews(ctx context.Context, tourIDs []int64) (map[int64][]models.Review, error) {
	return loadMany[[]models.Review](ctx, l.reviews, tourIDs)
}

func (l *Loaders) Authors(ctx context.Context, userIDs []int64) (map[int64]models.ReviewAuthor, error) {
	return loadMany[models.ReviewAuthor](ctx, l.authors, userIDs)
}

// ForgetTour drops every cached relation of a tour after it was written.
func (l *Loaders) ForgetTour(ctx context.Context, tourID int64) {
	k := key(tourID)
	l.startDates.Clear(ctx, k)
	l.guides.Clear(ctx, k)
	l.reviews.Clear(ctx, k)
}

func (l *Loaders) ForgetUser(ctx context.Context, userID int64) {
	l.authors.Clear(ctx, key(userID))
}

func key(id int64) dataloader.Key {
	return dataloader.StringKey(strconv.FormatInt(id, 10))
}

func batch[V any](fetch func(context.Context, []int64) (map[int64]V, error)) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))
		ids := make([]int64, len(keys))
		for i, k := range keys {
			id, err := strconv.ParseInt(k.String(), 10, 64)
			if err != nil {
				for j := range results {
					results[j] = &dataloader.Result{Error: fmt.Errorf("invalid key %q: %w", k.String(), err)}
				}
				return results
			}
			ids[i] = id
		}

		found, err := fetch(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		for i, id := range ids {
			var zero V
			if v, ok := found[id]; ok {
				results[i] = &dataloader.Result{Data: v}
			} else {
				results[i] = &dataloader.Result{Data: zero}
			}
		}
		return results
	}
}

func loadMany[V any](ctx context.Context, l *dataloader.Loader, ids []int64) (map[int64]V, error) {
	out := make(map[int64]V, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}

	results, errs := l.LoadMany(ctx, keys)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for i, r := range results {
		if v, ok := r.(V); ok {
			out[ids[i]] = v
		}
	}
	return out, nil
}
