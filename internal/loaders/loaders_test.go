package loaders

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"natours/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   [][]int64
	failing bool
}

func (f *fakeSource) record(ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]int64(nil), ids...))
	if f.failing {
		return errors.New("db down")
	}
	return nil
}

func (f *fakeSource) StartDates(_ context.Context, ids []int64) (map[int64][]time.Time, error) {
	if err := f.record(ids); err != nil {
		return nil, err
	}
	out := map[int64][]time.Time{}
	for _, id := range ids {
		if id != 3 {
			out[id] = []time.Time{time.Date(2021, time.Month(id), 1, 0, 0, 0, 0, time.UTC)}
		}
	}
	return out, nil
}

func (f *fakeSource) Guides(_ context.Context, ids []int64) (map[int64][]models.Guide, error) {
	if err := f.record(ids); err != nil {
		return nil, err
	}
	return map[int64][]models.Guide{1: {{ID: 10, Name: "Leo"}}}, nil
}

func (f *fakeSource) ForTours(_ context.Context, ids []int64) (map[int64][]models.Review, error) {
	if err := f.record(ids); err != nil {
		return nil, err
	}
	return map[int64][]models.Review{}, nil
}

func (f *fakeSource) Authors(_ context.Context, ids []int64) (map[int64]models.ReviewAuthor, error) {
	if err := f.record(ids); err != nil {
		return nil, err
	}
	return map[int64]models.ReviewAuthor{7: {ID: 7, Name: "Jonas"}}, nil
}

func TestLoadersBatchAndCache(t *testing.T) {
	src := &fakeSource{}
	l := New(src, src, src)
	ctx := context.Background()

	dates, err := l.StartDates(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, dates[1], 1)
	assert.Len(t, dates[2], 1)
	assert.Empty(t, dates[3])
	require.Len(t, src.calls, 1)
	assert.ElementsMatch(t, []int64{1, 2, 3}, src.calls[0])

	_, err = l.StartDates(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, src.calls, 1, "cached keys must not hit the source again")

	l.ForgetTour(ctx, 1)
	_, err = l.StartDates(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, src.calls, 2)
	assert.Equal(t, []int64{1}, src.calls[1])
}

func TestLoadersMissingAuthorIsZero(t *testing.T) {
	src := &fakeSource{}
	l := New(src, src, src)

	authors, err := l.Authors(context.Background(), []int64{7, 8})
	require.NoError(t, err)
	assert.Equal(t, "Jonas", authors[7].Name)
	assert.Zero(t, authors[8].ID)
}

func TestLoadersPropagateErrors(t *testing.T) {
	src := &fakeSource{failing: true}
	l := New(src, src, src)

	_, err := l.Guides(context.Background(), []int64{1})
	assert.EqualError(t, err, "db down")
}

func TestMiddlewareAttachesLoaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	src := &fakeSource{}
	r := gin.New()
	r.Use(Middleware(func() *Loaders { return New(src, src, src) }))

	var seen *Loaders
	r.GET("/", func(c *gin.Context) {
		seen = For(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotNil(t, seen)
	assert.Nil(t, For(context.Background()))
}
