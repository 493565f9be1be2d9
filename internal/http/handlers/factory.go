package handlers

import (
	"context"
	"net/http"
	"net/url"

	"natours/internal/query"

	"github.com/gin-gonic/gin"
)

// Store is what the generic CRUD handlers need from a service.
type Store[T any] interface {
	Query(params url.Values) *query.Features
	Find(ctx context.Context, f *query.Features) ([]T, error)
	FindByID(ctx context.Context, id int64, populate ...string) (T, error)
	Create(ctx context.Context, body map[string]any) (T, error)
	Update(ctx context.Context, id int64, body map[string]any) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Factory builds the five CRUD handlers for one resource.
type Factory[T any] struct {
	Store    Store[T]
	Singular string
	Plural   string
	// Populate is passed to FindByID by GetOne.
	Populate []string
	// Scope narrows GetAll with route-derived filters (nested routes).
	Scope func(c *gin.Context, f *query.Features) error
	// Prepare fills body defaults before CreateOne.
	Prepare func(c *gin.Context, body map[string]any) error
}

func (f Factory[T]) GetAll(c *gin.Context) {
	feats := f.Store.Query(c.Request.URL.Query())
	if f.Scope != nil {
		if err := f.Scope(c, feats); err != nil {
			fail(c, err)
			return
		}
	}
	feats.Filter().Sort().LimitFields().Paginate()

	records, err := f.Store.Find(c.Request.Context(), feats)
	if err != nil {
		fail(c, err)
		return
	}
	shaped, err := query.Project(records, feats.Fields())
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, f.Plural, shaped)
}

func (f Factory[T]) GetOne(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := f.Store.FindByID(c.Request.Context(), id, f.Populate...)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{f.Singular: doc})
}

func (f Factory[T]) CreateOne(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	if f.Prepare != nil {
		if err := f.Prepare(c, body); err != nil {
			fail(c, err)
			return
		}
	}
	doc, err := f.Store.Create(c.Request.Context(), body)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{f.Singular: doc})
}

func (f Factory[T]) UpdateOne(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := f.Store.Update(c.Request.Context(), id, body)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{f.Singular: doc})
}

func (f Factory[T]) DeleteOne(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := f.Store.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
