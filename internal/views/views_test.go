package views

import (
	"bytes"
	"testing"
	"time"

	"natours/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverviewRendersTourCards(t *testing.T) {
	tmpl := Templates()
	tour := models.Tour{
		Name:       "The Forest Hiker",
		Slug:       "the-forest-hiker",
		Duration:   5,
		Price:      397,
		StartDates: []time.Time{time.Date(2021, 4, 25, 9, 0, 0, 0, time.UTC)},
	}
	tour.Finalize()

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "overview.html", map[string]any{"title": "All Tours", "tours": []models.Tour{tour}})
	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, "<title>Natours | All Tours</title>")
	assert.Contains(t, html, `href="/tour/the-forest-hiker"`)
	assert.Contains(t, html, "April 2021")
	assert.Contains(t, html, "$397")
	assert.Contains(t, html, "Log in")
}

func TestTourPageShowsReviewStars(t *testing.T) {
	tour := models.Tour{
		Name:    "The Sea Explorer",
		Guides:  []models.Guide{{Name: "Miyah Myles", Role: "lead-guide"}},
		Reviews: []models.Review{{Review: "Great", Rating: 4, User: &models.ReviewAuthor{Name: "Jonas"}}},
	}
	var buf bytes.Buffer
	err := Templates().ExecuteTemplate(&buf, "tour.html", map[string]any{
		"title": "The Sea Explorer Tour",
		"tour":  tour,
		"user":  models.User{Name: "Laura Wilson"},
	})
	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, "Lead guide")
	assert.Equal(t, 4, bytes.Count(buf.Bytes(), []byte("reviews__star--active")))
	assert.Contains(t, html, "<span>Laura</span>")
}
