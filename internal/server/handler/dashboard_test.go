package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/storage"
)

func newDashboardRouter(store storage.Store, secretConfigured bool) http.Handler {
	h := NewDashboardHandler(store, "https://warden.example.com/api/webhook", secretConfigured, discardLogger())
	r := chi.NewRouter()
	r.Get("/api/reviews", h.Reviews)
	r.Get("/api/reviews/{id}", h.Review)
	r.Get("/api/activity", h.Activity)
	r.Get("/api/webhook/status", h.WebhookStatus)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboard_Reviews(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore(func() time.Time { return now })
	router := newDashboardRouter(store, true)

	rec := get(t, router, "/api/reviews")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	older, err := store.CreateReview(ctx, &core.Review{PRNumber: 1, Repository: "o/r"})
	require.NoError(t, err)
	now = now.Add(time.Hour)
	newer, err := store.CreateReview(ctx, &core.Review{PRNumber: 2, Repository: "o/r"})
	require.NoError(t, err)

	rec = get(t, router, "/api/reviews")
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []core.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reviews))
	require.Len(t, reviews, 2)
	assert.Equal(t, newer.ID, reviews[0].ID)
	assert.Equal(t, older.ID, reviews[1].ID)

	rec = get(t, router, "/api/reviews/"+older.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var one core.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, core.StatusPending, one.Status)
	assert.Contains(t, rec.Body.String(), `"findings":[]`)
	assert.Contains(t, rec.Body.String(), `"summary":null`)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/reviews/missing").Code)
}

func TestDashboard_Activity(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(nil)
	router := newDashboardRouter(store, true)

	for range 3 {
		_, err := store.AppendActivity(ctx, core.Activity{EventType: core.EventWebhookReceived, Message: "m"})
		require.NoError(t, err)
	}

	var entries []core.Activity
	rec := get(t, router, "/api/activity")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 3)

	rec = get(t, router, "/api/activity?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	for _, bad := range []string{"0", "-1", "abc", "1.5"} {
		rec := get(t, router, "/api/activity?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestDashboard_WebhookStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.Local)
	store := storage.NewMemoryStore(func() time.Time { return now })
	router := newDashboardRouter(store, false)

	var status core.WebhookStatus
	rec := get(t, router, "/api/webhook/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Configured)
	assert.False(t, status.SecretConfigured)
	assert.Nil(t, status.LastEventTime)
	assert.Zero(t, status.EventsToday)
	assert.Equal(t, "https://warden.example.com/api/webhook", status.URL)
	assert.NotContains(t, rec.Body.String(), "lastEventTime")

	_, err := store.AppendActivity(ctx, core.Activity{EventType: core.EventWebhookReceived})
	require.NoError(t, err)
	_, err = store.AppendActivity(ctx, core.Activity{EventType: core.EventPROpened})
	require.NoError(t, err)

	rec = get(t, router, "/api/webhook/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Configured)
	assert.Equal(t, 2, status.EventsToday)
	require.NotNil(t, status.LastEventTime)
	assert.True(t, now.Equal(*status.LastEventTime))
}
