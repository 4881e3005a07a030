package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/db"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type storeFactory func(t *testing.T, clock Clock) Store

func storeFactories() map[string]storeFactory {
	factories := map[string]storeFactory{
		"memory": func(_ *testing.T, clock Clock) Store {
			return NewMemoryStore(clock)
		},
		"sqlite": func(t *testing.T, clock Clock) Store {
			cfg := &config.DBConfig{DSN: filepath.Join(t.TempDir(), "warden.db")}
			gdb, cleanup, err := db.NewSQLite(cfg)
			require.NoError(t, err)
			t.Cleanup(cleanup)

			store, err := NewSQLiteStore(gdb, clock)
			require.NoError(t, err)
			return store
		},
	}

	// Postgres runs only against a disposable database named by the env var.
	if dsn := os.Getenv("PR_WARDEN_TEST_POSTGRES_DSN"); dsn != "" {
		factories["postgres"] = func(t *testing.T, clock Clock) Store {
			conn, cleanup, err := db.NewDatabase(&config.DBConfig{DSN: dsn})
			require.NoError(t, err)
			t.Cleanup(cleanup)

			_, err = conn.Exec(`TRUNCATE reviews, activity_logs`)
			require.NoError(t, err)
			return &postgresStore{db: conn.DB, now: clock}
		}
	}
	return factories
}

func newReview(repo string, number int) *core.Review {
	return &core.Review{
		PRNumber:        number,
		Title:           "Add feature",
		Repository:      repo,
		RepositoryOwner: "octo",
		Author:          "octocat",
		Status:          core.StatusPending,
		PRURL:           "https://github.com/" + repo + "/pull/1",
		HeadSHA:         "abc",
	}
}

func TestStores(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, factory) })
			t.Run("DuplicateCreate", func(t *testing.T) { testDuplicateCreate(t, factory) })
			t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, factory) })
			t.Run("Update", func(t *testing.T) { testUpdate(t, factory) })
			t.Run("ListReviewsOrder", func(t *testing.T) { testListReviewsOrder(t, factory) })
			t.Run("Activity", func(t *testing.T) { testActivity(t, factory) })
			t.Run("CountActivityToday", func(t *testing.T) { testCountActivityToday(t, factory) })
		})
	}
}

func testCreateAndGet(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	clock := newFakeClock()
	store := factory(t, clock.Now)

	input := newReview("octo/app", 5)
	input.Findings = []core.Finding{{Title: "ignored"}}
	input.Summary = core.Ptr("ignored")

	created, err := store.CreateReview(ctx, input)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, core.StatusPending, created.Status)
	assert.Empty(t, created.Findings)
	assert.NotNil(t, created.Findings)
	assert.Nil(t, created.Summary)
	assert.True(t, created.ReviewedAt.Equal(clock.Now()))
	assert.Equal(t, "Add feature", created.Title)
	assert.Equal(t, "octocat", created.Author)
	assert.Equal(t, "abc", created.HeadSHA)

	got, err := store.GetReview(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	byPR, err := store.GetReviewByPR(ctx, 5, "octo/app")
	require.NoError(t, err)
	require.NotNil(t, byPR)
	assert.Equal(t, created.ID, byPR.ID)

	missing, err := store.GetReview(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = store.GetReviewByPR(ctx, 6, "octo/app")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testDuplicateCreate(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	store := factory(t, newFakeClock().Now)

	_, err := store.CreateReview(ctx, newReview("octo/app", 1))
	require.NoError(t, err)

	_, err = store.CreateReview(ctx, newReview("octo/app", 1))
	assert.ErrorIs(t, err, ErrReviewExists)

	_, err = store.CreateReview(ctx, newReview("octo/other", 1))
	assert.NoError(t, err)

	reviews, err := store.ListReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func testConcurrentCreate(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	store := factory(t, newFakeClock().Now)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateReview(ctx, newReview("octo/app", 9))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrReviewExists):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

func testUpdate(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	clock := newFakeClock()
	store := factory(t, clock.Now)

	created, err := store.CreateReview(ctx, newReview("octo/app", 2))
	require.NoError(t, err)

	findings := []core.Finding{
		{Severity: core.SeverityCritical, Title: "SQL injection", Description: "raw query", File: "db.go", Line: 12},
		{Severity: core.SeverityInfo, Title: "Naming", Description: "rename"},
	}
	reviewedAt := clock.Now().Add(time.Minute)
	updated, err := store.UpdateReview(ctx, created.ID, core.ReviewUpdate{
		Status:     core.Ptr(core.StatusCompleted),
		Summary:    core.Ptr("Looks mostly fine."),
		Findings:   &findings,
		ReviewedAt: &reviewedAt,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, core.StatusCompleted, updated.Status)
	assert.Equal(t, "Looks mostly fine.", *updated.Summary)
	assert.Equal(t, findings, updated.Findings)
	assert.Equal(t, "abc", updated.HeadSHA)

	// Returned values are copies.
	updated.Findings[0].Title = "mutated"

	got, err := store.GetReview(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, findings, got.Findings)
	assert.True(t, got.ReviewedAt.Equal(reviewedAt))
	assert.Equal(t, "Add feature", got.Title)

	got, err = store.UpdateReview(ctx, created.ID, core.ReviewUpdate{
		Status:  core.Ptr(core.StatusInProgress),
		HeadSHA: core.Ptr("def"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, got.Status)
	assert.Equal(t, "def", got.HeadSHA)
	assert.Equal(t, findings, got.Findings)

	missing, err := store.UpdateReview(ctx, "does-not-exist", core.ReviewUpdate{Status: core.Ptr(core.StatusError)})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testListReviewsOrder(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	clock := newFakeClock()
	store := factory(t, clock.Now)

	first, err := store.CreateReview(ctx, newReview("octo/app", 1))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := store.CreateReview(ctx, newReview("octo/app", 2))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	third, err := store.CreateReview(ctx, newReview("octo/app", 3))
	require.NoError(t, err)

	reviews, err := store.ListReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, reviewIDs(reviews))

	latest := clock.Now().Add(time.Hour)
	_, err = store.UpdateReview(ctx, first.ID, core.ReviewUpdate{ReviewedAt: &latest})
	require.NoError(t, err)

	reviews, err = store.ListReviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, third.ID, second.ID}, reviewIDs(reviews))
}

func testActivity(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	clock := newFakeClock()
	store := factory(t, clock.Now)

	latest, err := store.LatestActivity(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	messages := []string{"one", "two", "three", "four"}
	for _, msg := range messages {
		_, err := store.AppendActivity(ctx, core.Activity{EventType: core.EventWebhookReceived, Message: msg})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	entry, err := store.AppendActivity(ctx, core.Activity{
		EventType: core.EventReviewCompleted,
		Message:   "five",
		Metadata:  map[string]any{"findingsCount": 3, "reviewId": "r1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.True(t, entry.Timestamp.Equal(clock.Now()))

	list, err := store.ListActivity(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "five", list[0].Message)
	assert.Equal(t, "four", list[1].Message)
	assert.Equal(t, "three", list[2].Message)
	assert.EqualValues(t, 3, list[0].Metadata["findingsCount"])
	assert.Equal(t, "r1", list[0].Metadata["reviewId"])

	all, err := store.ListActivity(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := store.ListActivity(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	latest, err = store.LatestActivity(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, entry.ID, latest.ID)
}

func testCountActivityToday(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	clock := newFakeClock()
	store := factory(t, clock.Now)

	today := clock.Now()
	clock.Set(startOfDay(today).Add(-time.Hour))
	_, err := store.AppendActivity(ctx, core.Activity{EventType: core.EventWebhookReceived, Message: "yesterday"})
	require.NoError(t, err)

	clock.Set(startOfDay(today))
	_, err = store.AppendActivity(ctx, core.Activity{EventType: core.EventWebhookReceived, Message: "midnight"})
	require.NoError(t, err)

	clock.Set(today)
	_, err = store.AppendActivity(ctx, core.Activity{EventType: core.EventPROpened, Message: "noon"})
	require.NoError(t, err)

	count, err := store.CountActivityToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func reviewIDs(reviews []*core.Review) []string {
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ID)
	}
	return ids
}
