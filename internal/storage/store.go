// Package storage persists reviews and the activity log.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sevigo/pr-warden/internal/core"
)

// ErrReviewExists is returned by CreateReview when a review for the same
// repository and pull request number is already stored.
var ErrReviewExists = errors.New("review already exists for this pull request")

// Store defines the interface for all persistence operations. Every method is
// atomic with respect to concurrent callers. Returned values are copies and
// may be modified freely.
type Store interface {
	// CreateReview stores a new review keyed by (Repository, PRNumber). The ID,
	// ReviewedAt, Findings and Summary of the argument are ignored.
	CreateReview(ctx context.Context, review *core.Review) (*core.Review, error)
	// GetReview returns nil, nil when no review has the given id.
	GetReview(ctx context.Context, id string) (*core.Review, error)
	// GetReviewByPR returns nil, nil when the pull request is not tracked.
	GetReviewByPR(ctx context.Context, prNumber int, repository string) (*core.Review, error)
	// ListReviews returns all reviews, most recently reviewed first.
	ListReviews(ctx context.Context) ([]*core.Review, error)
	// UpdateReview merges the non-nil fields of update into the review and
	// returns the result, or nil, nil when the id is unknown.
	UpdateReview(ctx context.Context, id string, update core.ReviewUpdate) (*core.Review, error)

	AppendActivity(ctx context.Context, activity core.Activity) (*core.Activity, error)
	// ListActivity returns at most limit entries, newest first.
	ListActivity(ctx context.Context, limit int) ([]*core.Activity, error)
	// CountActivityToday counts entries recorded since local midnight.
	CountActivityToday(ctx context.Context) (int, error)
	// LatestActivity returns the newest entry, or nil when the log is empty.
	LatestActivity(ctx context.Context) (*core.Activity, error)

	Close() error
}

// Clock returns the current time. Stores take one so tests can pin it.
type Clock func() time.Time

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
