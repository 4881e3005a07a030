package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/storage"
)

// ReviewJob is the background half of a webhook delivery. It records the
// delivery, tracks the pull request and hands the review to the orchestrator.
type ReviewJob struct {
	store        storage.Store
	orchestrator *Orchestrator
	runs         *inflight
	logger       *slog.Logger
}

var _ core.Job = (*ReviewJob)(nil)

// NewReviewJob creates a ReviewJob.
func NewReviewJob(store storage.Store, orchestrator *Orchestrator, logger *slog.Logger) *ReviewJob {
	if store == nil {
		panic("store cannot be nil")
	}
	if orchestrator == nil {
		panic("orchestrator cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{
		store:        store,
		orchestrator: orchestrator,
		runs:         newInflight(),
		logger:       logger,
	}
}

// Run processes one pull request event. At most one review runs per pull
// request; a delivery that arrives while one is running is folded into a
// single rerun on the latest event, so no worker waits on a busy pull request.
func (j *ReviewJob) Run(ctx context.Context, event *core.PullRequestEvent) error {
	if err := validateEvent(event); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	j.record(ctx, core.Activity{
		EventType: core.EventWebhookReceived,
		Message:   fmt.Sprintf("Webhook received: %s on PR #%d", event.Action, event.PRNumber),
		Metadata: map[string]any{
			"action":     event.Action,
			"prNumber":   event.PRNumber,
			"repository": event.RepoFullName,
		},
	})

	if !event.IsReviewable() {
		j.logger.Info("skipping action", "action", event.Action, "key", event.NaturalKey())
		return nil
	}

	j.record(ctx, core.Activity{
		EventType: core.EventPROpened,
		Message:   fmt.Sprintf("PR #%d %s: %s", event.PRNumber, event.Action, event.PRTitle),
		Metadata: map[string]any{
			"prNumber":   event.PRNumber,
			"repository": event.RepoFullName,
			"author":     event.Author,
		},
	})

	key := event.NaturalKey()
	if !j.runs.begin(key, event) {
		j.logger.Info("review already running, rerun queued", "key", key, "head", event.HeadSHA)
		return nil
	}

	released := false
	defer func() {
		if !released {
			j.runs.abandon(key)
		}
	}()

	var errs []error
	for next := event; next != nil; next = j.runs.next(key) {
		if err := j.review(ctx, next); err != nil {
			errs = append(errs, err)
		}
	}
	released = true
	return errors.Join(errs...)
}

func (j *ReviewJob) review(ctx context.Context, event *core.PullRequestEvent) error {
	review, err := j.trackReview(ctx, event)
	if err != nil {
		return err
	}

	j.logger.Info("starting review", "review_id", review.ID, "key", event.NaturalKey(), "head", event.HeadSHA)
	return j.orchestrator.Run(ctx, review.ID)
}

// trackReview creates the review for a new pull request or re-enters an
// existing one.
func (j *ReviewJob) trackReview(ctx context.Context, event *core.PullRequestEvent) (*core.Review, error) {
	existing, err := j.store.GetReviewByPR(ctx, event.PRNumber, event.RepoFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up review: %w", err)
	}

	if existing == nil {
		created, err := j.store.CreateReview(ctx, &core.Review{
			PRNumber:        event.PRNumber,
			Title:           event.PRTitle,
			Repository:      event.RepoFullName,
			RepositoryOwner: event.RepoOwner,
			Author:          event.Author,
			Status:          core.StatusPending,
			PRURL:           event.PRURL,
			HeadSHA:         event.HeadSHA,
		})
		switch {
		case err == nil:
			return created, nil
		case errors.Is(err, storage.ErrReviewExists):
			// Another process created it first; fall through to the update.
			existing, err = j.store.GetReviewByPR(ctx, event.PRNumber, event.RepoFullName)
			if err != nil {
				return nil, fmt.Errorf("failed to look up review: %w", err)
			}
			if existing == nil {
				return nil, fmt.Errorf("review for %s vanished after create conflict", event.NaturalKey())
			}
		default:
			return nil, fmt.Errorf("failed to create review: %w", err)
		}
	}

	update := core.ReviewUpdate{
		Status:  core.Ptr(core.StatusInProgress),
		HeadSHA: core.Ptr(event.HeadSHA),
	}
	if event.PRTitle != "" {
		update.Title = core.Ptr(event.PRTitle)
	}
	updated, err := j.store.UpdateReview(ctx, existing.ID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	if updated == nil {
		return existing, nil
	}
	return updated, nil
}

func (j *ReviewJob) record(ctx context.Context, activity core.Activity) {
	if _, err := j.store.AppendActivity(ctx, activity); err != nil {
		j.logger.Error("failed to record activity", "event_type", activity.EventType, "error", err)
	}
}

// validateEvent ensures the event contains all required fields.
func validateEvent(event *core.PullRequestEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	if event.RepoOwner == "" {
		return errors.New("repository owner cannot be empty")
	}
	if event.RepoName == "" {
		return errors.New("repository name cannot be empty")
	}
	if event.RepoFullName == "" {
		return errors.New("repository full name cannot be empty")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.PRNumber)
	}
	return nil
}
