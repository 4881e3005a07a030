package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/storage"
)

// Orchestrator drives one review from in_progress to a terminal state.
type Orchestrator struct {
	store    storage.Store
	source   core.ChangeSource
	analyzer core.Analyzer
	logger   *slog.Logger
	now      storage.Clock
}

// NewOrchestrator creates an Orchestrator. A nil clock uses time.Now.
func NewOrchestrator(store storage.Store, source core.ChangeSource, analyzer core.Analyzer, now storage.Clock, logger *slog.Logger) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		store:    store,
		source:   source,
		analyzer: analyzer,
		logger:   logger,
		now:      now,
	}
}

// reviewTarget is the pull request a review points at.
type reviewTarget struct {
	owner, repo, fullName string
	number                int
	headSHA               string
}

// Run reviews the pull request tracked by reviewID. Collaborator failures
// are recorded on the review and returned; a missing review is a no-op.
func (o *Orchestrator) Run(ctx context.Context, reviewID string) error {
	review, err := o.store.GetReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to load review %s: %w", reviewID, err)
	}
	if review == nil {
		o.logger.Warn("review not found, nothing to do", "review_id", reviewID)
		return nil
	}

	target := reviewTarget{
		owner:    review.RepositoryOwner,
		repo:     review.RepoName(),
		fullName: review.Repository,
		number:   review.PRNumber,
		headSHA:  review.HeadSHA,
	}
	logger := o.logger.With("review_id", reviewID, "repo", target.fullName, "pr", target.number)

	if _, err := o.store.UpdateReview(ctx, reviewID, core.ReviewUpdate{Status: core.Ptr(core.StatusInProgress)}); err != nil {
		return fmt.Errorf("failed to mark review in progress: %w", err)
	}

	completed, err := o.review(ctx, reviewID, target, logger)
	if err != nil {
		logger.Error("review failed", "error", err)
		o.fail(ctx, reviewID, target, completed, err, logger)
		return err
	}
	return nil
}

// review runs the pipeline. completed reports whether the results were
// already persisted when an error occurred.
func (o *Orchestrator) review(ctx context.Context, reviewID string, target reviewTarget, logger *slog.Logger) (completed bool, err error) {
	var (
		details *core.ChangeDetails
		files   []core.ChangedFile
		repoCfg = core.DefaultRepoConfig()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := o.source.FetchChangeDetails(gctx, target.owner, target.repo, target.number)
		if err != nil {
			return fmt.Errorf("failed to fetch pull request details: %w", err)
		}
		details = d
		return nil
	})
	g.Go(func() error {
		f, err := o.source.FetchChangedFiles(gctx, target.owner, target.repo, target.number)
		if err != nil {
			return fmt.Errorf("failed to fetch changed files: %w", err)
		}
		files = f
		return nil
	})
	if target.headSHA != "" {
		g.Go(func() error {
			cfg, err := o.source.FetchRepoConfig(gctx, target.owner, target.repo, target.headSHA)
			if err != nil {
				logger.Warn("failed to load repository config, using defaults", "error", err)
				return nil
			}
			if cfg != nil {
				repoCfg = cfg
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	if details == nil {
		details = &core.ChangeDetails{}
	}
	reviewed := repoCfg.FilterFiles(files)
	if skipped := len(files) - len(reviewed); skipped > 0 {
		logger.Info("excluded files by repository config", "skipped", skipped)
	}

	analysis, err := o.analyzer.Analyze(ctx, core.AnalysisRequest{
		Title:              details.Title,
		Description:        details.Description,
		Repository:         target.fullName,
		Files:              reviewed,
		CustomInstructions: repoCfg.CustomInstructions,
	})
	if err != nil {
		return false, fmt.Errorf("analysis failed: %w", err)
	}

	findings := ValidateFindingLines(logger, analysis.Findings, reviewed)

	updated, err := o.store.UpdateReview(ctx, reviewID, core.ReviewUpdate{
		Status:     core.Ptr(core.StatusCompleted),
		Summary:    core.Ptr(analysis.Summary),
		Findings:   &findings,
		ReviewedAt: core.Ptr(o.now()),
	})
	if err != nil {
		return false, fmt.Errorf("failed to store review results: %w", err)
	}
	if updated == nil {
		logger.Warn("review disappeared before results were stored")
		return false, nil
	}

	body := github.FormatReviewComment(analysis.Summary, findings)
	if err := o.source.PostComment(ctx, target.owner, target.repo, target.number, body); err != nil {
		return true, fmt.Errorf("failed to post review comment: %w", err)
	}

	o.record(ctx, core.Activity{
		EventType: core.EventReviewCompleted,
		Message:   fmt.Sprintf("Review completed for PR #%d - found %d issues", target.number, len(findings)),
		Metadata: map[string]any{
			"prNumber":      target.number,
			"repository":    target.fullName,
			"findingsCount": len(findings),
		},
	}, logger)
	o.record(ctx, core.Activity{
		EventType: core.EventCommentPosted,
		Message:   fmt.Sprintf("AI review comment posted to PR #%d", target.number),
		Metadata: map[string]any{
			"prNumber":   target.number,
			"repository": target.fullName,
		},
	}, logger)

	logger.Info("review completed", "findings", len(findings))
	return true, nil
}

// fail moves the review to the error state. It runs on a context detached
// from cancellation so a timed-out run still records its outcome.
func (o *Orchestrator) fail(ctx context.Context, reviewID string, target reviewTarget, completed bool, cause error, logger *slog.Logger) {
	ctx = context.WithoutCancel(ctx)
	reason := cause.Error()

	update := core.ReviewUpdate{
		Status:     core.Ptr(core.StatusError),
		Summary:    core.Ptr("Review failed: " + reason),
		ReviewedAt: core.Ptr(o.now()),
	}
	if !completed {
		update.Findings = &[]core.Finding{}
	}
	if _, err := o.store.UpdateReview(ctx, reviewID, update); err != nil {
		logger.Error("failed to store review failure", "error", errors.Join(cause, err))
	}

	o.record(ctx, core.Activity{
		EventType: core.EventReviewCompleted,
		Message:   fmt.Sprintf("Review failed for PR #%d: %s", target.number, reason),
		Metadata: map[string]any{
			"prNumber":   target.number,
			"repository": target.fullName,
			"error":      reason,
		},
	}, logger)
}

func (o *Orchestrator) record(ctx context.Context, activity core.Activity, logger *slog.Logger) {
	if _, err := o.store.AppendActivity(ctx, activity); err != nil {
		logger.Error("failed to record activity", "event_type", activity.EventType, "error", err)
	}
}
