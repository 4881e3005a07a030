package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sevigo/pr-warden/internal/core"
)

type reviewModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	PRNumber        int       `gorm:"column:pr_number;not null;uniqueIndex:idx_reviews_repository_pr,priority:2"`
	Title           string    `gorm:"column:pr_title"`
	Repository      string    `gorm:"column:repository;not null;uniqueIndex:idx_reviews_repository_pr,priority:1"`
	RepositoryOwner string    `gorm:"column:repository_owner"`
	Author          string    `gorm:"column:author"`
	Status          string    `gorm:"column:status;not null"`
	Findings        string    `gorm:"column:findings;not null;default:'[]'"`
	Summary         *string   `gorm:"column:summary"`
	ReviewedAt      time.Time `gorm:"column:reviewed_at;not null;index"`
	PRURL           string    `gorm:"column:pr_url"`
	HeadSHA         string    `gorm:"column:head_sha"`
	UpdatedSeq      int64     `gorm:"column:updated_seq;not null;default:0"`
}

func (reviewModel) TableName() string { return "reviews" }

func (m *reviewModel) toCore() (*core.Review, error) {
	r := &core.Review{
		ID:              m.ID,
		PRNumber:        m.PRNumber,
		Title:           m.Title,
		Repository:      m.Repository,
		RepositoryOwner: m.RepositoryOwner,
		Author:          m.Author,
		Status:          core.ReviewStatus(m.Status),
		Findings:        []core.Finding{},
		Summary:         m.Summary,
		ReviewedAt:      m.ReviewedAt,
		PRURL:           m.PRURL,
		HeadSHA:         m.HeadSHA,
	}
	if m.Findings != "" {
		if err := json.Unmarshal([]byte(m.Findings), &r.Findings); err != nil {
			return nil, fmt.Errorf("failed to decode findings of review %s: %w", m.ID, err)
		}
	}
	return r, nil
}

type activityModel struct {
	Seq       int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	ID        string    `gorm:"column:id;uniqueIndex;not null"`
	EventType string    `gorm:"column:event_type;not null"`
	Message   string    `gorm:"column:message"`
	Metadata  *string   `gorm:"column:metadata"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
}

func (activityModel) TableName() string { return "activity_logs" }

func (m *activityModel) toCore() (*core.Activity, error) {
	a := &core.Activity{
		ID:        m.ID,
		EventType: core.EventType(m.EventType),
		Message:   m.Message,
		Timestamp: m.CreatedAt,
	}
	if m.Metadata != nil {
		if err := json.Unmarshal([]byte(*m.Metadata), &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of activity %s: %w", m.ID, err)
		}
	}
	return a, nil
}

// sqliteStore keeps timestamps in UTC so the text encoding used by sqlite
// orders and compares correctly.
type sqliteStore struct {
	db  *gorm.DB
	now Clock
}

// NewSQLiteStore migrates the schema and returns a Store backed by gdb.
func NewSQLiteStore(gdb *gorm.DB, now Clock) (Store, error) {
	if now == nil {
		now = time.Now
	}
	if err := gdb.AutoMigrate(&reviewModel{}, &activityModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return &sqliteStore{db: gdb, now: now}, nil
}

func (s *sqliteStore) CreateReview(ctx context.Context, review *core.Review) (*core.Review, error) {
	status := review.Status
	if status == "" {
		status = core.StatusPending
	}
	m := &reviewModel{
		ID:              uuid.NewString(),
		PRNumber:        review.PRNumber,
		Title:           review.Title,
		Repository:      review.Repository,
		RepositoryOwner: review.RepositoryOwner,
		Author:          review.Author,
		Status:          string(status),
		Findings:        "[]",
		ReviewedAt:      s.now().UTC(),
		PRURL:           review.PRURL,
		HeadSHA:         review.HeadSHA,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextUpdateSeq(tx)
		if err != nil {
			return err
		}
		m.UpdatedSeq = seq

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrReviewExists, naturalKey(review.Repository, review.PRNumber))
		}
		return nil
	})
	if errors.Is(err, ErrReviewExists) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}
	return m.toCore()
}

func nextUpdateSeq(tx *gorm.DB) (int64, error) {
	var maxSeq int64
	err := tx.Model(&reviewModel{}).Select("COALESCE(MAX(updated_seq), 0)").Scan(&maxSeq).Error
	return maxSeq + 1, err
}

func (s *sqliteStore) findReview(tx *gorm.DB, query any, args ...any) (*core.Review, error) {
	var m reviewModel
	err := tx.Where(query, args...).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toCore()
}

func (s *sqliteStore) GetReview(ctx context.Context, id string) (*core.Review, error) {
	r, err := s.findReview(s.db.WithContext(ctx), "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review %s: %w", id, err)
	}
	return r, nil
}

func (s *sqliteStore) GetReviewByPR(ctx context.Context, prNumber int, repository string) (*core.Review, error) {
	r, err := s.findReview(s.db.WithContext(ctx), "repository = ? AND pr_number = ?", repository, prNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get review for %s: %w", naturalKey(repository, prNumber), err)
	}
	return r, nil
}

func (s *sqliteStore) ListReviews(ctx context.Context) ([]*core.Review, error) {
	var models []reviewModel
	err := s.db.WithContext(ctx).
		Order("reviewed_at DESC").
		Order("updated_seq DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	out := make([]*core.Review, 0, len(models))
	for i := range models {
		r, err := models[i].toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *sqliteStore) UpdateReview(ctx context.Context, id string, update core.ReviewUpdate) (*core.Review, error) {
	var updated *core.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := s.findReview(tx, "id = ?", id)
		if err != nil || review == nil {
			return err
		}

		update.Apply(review)
		findings, err := json.Marshal(review.Findings)
		if err != nil {
			return fmt.Errorf("failed to encode findings: %w", err)
		}

		seq, err := nextUpdateSeq(tx)
		if err != nil {
			return err
		}

		err = tx.Model(&reviewModel{}).Where("id = ?", id).Updates(map[string]any{
			"pr_title":    review.Title,
			"status":      string(review.Status),
			"findings":    string(findings),
			"summary":     review.Summary,
			"reviewed_at": review.ReviewedAt.UTC(),
			"head_sha":    review.HeadSHA,
			"updated_seq": seq,
		}).Error
		if err != nil {
			return err
		}
		updated = review
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update review %s: %w", id, err)
	}
	return updated, nil
}

func (s *sqliteStore) AppendActivity(ctx context.Context, activity core.Activity) (*core.Activity, error) {
	m := &activityModel{
		ID:        uuid.NewString(),
		EventType: string(activity.EventType),
		Message:   activity.Message,
		CreatedAt: s.now().UTC(),
	}
	if activity.Metadata != nil {
		raw, err := json.Marshal(activity.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode activity metadata: %w", err)
		}
		m.Metadata = core.Ptr(string(raw))
	}

	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("failed to insert activity: %w", err)
	}

	stored := activity
	stored.ID = m.ID
	stored.Timestamp = m.CreatedAt
	return cloneActivity(&stored), nil
}

func (s *sqliteStore) ListActivity(ctx context.Context, limit int) ([]*core.Activity, error) {
	if limit <= 0 {
		return []*core.Activity{}, nil
	}

	var models []activityModel
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("seq DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	out := make([]*core.Activity, 0, len(models))
	for i := range models {
		a, err := models[i].toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *sqliteStore) CountActivityToday(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&activityModel{}).
		Where("created_at >= ?", startOfDay(s.now()).UTC()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return int(count), nil
}

func (s *sqliteStore) LatestActivity(ctx context.Context) (*core.Activity, error) {
	latest, err := s.ListActivity(ctx, 1)
	if err != nil || len(latest) == 0 {
		return nil, err
	}
	return latest[0], nil
}

func (s *sqliteStore) Close() error {
	return nil
}
