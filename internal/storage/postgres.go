package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sevigo/pr-warden/internal/core"
)

type reviewRow struct {
	ID              string         `db:"id"`
	PRNumber        int            `db:"pr_number"`
	Title           string         `db:"pr_title"`
	Repository      string         `db:"repository"`
	RepositoryOwner string         `db:"repository_owner"`
	Author          string         `db:"author"`
	Status          string         `db:"status"`
	Findings        []byte         `db:"findings"`
	Summary         sql.NullString `db:"summary"`
	ReviewedAt      time.Time      `db:"reviewed_at"`
	PRURL           string         `db:"pr_url"`
	HeadSHA         string         `db:"head_sha"`
}

func (r *reviewRow) toCore() (*core.Review, error) {
	review := &core.Review{
		ID:              r.ID,
		PRNumber:        r.PRNumber,
		Title:           r.Title,
		Repository:      r.Repository,
		RepositoryOwner: r.RepositoryOwner,
		Author:          r.Author,
		Status:          core.ReviewStatus(r.Status),
		Findings:        []core.Finding{},
		ReviewedAt:      r.ReviewedAt,
		PRURL:           r.PRURL,
		HeadSHA:         r.HeadSHA,
	}
	if r.Summary.Valid {
		review.Summary = core.Ptr(r.Summary.String)
	}
	if len(r.Findings) > 0 {
		if err := json.Unmarshal(r.Findings, &review.Findings); err != nil {
			return nil, fmt.Errorf("failed to decode findings of review %s: %w", r.ID, err)
		}
	}
	return review, nil
}

type activityRow struct {
	ID        string         `db:"id"`
	EventType string         `db:"event_type"`
	Message   string         `db:"message"`
	Metadata  sql.NullString `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *activityRow) toCore() (*core.Activity, error) {
	a := &core.Activity{
		ID:        r.ID,
		EventType: core.EventType(r.EventType),
		Message:   r.Message,
		Timestamp: r.CreatedAt,
	}
	if r.Metadata.Valid {
		if err := json.Unmarshal([]byte(r.Metadata.String), &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of activity %s: %w", r.ID, err)
		}
	}
	return a, nil
}

const reviewColumns = `id, pr_number, pr_title, repository, repository_owner, author, status,
	findings, summary, reviewed_at, pr_url, head_sha`

type postgresStore struct {
	db  *sqlx.DB
	now Clock
}

// NewPostgresStore returns a Store backed by the migrated postgres schema.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db, now: time.Now}
}

func (s *postgresStore) CreateReview(ctx context.Context, review *core.Review) (*core.Review, error) {
	status := review.Status
	if status == "" {
		status = core.StatusPending
	}

	query := `
		INSERT INTO reviews (id, pr_number, pr_title, repository, repository_owner, author, status,
			findings, summary, reviewed_at, pr_url, head_sha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '[]'::jsonb, NULL, $8, $9, $10)
		ON CONFLICT (repository, pr_number) DO NOTHING
		RETURNING ` + reviewColumns

	var row reviewRow
	err := s.db.QueryRowxContext(ctx, query,
		uuid.NewString(), review.PRNumber, review.Title, review.Repository, review.RepositoryOwner,
		review.Author, string(status), s.now(), review.PRURL, review.HeadSHA,
	).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReviewExists, naturalKey(review.Repository, review.PRNumber))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}
	return row.toCore()
}

func (s *postgresStore) getReview(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*core.Review, error) {
	var row reviewRow
	err := sqlx.GetContext(ctx, q, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toCore()
}

func (s *postgresStore) GetReview(ctx context.Context, id string) (*core.Review, error) {
	r, err := s.getReview(ctx, s.db, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review %s: %w", id, err)
	}
	return r, nil
}

func (s *postgresStore) GetReviewByPR(ctx context.Context, prNumber int, repository string) (*core.Review, error) {
	r, err := s.getReview(ctx, s.db,
		`SELECT `+reviewColumns+` FROM reviews WHERE repository = $1 AND pr_number = $2`,
		repository, prNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get review for %s: %w", naturalKey(repository, prNumber), err)
	}
	return r, nil
}

func (s *postgresStore) ListReviews(ctx context.Context) ([]*core.Review, error) {
	var rows []reviewRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY reviewed_at DESC, updated_seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	out := make([]*core.Review, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// UpdateReview locks the row for the read-modify-write so concurrent partial
// updates do not overwrite each other.
func (s *postgresStore) UpdateReview(ctx context.Context, id string, update core.ReviewUpdate) (*core.Review, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	review, err := s.getReview(ctx, tx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock review %s: %w", id, err)
	}
	if review == nil {
		return nil, nil
	}

	update.Apply(review)
	findings, err := json.Marshal(review.Findings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode findings: %w", err)
	}
	var summary sql.NullString
	if review.Summary != nil {
		summary = sql.NullString{String: *review.Summary, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE reviews
		SET pr_title = $2, status = $3, findings = $4::jsonb, summary = $5, reviewed_at = $6, head_sha = $7,
			updated_seq = nextval(pg_get_serial_sequence('reviews', 'updated_seq'))
		WHERE id = $1`,
		id, review.Title, string(review.Status), string(findings), summary, review.ReviewedAt, review.HeadSHA)
	if err != nil {
		return nil, fmt.Errorf("failed to update review %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review update: %w", err)
	}
	return review, nil
}

func (s *postgresStore) AppendActivity(ctx context.Context, activity core.Activity) (*core.Activity, error) {
	var metadata any
	if activity.Metadata != nil {
		raw, err := json.Marshal(activity.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode activity metadata: %w", err)
		}
		metadata = string(raw)
	}

	stored := activity
	stored.ID = uuid.NewString()
	stored.Timestamp = s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, event_type, message, metadata, created_at) VALUES ($1, $2, $3, $4::jsonb, $5)`,
		stored.ID, string(stored.EventType), stored.Message, metadata, stored.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert activity: %w", err)
	}
	return cloneActivity(&stored), nil
}

func (s *postgresStore) ListActivity(ctx context.Context, limit int) ([]*core.Activity, error) {
	if limit <= 0 {
		return []*core.Activity{}, nil
	}

	var rows []activityRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, event_type, message, metadata, created_at
		FROM activity_logs
		ORDER BY created_at DESC, seq DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	out := make([]*core.Activity, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *postgresStore) CountActivityToday(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM activity_logs WHERE created_at >= $1`, startOfDay(s.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return count, nil
}

func (s *postgresStore) LatestActivity(ctx context.Context) (*core.Activity, error) {
	latest, err := s.ListActivity(ctx, 1)
	if err != nil || len(latest) == 0 {
		return nil, err
	}
	return latest[0], nil
}

func (s *postgresStore) Close() error {
	return nil
}
