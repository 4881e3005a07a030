package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sevigo/pr-warden/internal/core"
)

type memoryReview struct {
	review *core.Review
	seq    uint64
}

type memoryActivity struct {
	activity *core.Activity
	seq      uint64
}

type memoryStore struct {
	mu         sync.RWMutex
	now        Clock
	seq        uint64
	reviews    map[string]*memoryReview
	byPR       map[string]string
	activities []*memoryActivity
}

// NewMemoryStore returns a Store that keeps everything in process memory.
// A nil clock defaults to time.Now.
func NewMemoryStore(now Clock) Store {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{
		now:     now,
		reviews: make(map[string]*memoryReview),
		byPR:    make(map[string]string),
	}
}

func naturalKey(repository string, prNumber int) string {
	return fmt.Sprintf("%s#%d", repository, prNumber)
}

func (s *memoryStore) CreateReview(_ context.Context, review *core.Review) (*core.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := naturalKey(review.Repository, review.PRNumber)
	if _, ok := s.byPR[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrReviewExists, key)
	}

	stored := review.Clone()
	stored.ID = uuid.NewString()
	stored.ReviewedAt = s.now()
	stored.Findings = []core.Finding{}
	stored.Summary = nil
	if stored.Status == "" {
		stored.Status = core.StatusPending
	}

	s.seq++
	s.reviews[stored.ID] = &memoryReview{review: stored, seq: s.seq}
	s.byPR[key] = stored.ID
	return stored.Clone(), nil
}

func (s *memoryStore) GetReview(_ context.Context, id string) (*core.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.reviews[id]; ok {
		return r.review.Clone(), nil
	}
	return nil, nil
}

func (s *memoryStore) GetReviewByPR(_ context.Context, prNumber int, repository string) (*core.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPR[naturalKey(repository, prNumber)]
	if !ok {
		return nil, nil
	}
	return s.reviews[id].review.Clone(), nil
}

func (s *memoryStore) ListReviews(_ context.Context) ([]*core.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := slices.Collect(maps.Values(s.reviews))
	slices.SortFunc(entries, func(a, b *memoryReview) int {
		if c := b.review.ReviewedAt.Compare(a.review.ReviewedAt); c != 0 {
			return c
		}
		return compareSeqDesc(a.seq, b.seq)
	})

	out := make([]*core.Review, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.review.Clone())
	}
	return out, nil
}

func (s *memoryStore) UpdateReview(_ context.Context, id string, update core.ReviewUpdate) (*core.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, nil
	}
	update.Apply(r.review)
	s.seq++
	r.seq = s.seq
	return r.review.Clone(), nil
}

func (s *memoryStore) AppendActivity(_ context.Context, activity core.Activity) (*core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := activity
	stored.ID = uuid.NewString()
	stored.Timestamp = s.now()
	stored.Metadata = maps.Clone(activity.Metadata)

	s.seq++
	s.activities = append(s.activities, &memoryActivity{activity: &stored, seq: s.seq})
	return cloneActivity(&stored), nil
}

func (s *memoryStore) ListActivity(_ context.Context, limit int) ([]*core.Activity, error) {
	if limit <= 0 {
		return []*core.Activity{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := slices.Clone(s.activities)
	slices.SortFunc(entries, func(a, b *memoryActivity) int {
		if c := b.activity.Timestamp.Compare(a.activity.Timestamp); c != 0 {
			return c
		}
		return compareSeqDesc(a.seq, b.seq)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]*core.Activity, 0, len(entries))
	for _, e := range entries {
		out = append(out, cloneActivity(e.activity))
	}
	return out, nil
}

func (s *memoryStore) CountActivityToday(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	midnight := startOfDay(s.now())
	count := 0
	for _, e := range s.activities {
		if !e.activity.Timestamp.Before(midnight) {
			count++
		}
	}
	return count, nil
}

func (s *memoryStore) LatestActivity(ctx context.Context) (*core.Activity, error) {
	latest, err := s.ListActivity(ctx, 1)
	if err != nil || len(latest) == 0 {
		return nil, err
	}
	return latest[0], nil
}

func (s *memoryStore) Close() error {
	return nil
}

func compareSeqDesc(a, b uint64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func cloneActivity(a *core.Activity) *core.Activity {
	c := *a
	c.Metadata = maps.Clone(a.Metadata)
	return &c
}
