package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/storage"
	"github.com/sevigo/pr-warden/mocks"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type orchestratorFixture struct {
	store    storage.Store
	source   *mocks.MockChangeSource
	analyzer *mocks.MockAnalyzer
	orch     *Orchestrator
	review   *core.Review
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store := storage.NewMemoryStore(func() time.Time { return fixedNow })
	review, err := store.CreateReview(context.Background(), &core.Review{
		PRNumber:        7,
		Title:           "Add cache",
		Repository:      "octo/app",
		RepositoryOwner: "octo",
		Author:          "alice",
		HeadSHA:         "abc123",
	})
	require.NoError(t, err)

	source := mocks.NewMockChangeSource(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)
	later := func() time.Time { return fixedNow.Add(time.Minute) }

	return &orchestratorFixture{
		store:    store,
		source:   source,
		analyzer: analyzer,
		orch:     NewOrchestrator(store, source, analyzer, later, discardLogger()),
		review:   review,
	}
}

func (f *orchestratorFixture) expectFetch(files []core.ChangedFile) {
	f.source.EXPECT().FetchChangeDetails(gomock.Any(), "octo", "app", 7).
		Return(&core.ChangeDetails{Title: "Add cache", Description: "Caches lookups.", HeadSHA: "abc123"}, nil)
	f.source.EXPECT().FetchChangedFiles(gomock.Any(), "octo", "app", 7).Return(files, nil)
	f.source.EXPECT().FetchRepoConfig(gomock.Any(), "octo", "app", "abc123").Return(core.DefaultRepoConfig(), nil)
}

func (f *orchestratorFixture) activity(t *testing.T) []*core.Activity {
	t.Helper()
	entries, err := f.store.ListActivity(context.Background(), 100)
	require.NoError(t, err)
	return entries
}

func TestOrchestrator_Success(t *testing.T) {
	f := newOrchestratorFixture(t)
	files := []core.ChangedFile{{Path: "cache.go", Status: "added", Patch: "@@ -0,0 +1,2 @@\n+package cache\n+var x = 1"}}
	f.expectFetch(files)

	f.analyzer.EXPECT().Analyze(gomock.Any(), core.AnalysisRequest{
		Title:              "Add cache",
		Description:        "Caches lookups.",
		Repository:         "octo/app",
		Files:              files,
		CustomInstructions: []string{},
	}).Return(&core.Analysis{
		Summary: "Solid change.",
		Findings: []core.Finding{
			{Severity: core.SeverityWarning, Title: "Global state", Description: "Avoid globals.", File: "cache.go", Line: 2},
			{Severity: core.SeverityInfo, Title: "Off diff", Description: "x", File: "cache.go", Line: 40},
		},
	}, nil)

	var posted string
	f.source.EXPECT().PostComment(gomock.Any(), "octo", "app", 7, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, body string) error {
			posted = body
			return nil
		})

	require.NoError(t, f.orch.Run(context.Background(), f.review.ID))

	got, err := f.store.GetReview(context.Background(), f.review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "Solid change.", *got.Summary)
	require.Len(t, got.Findings, 2)
	assert.Equal(t, 2, got.Findings[0].Line)
	assert.Equal(t, 0, got.Findings[1].Line, "off-diff anchor is dropped")
	assert.Equal(t, fixedNow.Add(time.Minute), got.ReviewedAt)

	assert.Contains(t, posted, "Solid change.")
	assert.Contains(t, posted, "Global state")

	entries := f.activity(t)
	require.Len(t, entries, 2)
	assert.Equal(t, core.EventCommentPosted, entries[0].EventType)
	assert.Equal(t, core.EventReviewCompleted, entries[1].EventType)
	assert.EqualValues(t, 2, entries[1].Metadata["findingsCount"])
}

func TestOrchestrator_RepoConfig(t *testing.T) {
	f := newOrchestratorFixture(t)
	files := []core.ChangedFile{
		{Path: "main.go", Status: "modified", Patch: "@@ -1 +1 @@\n-a\n+b"},
		{Path: "vendor/lib/x.go", Status: "modified"},
		{Path: "README.md", Status: "modified"},
	}
	f.source.EXPECT().FetchChangeDetails(gomock.Any(), "octo", "app", 7).Return(&core.ChangeDetails{Title: "t"}, nil)
	f.source.EXPECT().FetchChangedFiles(gomock.Any(), "octo", "app", 7).Return(files, nil)
	f.source.EXPECT().FetchRepoConfig(gomock.Any(), "octo", "app", "abc123").Return(&core.RepoConfig{
		CustomInstructions: []string{"Be terse."},
		ExcludeDirs:        []string{"vendor"},
		ExcludeExts:        []string{"md"},
	}, nil)

	f.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.AnalysisRequest) (*core.Analysis, error) {
			assert.Equal(t, []core.ChangedFile{files[0]}, req.Files)
			assert.Equal(t, []string{"Be terse."}, req.CustomInstructions)
			return &core.Analysis{Summary: "ok", Findings: []core.Finding{}}, nil
		})
	f.source.EXPECT().PostComment(gomock.Any(), "octo", "app", 7, gomock.Any()).Return(nil)

	require.NoError(t, f.orch.Run(context.Background(), f.review.ID))
}

func TestOrchestrator_RepoConfigErrorFallsBack(t *testing.T) {
	f := newOrchestratorFixture(t)
	files := []core.ChangedFile{{Path: "README.md", Status: "modified"}}
	f.source.EXPECT().FetchChangeDetails(gomock.Any(), "octo", "app", 7).Return(&core.ChangeDetails{Title: "t"}, nil)
	f.source.EXPECT().FetchChangedFiles(gomock.Any(), "octo", "app", 7).Return(files, nil)
	f.source.EXPECT().FetchRepoConfig(gomock.Any(), "octo", "app", "abc123").Return(nil, errors.New("yaml: bad"))

	f.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.AnalysisRequest) (*core.Analysis, error) {
			assert.Equal(t, files, req.Files)
			return &core.Analysis{Summary: "ok", Findings: []core.Finding{}}, nil
		})
	f.source.EXPECT().PostComment(gomock.Any(), "octo", "app", 7, gomock.Any()).Return(nil)

	require.NoError(t, f.orch.Run(context.Background(), f.review.ID))

	got, err := f.store.GetReview(context.Background(), f.review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
}

func TestOrchestrator_FetchFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.source.EXPECT().FetchChangeDetails(gomock.Any(), "octo", "app", 7).Return(nil, errors.New("404 Not Found")).AnyTimes()
	f.source.EXPECT().FetchChangedFiles(gomock.Any(), "octo", "app", 7).Return(nil, nil).AnyTimes()
	f.source.EXPECT().FetchRepoConfig(gomock.Any(), "octo", "app", "abc123").Return(core.DefaultRepoConfig(), nil).AnyTimes()

	err := f.orch.Run(context.Background(), f.review.ID)
	require.Error(t, err)

	got, err := f.store.GetReview(context.Background(), f.review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusError, got.Status)
	require.NotNil(t, got.Summary)
	assert.Contains(t, *got.Summary, "Review failed: ")
	assert.Contains(t, *got.Summary, "404 Not Found")
	assert.Empty(t, got.Findings)

	entries := f.activity(t)
	require.Len(t, entries, 1)
	assert.Equal(t, core.EventReviewCompleted, entries[0].EventType)
	assert.Contains(t, entries[0].Metadata["error"], "404 Not Found")
	assert.NotContains(t, entries[0].Metadata, "findingsCount")
}

func TestOrchestrator_AnalysisFailureClearsPreviousFindings(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	previous := []core.Finding{{Severity: core.SeverityInfo, Title: "old"}}
	_, err := f.store.UpdateReview(ctx, f.review.ID, core.ReviewUpdate{
		Status:   core.Ptr(core.StatusCompleted),
		Findings: &previous,
	})
	require.NoError(t, err)

	f.expectFetch(nil)
	f.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(nil, errors.New("model unavailable"))

	require.Error(t, f.orch.Run(ctx, f.review.ID))

	got, err := f.store.GetReview(ctx, f.review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusError, got.Status)
	assert.Equal(t, "Review failed: analysis failed: model unavailable", *got.Summary)
	assert.Empty(t, got.Findings)
}

func TestOrchestrator_CommentFailureKeepsFindings(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.expectFetch(nil)
	f.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(&core.Analysis{
		Summary:  "One issue.",
		Findings: []core.Finding{{Severity: core.SeverityCritical, Title: "Leak", Description: "Close the body."}},
	}, nil)
	f.source.EXPECT().PostComment(gomock.Any(), "octo", "app", 7, gomock.Any()).Return(errors.New("403 Forbidden"))

	require.Error(t, f.orch.Run(context.Background(), f.review.ID))

	got, err := f.store.GetReview(context.Background(), f.review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusError, got.Status)
	assert.Contains(t, *got.Summary, "403 Forbidden")
	require.Len(t, got.Findings, 1)
	assert.Equal(t, "Leak", got.Findings[0].Title)

	entries := f.activity(t)
	require.Len(t, entries, 1)
	assert.Equal(t, core.EventReviewCompleted, entries[0].EventType)
}

func TestOrchestrator_MissingReviewIsNoop(t *testing.T) {
	f := newOrchestratorFixture(t)

	assert.NoError(t, f.orch.Run(context.Background(), "does-not-exist"))
	assert.Empty(t, f.activity(t))
}
