package core

import "context"

// ChangeDetails is the pull request metadata needed for analysis.
type ChangeDetails struct {
	Title       string
	Description string
	HeadSHA     string
}

// ChangedFile holds the path, change status and patch of a single file
// included in a pull request. Patch is empty for binary or very large files.
type ChangedFile struct {
	Path   string
	Status string
	Patch  string
}

// AnalysisRequest is the input of one analysis call.
type AnalysisRequest struct {
	Title              string
	Description        string
	Repository         string
	Files              []ChangedFile
	CustomInstructions []string
}

// Analysis is the validated output of the analysis service.
type Analysis struct {
	Summary  string    `json:"summary"`
	Findings []Finding `json:"findings"`
}

// ChangeSource is the remote version-control API a review reads from and
// reports back to.
//
//go:generate mockgen -destination=../../mocks/mock_change_source.go -package=mocks . ChangeSource
type ChangeSource interface {
	FetchChangeDetails(ctx context.Context, owner, repo string, number int) (*ChangeDetails, error)
	FetchChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error)
	PostComment(ctx context.Context, owner, repo string, number int, body string) error
	// FetchRepoConfig loads the repository review config at ref. A missing
	// config file yields DefaultRepoConfig and no error.
	FetchRepoConfig(ctx context.Context, owner, repo, ref string) (*RepoConfig, error)
}

// Analyzer turns a pull request into a structured assessment.
//
//go:generate mockgen -destination=../../mocks/mock_analyzer.go -package=mocks . Analyzer
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error)
}
