package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/sevigo/pr-warden/internal/core"
)

const (
	defaultMaxPatchChars = 2000
	truncationMarker     = "\n... (truncated)"
)

// AnalyzerConfig tunes the Analyzer.
type AnalyzerConfig struct {
	Provider ModelProvider
	// Timeout bounds a single generation. Zero means no deadline.
	Timeout time.Duration
	// RequestsPerMinute caps generation calls. Zero disables the limit.
	RequestsPerMinute int
	MaxPatchChars     int
}

// Analyzer implements core.Analyzer on top of a Generator.
type Analyzer struct {
	gen     Generator
	prompts *PromptManager
	limiter *rate.Limiter
	cfg     AnalyzerConfig
	logger  *slog.Logger
}

var _ core.Analyzer = (*Analyzer)(nil)

func NewAnalyzer(gen Generator, prompts *PromptManager, cfg AnalyzerConfig, logger *slog.Logger) *Analyzer {
	if cfg.MaxPatchChars <= 0 {
		cfg.MaxPatchChars = defaultMaxPatchChars
	}
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Analyzer{
		gen:     gen,
		prompts: prompts,
		limiter: rate.NewLimiter(limit, 1),
		cfg:     cfg,
		logger:  logger,
	}
}

type promptFile struct {
	Path   string
	Status string
	Patch  string
}

type promptData struct {
	Title              string
	Description        string
	Repository         string
	Files              []promptFile
	CustomInstructions []string
}

// Analyze renders the analysis prompt, calls the model and validates its
// answer. Failures of the model call are returned as is; unusable output
// wraps ErrMalformedAnalysis.
func (a *Analyzer) Analyze(ctx context.Context, req core.AnalysisRequest) (*core.Analysis, error) {
	data := promptData{
		Title:              req.Title,
		Description:        req.Description,
		Repository:         req.Repository,
		Files:              make([]promptFile, 0, len(req.Files)),
		CustomInstructions: req.CustomInstructions,
	}
	for _, f := range req.Files {
		data.Files = append(data.Files, promptFile{
			Path:   f.Path,
			Status: f.Status,
			Patch:  TruncatePatch(f.Patch, a.cfg.MaxPatchChars),
		})
	}

	system, err := a.prompts.Render(SystemPrompt, a.cfg.Provider, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to render system prompt: %w", err)
	}
	prompt, err := a.prompts.Render(AnalyzePrompt, a.cfg.Provider, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render analysis prompt: %w", err)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("analysis rate limiter: %w", err)
	}

	start := time.Now()
	output, err := a.generateWithTimeout(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	a.logger.Debug("analysis generated", "repo", req.Repository, "files", len(req.Files), "duration", time.Since(start))

	return parseAnalysis(output)
}

// generateWithTimeout bounds the call even for models that ignore context
// cancellation.
func (a *Analyzer) generateWithTimeout(ctx context.Context, system, prompt string) (string, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	type result struct {
		resp string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := a.gen.Generate(ctx, system, prompt)
		resultCh <- result{resp, err}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// TruncatePatch shortens patch to at most limit characters and marks the cut.
func TruncatePatch(patch string, limit int) string {
	if limit <= 0 || len(patch) <= limit {
		return patch
	}
	runes := []rune(patch)
	if len(runes) <= limit {
		return patch
	}
	return string(runes[:limit]) + truncationMarker
}
