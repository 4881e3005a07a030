package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/db"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/jobs"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/server"
	"github.com/sevigo/pr-warden/internal/storage"
)

// AppSet is the provider set of the review service.
var AppSet = wire.NewSet(
	config.LoadConfig,
	ProvideLogger,
	ProvideStore,
	provideGitHubClient,
	provideChangeSource,
	provideGenerator,
	llm.NewPromptManager,
	provideAnalyzer,
	provideOrchestrator,
	jobs.NewReviewJob,
	wire.Bind(new(core.Job), new(*jobs.ReviewJob)),
	provideDispatcher,
	server.NewServer,
	app.NewApp,
)

// ProvideLogger builds the service logger from the logging section.
func ProvideLogger(cfg *config.Config) *slog.Logger {
	l := logger.NewLogger(cfg.Logging, nil)
	slog.SetDefault(l)
	return l
}

// ProvideStore opens the review store selected by database.driver. The
// cleanup func releases the underlying connection.
func ProvideStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		conn, cleanup, err := db.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres review store", "host", cfg.Database.Host, "database", cfg.Database.Database)
		return storage.NewPostgresStore(conn.DB), cleanup, nil

	case config.DriverSQLite:
		gdb, cleanup, err := db.NewSQLite(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewSQLiteStore(gdb, nil)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("using sqlite review store", "path", cfg.Database.DSN)
		return store, cleanup, nil

	case config.DriverMemory, "":
		logger.Info("using in-memory review store; reviews are lost on restart")
		return storage.NewMemoryStore(nil), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func provideGitHubClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (github.Client, error) {
	return github.NewClientFromConfig(ctx, &cfg.GitHub, logger)
}

func provideChangeSource(client github.Client, cfg *config.Config, logger *slog.Logger) core.ChangeSource {
	return github.NewChangeSource(client, cfg.GitHub.Timeout, logger)
}

func provideGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Generator, error) {
	logger.Info("connecting to generator LLM", "provider", cfg.AI.Provider, "model", cfg.AI.Model)

	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		if cfg.AI.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set for the openai provider")
		}
		return llm.NewOpenAIGenerator(cfg.AI.OpenAIAPIKey, cfg.AI.Model, ""), nil

	case config.ProviderGemini:
		if cfg.AI.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is not set for the gemini provider")
		}
		model, err := gemini.New(ctx, gemini.WithModel(cfg.AI.Model), gemini.WithAPIKey(cfg.AI.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return llm.NewModelGenerator(model), nil

	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithHTTPClient(newOllamaHTTPClient(cfg.AI.Timeout)),
			ollama.WithModel(cfg.AI.Model),
			ollama.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return llm.NewModelGenerator(model), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.AI.Provider)
	}
}

// newOllamaHTTPClient allows local models to take their time; the analyzer
// enforces the real deadline.
func newOllamaHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: timeout + time.Minute,
	}
}

func provideAnalyzer(gen llm.Generator, prompts *llm.PromptManager, cfg *config.Config, logger *slog.Logger) core.Analyzer {
	return llm.NewAnalyzer(gen, prompts, llm.AnalyzerConfig{
		Provider:          llm.ModelProvider(cfg.AI.Provider),
		Timeout:           cfg.AI.Timeout,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		MaxPatchChars:     cfg.AI.MaxPatchChars,
	}, logger)
}

func provideOrchestrator(store storage.Store, source core.ChangeSource, analyzer core.Analyzer, logger *slog.Logger) *jobs.Orchestrator {
	return jobs.NewOrchestrator(store, source, analyzer, time.Now, logger)
}

func provideDispatcher(job core.Job, cfg *config.Config, logger *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(job, cfg.Jobs.MaxWorkers, cfg.Jobs.QueueSize, logger)
}
