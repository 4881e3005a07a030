// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"
	"fmt"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/jobs"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/internal/server"
	"github.com/sevigo/pr-warden/internal/storage"
)

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger := ProvideLogger(cfg)

	store, storeCleanup, err := ProvideStore(cfg, slogLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open review store: %w", err)
	}

	client, err := provideGitHubClient(ctx, cfg, slogLogger)
	if err != nil {
		storeCleanup()
		return nil, nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	changeSource := provideChangeSource(client, cfg, slogLogger)

	generator, err := provideGenerator(ctx, cfg, slogLogger)
	if err != nil {
		storeCleanup()
		return nil, nil, fmt.Errorf("failed to create generator LLM: %w", err)
	}
	promptManager, err := llm.NewPromptManager()
	if err != nil {
		storeCleanup()
		return nil, nil, fmt.Errorf("failed to create prompt manager: %w", err)
	}
	analyzer := provideAnalyzer(generator, promptManager, cfg, slogLogger)

	orchestrator := provideOrchestrator(store, changeSource, analyzer, slogLogger)
	reviewJob := jobs.NewReviewJob(store, orchestrator, slogLogger)
	dispatcher := provideDispatcher(reviewJob, cfg, slogLogger)

	srv := server.NewServer(cfg, store, dispatcher, slogLogger)
	application := app.NewApp(cfg, srv, dispatcher, store, slogLogger)

	return application, func() {
		storeCleanup()
	}, nil
}

// InitializeStore opens the configured review store on its own, for tools
// that only read reviews.
func InitializeStore(ctx context.Context) (storage.Store, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger := ProvideLogger(cfg)

	store, cleanup, err := ProvideStore(cfg, slogLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open review store: %w", err)
	}
	return store, cleanup, nil
}
