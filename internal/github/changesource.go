package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/pr-warden/internal/core"
)

// ChangeSource adapts Client to core.ChangeSource. Each call runs under its
// own timeout and failures are classified.
type ChangeSource struct {
	client  Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ core.ChangeSource = (*ChangeSource)(nil)

// NewChangeSource returns a ChangeSource. A non-positive timeout disables the
// per-call deadline.
func NewChangeSource(client Client, timeout time.Duration, logger *slog.Logger) *ChangeSource {
	return &ChangeSource{client: client, timeout: timeout, logger: logger}
}

func (c *ChangeSource) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *ChangeSource) FetchChangeDetails(ctx context.Context, owner, repo string, number int) (*core.ChangeDetails, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	pr, err := c.client.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request %s/%s#%d: %w", owner, repo, number, classifyError(err))
	}
	return &core.ChangeDetails{
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		HeadSHA:     pr.GetHead().GetSHA(),
	}, nil
}

func (c *ChangeSource) FetchChangedFiles(ctx context.Context, owner, repo string, number int) ([]core.ChangedFile, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	files, err := c.client.GetChangedFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch changed files of %s/%s#%d: %w", owner, repo, number, classifyError(err))
	}
	return files, nil
}

func (c *ChangeSource) PostComment(ctx context.Context, owner, repo string, number int, body string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.CreateComment(ctx, owner, repo, number, body); err != nil {
		return fmt.Errorf("failed to post comment on %s/%s#%d: %w", owner, repo, number, classifyError(err))
	}
	return nil
}

// FetchRepoConfig reads the repository review config at ref. A repository
// without one gets the defaults.
func (c *ChangeSource) FetchRepoConfig(ctx context.Context, owner, repo, ref string) (*core.RepoConfig, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	data, err := c.client.GetFileContent(ctx, owner, repo, core.RepoConfigFile, ref)
	if err != nil {
		err = classifyError(err)
		if errors.Is(err, ErrNotFound) {
			c.logger.Debug("no repository review config", "repo", owner+"/"+repo, "ref", ref)
			return core.DefaultRepoConfig(), nil
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", core.RepoConfigFile, err)
	}

	cfg := core.DefaultRepoConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", core.RepoConfigFile, err)
	}
	return cfg, nil
}
