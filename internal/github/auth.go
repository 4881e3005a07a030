package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/pr-warden/internal/config"
)

// ErrNoCredentials is returned when neither a token nor App credentials are configured.
var ErrNoCredentials = errors.New("no GitHub credentials configured: set github.token or github.app_id")

// NewClientFromConfig builds an authenticated client. GitHub App installation
// auth is used when an app id is configured, otherwise the personal access
// token. The installation transport refreshes its token before expiry.
func NewClientFromConfig(ctx context.Context, cfg *config.GitHubConfig, logger *slog.Logger) (Client, error) {
	var httpClient *http.Client

	switch {
	case cfg.AppID != 0:
		logger.Info("using GitHub App installation auth", "app_id", cfg.AppID, "installation_id", cfg.InstallationID)
		itr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub App transport from %s: %w", cfg.PrivateKeyPath, err)
		}
		if cfg.BaseURL != "" {
			itr.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		httpClient = &http.Client{Transport: itr}
	case cfg.Token != "":
		logger.Info("using GitHub personal access token auth")
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	default:
		return nil, ErrNoCredentials
	}

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github.base_url %q: %w", cfg.BaseURL, err)
		}
	}
	return NewGitHubClient(client, logger), nil
}
