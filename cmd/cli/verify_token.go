package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/github"
)

var (
	verifyRepo string
	verifyPR   int
)

var verifyTokenCmd = &cobra.Command{
	Use:   "verify-token [pr-url]",
	Short: "Check the configured GitHub credentials",
	Long: `Authenticates with the configured token or GitHub App and, when a pull
request is given (as a URL, owner/repo#N, or --repo and --pr), checks that it
and its files can be read.

Examples:
  warden-cli verify-token
  warden-cli verify-token https://github.com/octo/app/pull/42
  warden-cli verify-token --repo octo/app --pr 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerifyToken,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	verifyTokenCmd.Flags().StringVar(&verifyRepo, "repo", "", "repository to probe, as owner/name")
	verifyTokenCmd.Flags().IntVar(&verifyPR, "pr", 0, "pull request number to probe")
	rootCmd.AddCommand(verifyTokenCmd)
}

func runVerifyToken(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	titleColor.Println("Verifying GitHub credentials...")
	client, err := github.NewClientFromConfig(ctx, &cfg.GitHub, quiet)
	if err != nil {
		errorColor.Println("✗ No usable credentials")
		return err
	}

	if cfg.GitHub.AppID == 0 {
		user, err := client.GetAuthenticatedUser(ctx)
		if err != nil {
			errorColor.Println("✗ Token verification failed")
			dimColor.Println("  Make sure the token is valid and not expired.")
			return err
		}
		successColor.Println("✓ Token is valid")
		fmt.Printf("  Authenticated as: %s\n", user.GetLogin())
		fmt.Printf("  Name: %s\n", valueOr(user.GetName(), "N/A"))
		fmt.Printf("  Type: %s\n", user.GetType())
	} else {
		successColor.Printf("✓ GitHub App %d, installation %d\n", cfg.GitHub.AppID, cfg.GitHub.InstallationID)
	}

	ref := fmt.Sprintf("%s#%d", verifyRepo, verifyPR)
	switch {
	case len(args) == 1:
		ref = args[0]
	case verifyRepo == "" && verifyPR == 0:
		return nil
	}
	owner, repo, number, err := github.ParsePullRequestRef(ref)
	if err != nil {
		return err
	}

	fmt.Printf("\nTesting access to PR #%d in %s/%s...\n", number, owner, repo)
	pr, err := client.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		errorColor.Printf("✗ Failed to access PR #%d\n", number)
		dimColor.Println("  The token needs Pull requests: read and write, and Contents: read-only on this repository.")
		return err
	}
	successColor.Printf("✓ Successfully accessed PR #%d\n", number)
	fmt.Printf("  Title: %s\n", pr.GetTitle())
	fmt.Printf("  State: %s\n", pr.GetState())
	fmt.Printf("  Author: %s\n", pr.GetUser().GetLogin())

	files, err := client.GetChangedFiles(ctx, owner, repo, number)
	if err != nil {
		errorColor.Println("✗ Failed to list changed files")
		return err
	}
	successColor.Printf("✓ Successfully fetched %d files\n", len(files))
	for _, f := range files {
		fmt.Printf("  - %s (%s)\n", f.Path, f.Status)
	}
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
