package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/github"
)

var signSecret string

var signCmd = &cobra.Command{
	Use:   "sign <payload-file>",
	Short: "Compute the webhook signature header for a payload",
	Long: `Prints the X-Hub-Signature-256 value for the exact bytes of payload-file,
for replaying deliveries against a running server. The secret defaults to
the configured webhook secret.

Example:
  curl -X POST localhost:8080/api/webhook \
    -H "X-GitHub-Event: pull_request" \
    -H "X-Hub-Signature-256: $(warden-cli sign event.json)" \
    --data-binary @event.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		payload, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}

		secret := signSecret
		if secret == "" {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			secret = cfg.GitHub.WebhookSecret
		}
		if secret == "" {
			return errors.New("no webhook secret: pass --secret or configure github.webhook_secret")
		}

		fmt.Println(github.Sign(payload, secret))
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	signCmd.Flags().StringVar(&signSecret, "secret", "", "webhook secret (default: configured secret)")
	rootCmd.AddCommand(signCmd)
}
