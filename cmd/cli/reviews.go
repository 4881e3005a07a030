package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/wire"
)

var outputJSON bool

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "List stored reviews, most recent first",
	Long: `Lists the reviews in the configured store. The in-memory store belongs to
the server process, so this is only useful with the postgres or sqlite driver.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, cleanup, err := wire.InitializeStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to open review store: %w", err)
		}
		defer cleanup()

		reviews, err := store.ListReviews(ctx)
		if err != nil {
			return fmt.Errorf("failed to retrieve reviews: %w", err)
		}

		if outputJSON {
			return printJSON(reviews)
		}
		if len(reviews) == 0 {
			dimColor.Println("No reviews stored yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tREPOSITORY\tPR\tSTATUS\tFINDINGS\tREVIEWED")
		for _, r := range reviews {
			fmt.Fprintf(w, "%s\t%s\t#%d\t%s\t%d\t%s\n",
				r.ID,
				r.Repository,
				r.PRNumber,
				r.Status,
				len(r.Findings),
				r.ReviewedAt.Local().Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

var reviewsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one review as the comment posted to the pull request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, cleanup, err := wire.InitializeStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to open review store: %w", err)
		}
		defer cleanup()

		review, err := store.GetReview(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to retrieve review: %w", err)
		}
		if review == nil {
			return fmt.Errorf("review %s not found", args[0])
		}

		if outputJSON {
			return printJSON(review)
		}

		titleColor.Printf("%s #%d: %s\n", review.Repository, review.PRNumber, review.Title)
		dimColor.Printf("%s · %s · %s\n", review.Status, review.Author, review.PRURL)

		if review.Status != core.StatusCompleted {
			if review.Summary != nil {
				fmt.Println(*review.Summary)
			}
			return nil
		}

		var summary string
		if review.Summary != nil {
			summary = *review.Summary
		}
		rendered, err := glamour.Render(github.FormatReviewComment(summary, review.Findings), "dark")
		if err != nil {
			return fmt.Errorf("failed to render review: %w", err)
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewsCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print JSON instead of a table")
	reviewsCmd.AddCommand(reviewsShowCmd)
	rootCmd.AddCommand(reviewsCmd)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
