package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/wire"
)

var activityLimit int

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the most recent activity log entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if activityLimit <= 0 {
			return errors.New("--limit must be positive")
		}
		ctx := cmd.Context()

		store, cleanup, err := wire.InitializeStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to open review store: %w", err)
		}
		defer cleanup()

		entries, err := store.ListActivity(ctx, activityLimit)
		if err != nil {
			return fmt.Errorf("failed to retrieve activity: %w", err)
		}

		if outputJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			dimColor.Println("No activity recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tMESSAGE")
		for _, a := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Timestamp.Local().Format(time.DateTime), a.EventType, a.Message)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	activityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 50, "number of entries to show")
	activityCmd.Flags().BoolVar(&outputJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(activityCmd)
}
