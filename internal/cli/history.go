package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of records to display")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(typesCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <username>",
	Short: "Show recorded activity from the archive (no network fetch)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		records, err := a.svc.GetHistoricalActivity(ctx, username)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Printf("no recorded activity for user: %s (try 'activity %s' first)\n", username, username)
			return nil
		}

		if historyLimit > 0 && len(records) > historyLimit {
			records = records[:historyLimit]
		}
		for i, r := range records {
			fmt.Printf("%2d. %s\n", i+1, r.Description)
		}
		fmt.Printf("total records displayed: %d\n", len(records))
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:     "types <username>",
	Aliases: []string{"t"},
	Short:   "Show recorded event types for a user",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		types, err := a.svc.GetAvailableEventTypes(ctx, username)
		if err != nil {
			return err
		}

		// nothing recorded yet: fetch once and give the async persistence a
		// moment to land before re-querying
		if len(types) == 0 {
			if _, err := a.svc.GetUserActivity(ctx, username, true); err != nil {
				return err
			}
			for attempt := 0; attempt < 5 && len(types) == 0; attempt++ {
				time.Sleep(300 * time.Millisecond)
				if types, err = a.svc.GetAvailableEventTypes(ctx, username); err != nil {
					return err
				}
			}
		}

		if len(types) == 0 {
			fmt.Printf("no event types found for user: %s\n", username)
			return nil
		}
		fmt.Printf("available event types for %s:\n", username)
		for _, t := range types {
			fmt.Printf("  - %s\n", t)
		}
		fmt.Printf("use 'filter %s <event-type>' to filter by type\n", username)
		return nil
	},
}
