package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"activity-archive/internal/activity"
	"activity-archive/internal/models"
)

var (
	activityLimit   int
	activityRefresh bool
	filterLimit     int
)

func init() {
	activityCmd.Flags().IntVar(&activityLimit, "limit", 10, "maximum number of events to display")
	activityCmd.Flags().BoolVar(&activityRefresh, "refresh", false, "force refresh from the GitHub API")
	filterCmd.Flags().IntVar(&filterLimit, "limit", 10, "maximum number of events to display")

	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(summaryCmd)
}

var activityCmd = &cobra.Command{
	Use:     "activity <username>",
	Aliases: []string{"a"},
	Short:   "Fetch and display a user's recent GitHub activity",
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

		events, err := a.svc.GetUserActivity(ctx, username, activityRefresh)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Printf("no activity found for user: %s\n", username)
			return nil
		}

		printEvents(events, activityLimit)
		if !activityRefresh {
			fmt.Println("tip: use --refresh to force a fetch from GitHub")
		}
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:     "filter <username> <event-type>",
	Aliases: []string{"f"},
	Short:   "Filter a user's activity by event type (e.g. PushEvent)",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, eventType := args[0], args[1]

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		events, err := a.svc.GetFilteredActivity(ctx, username, eventType)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Printf("no %s events found for user: %s\n", eventType, username)
			return nil
		}

		printEvents(events, filterLimit)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:     "summary <username>",
	Aliases: []string{"s"},
	Short:   "Show an activity summary with per-type counts",
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

		events, err := a.svc.GetUserActivity(ctx, username, false)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Printf("no activity found for user: %s\n", username)
			return nil
		}

		counts := map[string]int{}
		var repos []string
		seenRepo := map[string]bool{}
		for _, e := range events {
			counts[e.Type]++
			if !seenRepo[e.Repo.Name] {
				seenRepo[e.Repo.Name] = true
				repos = append(repos, e.Repo.Name)
			}
		}

		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Strings(types)

		fmt.Printf("activity summary for %s\n", username)
		for _, t := range types {
			fmt.Printf("  %-32s %d event(s)\n", t, counts[t])
		}
		fmt.Printf("total events: %d\n\nactive repositories:\n", len(events))
		for i, r := range repos {
			if i == 5 {
				fmt.Println("  ... and more")
				break
			}
			fmt.Printf("  - %s\n", r)
		}
		return nil
	},
}

func printEvents(events []models.Event, limit int) {
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	for i, e := range events {
		fmt.Printf("%2d. %s\n", i+1, activity.Render(e))
	}
	fmt.Printf("total events displayed: %d\n", len(events))
}
