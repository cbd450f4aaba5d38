package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"activity-archive/internal/archive"
)

var archiveDir string

func init() {
	archiveCmd.Flags().StringVar(&archiveDir, "dir", "archives", "local directory used when no S3 bucket is configured")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(archiveCmd)
}

var validateCmd = &cobra.Command{
	Use:     "validate <username>",
	Aliases: []string{"v"},
	Short:   "Check whether a GitHub username exists",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if a.svc.ValidateUser(ctx, username) {
			fmt.Printf("user '%s' exists on GitHub\n", username)
		} else {
			fmt.Printf("user '%s' not found on GitHub\n", username)
		}
		return nil
	},
}

var clearCacheCmd = &cobra.Command{
	Use:     "clear-cache <username>",
	Aliases: []string{"cc"},
	Short:   "Clear cached activity for a user",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if a.svc.InvalidateCache(ctx, username) {
			fmt.Printf("cache cleared for user: %s\n", username)
		} else {
			fmt.Printf("no cache found for user: %s\n", username)
		}
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <username>",
	Short: "Export a user's recorded history to the archive target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if a.store == nil {
			return fmt.Errorf("archive requires DB_DSN to be configured")
		}

		var objs archive.ObjectStore
		if a.cfg.ArchiveBucket != "" {
			objs, err = archive.NewS3Store(ctx, archive.S3Config{
				Endpoint:  a.cfg.ArchiveEndpoint,
				Bucket:    a.cfg.ArchiveBucket,
				Region:    a.cfg.ArchiveRegion,
				PublicURL: a.cfg.ArchivePublicURL,
			})
			if err != nil {
				return err
			}
		} else {
			objs = archive.NewDirStore(archiveDir)
		}

		exporter := archive.NewExporter(slog.Default(), a.store, objs)
		url, err := exporter.ExportUser(ctx, username)
		if err != nil {
			return err
		}

		fmt.Printf("history for %s archived to %s\n", username, url)
		return nil
	},
}
