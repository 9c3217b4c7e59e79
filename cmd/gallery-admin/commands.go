package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"image-gallery/internal/indexer"
	"image-gallery/internal/logging"
	"image-gallery/internal/security"
	"image-gallery/internal/session"
)

func newScanCmd(opts *options) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one full reconcile of the library",
		Long: `Walks the library root, extracts metadata for new or changed images and
removes catalog rows for images that no longer exist.

Do not run this while the server is reconciling the same catalog.`,
		Example: `  # Reconcile the library in the working directory
  gallery-admin scan

  # Reconcile a mounted library with fewer workers
  gallery-admin scan --root /mnt/photos --workers 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDatabase(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			boundary, err := security.NewBoundary(opts.rootDir)
			if err != nil {
				return err
			}

			log := logging.WithField("command", "scan")
			log.Infof("Reconciling %s into %s", boundary.Root(), opts.databasePath())

			idx := indexer.New(db, boundary, indexer.Options{ExtractWorkers: workers})
			defer idx.Stop()

			result, err := idx.FullReconcile(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconcile failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d images: %d updated, %d removed, %d unreadable in %v\n",
				result.Walked, result.Upserted, result.Deleted, result.Failed, result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent extractions (0 uses the default of 16)")

	return cmd
}

func newSessionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "session <client-id>",
		Short: "Print the stored playlist of a client",
		Long: `Prints the durable session of a client as JSON. Client ids are the
remote IP addresses the server saw.`,
		Example: `  gallery-admin session 192.168.1.20`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDatabase(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			rec, ok, err := session.NewDurableStore(db).Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read session: %w", err)
			}
			if !ok {
				return errors.New("no session stored for " + args[0])
			}

			out := struct {
				ClientID  string    `json:"client_id"`
				CreatedAt time.Time `json:"created_at"`
				Size      int       `json:"playlist_size"`
				Playlist  []string  `json:"playlist"`
			}{args[0], rec.CreatedAt, len(rec.Playlist), rec.Playlist}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print catalog counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDatabase(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			stats, err := db.CatalogStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read catalog stats: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Database:     %s\n", db.Path())
			fmt.Fprintf(w, "Images:       %d\n", stats.TotalImages)
			fmt.Fprintf(w, "  Landscape:  %d\n", stats.LandscapeImages)
			fmt.Fprintf(w, "  Portrait:   %d\n", stats.PortraitImages)
			fmt.Fprintf(w, "Outside root: %d\n", stats.OutsideRoot)
			fmt.Fprintf(w, "Sessions:     %d\n", stats.Sessions)
			return nil
		},
	}
}

func closeDatabase(db interface{ Close() error }) {
	if err := db.Close(); err != nil {
		logging.Warn("failed to close database: %v", err)
	}
}
