package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"image-gallery/internal/database"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	rootDir     string
	databaseDir string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gallery-admin",
		Short: "Maintenance tool for the gallery catalog",
		Long: `gallery-admin inspects and maintains the SQLite catalog used by the
gallery server.

The library root and database directory default to GALLERY_ROOT_DIR and
DATABASE_DIR, read from the environment or a .env file in the working
directory.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.rootDir, "root", "", "Library root (default $GALLERY_ROOT_DIR or working directory)")
	cmd.PersistentFlags().StringVar(&opts.databaseDir, "database-dir", "", "Catalog directory (default $DATABASE_DIR or library root)")

	cmd.AddCommand(newScanCmd(opts))
	cmd.AddCommand(newSessionCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))

	return cmd
}

// resolve fills unset paths from the environment, matching the server's
// defaults.
func (o *options) resolve() error {
	if o.rootDir == "" {
		o.rootDir = os.Getenv("GALLERY_ROOT_DIR")
	}
	if o.rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		o.rootDir = wd
	}
	if o.databaseDir == "" {
		o.databaseDir = os.Getenv("DATABASE_DIR")
	}
	if o.databaseDir == "" {
		o.databaseDir = o.rootDir
	}
	return nil
}

func (o *options) databasePath() string {
	return filepath.Join(o.databaseDir, database.FileName)
}

// openDatabase opens the catalog. With mustExist, a missing database file
// is an error rather than a fresh empty catalog.
func (o *options) openDatabase(ctx context.Context, mustExist bool) (*database.Database, error) {
	if err := o.resolve(); err != nil {
		return nil, err
	}

	path := o.databasePath()
	if mustExist {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no catalog at %s (check --database-dir or DATABASE_DIR)", path)
		}
	}

	db, err := database.New(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	return db, nil
}
