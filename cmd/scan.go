package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/repositories"
	"github.com/desertthunder/spotsort/internal/scanner"
	"github.com/desertthunder/spotsort/internal/shared"
	"github.com/urfave/cli/v3"
)

// openCatalog opens the local catalog database per the config and ensures
// migrations are applied.
func (r *Runner) openCatalog(cmd *cli.Command) (*repositories.LocalTrackRepository, func(), error) {
	config := r.config
	if config == nil {
		configPath := cmd.String("config")
		if _, err := os.Stat(configPath); err == nil {
			var loadErr error
			if config, loadErr = shared.LoadConfig(configPath); loadErr != nil {
				return nil, nil, fmt.Errorf("failed to load config: %w", loadErr)
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories.NewLocalTrackRepository(db), func() { db.Close() }, nil
}

// ScanRun walks a directory tree and upserts its audio files into the catalog.
func (r *Runner) ScanRun(ctx context.Context, cmd *cli.Command) error {
	root := cmd.StringArg("path")
	if root == "" {
		return fmt.Errorf("%w: path argument is required", shared.ErrMissingArgument)
	}

	repo, closeDB, err := r.openCatalog(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	r.logger.Infof("scanning %s", root)

	result, err := scanner.New(repo, r.logger).Scan(ctx, root)
	if err != nil {
		return err
	}

	r.writePlain("✓ Scan complete\n")
	r.writePlain("  Scanned: %d\n", result.Scanned)
	r.writePlain("  Created: %d\n", result.Created)
	r.writePlain("  Updated: %d\n", result.Updated)
	r.writePlain("  Skipped: %d\n", result.Skipped)
	if len(result.Errors) > 0 {
		r.writePlain("  ⚠ %d files could not be read:\n", len(result.Errors))
		for _, e := range result.Errors {
			r.writePlain("    %s\n", e)
		}
	}

	return nil
}

// ScanList lists indexed local tracks, optionally filtered.
func (r *Runner) ScanList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	repo, closeDB, err := r.openCatalog(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	criteria := map[string]any{}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}
	if genre := cmd.String("genre"); genre != "" {
		criteria["genre"] = genre
	}
	if year := cmd.Int("year"); year > 0 {
		criteria["year"] = year
	}

	tracks, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if useJSON {
		records := make([]models.TrackRecord, len(tracks))
		for i, track := range tracks {
			records[i] = track.Record()
		}
		return r.writeJSON(records, pretty)
	}

	r.writePlain("Found %d local tracks:\n\n", len(tracks))
	for _, track := range tracks {
		r.writePlain("%d. %s - %s\n", track.Sequence, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain("   Album: %s\n", track.Album)
		}
		if track.Year > 0 {
			r.writePlain("   Year: %d\n", track.Year)
		}
		r.writePlain("   Path: %s\n", track.Path)
	}

	return nil
}
