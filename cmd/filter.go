package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
	"github.com/urfave/cli/v3"
)

// specFromFlags assembles a [models.FilterSpec] from the filter flag set.
func specFromFlags(cmd *cli.Command) models.FilterSpec {
	spec := models.FilterSpec{
		Text:     cmd.String("text"),
		Artist:   cmd.String("artist"),
		Genres:   cmd.StringSlice("genre"),
		YearFrom: cmd.Int("year-from"),
		YearTo:   cmd.Int("year-to"),
		Mood:     cmd.String("mood"),
	}
	if ids := cmd.StringSlice("playlist"); len(ids) > 0 {
		spec.Scope = models.ScopePlaylists
		spec.PlaylistIDs = ids
	}
	return spec
}

// Filter lists tracks matching the criteria flags.
func (r *Runner) Filter(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	engine, err := r.newEngine(cmd)
	if err != nil {
		return err
	}

	spec := specFromFlags(cmd)
	r.logger.Infof("filtering tracks: %s", spec.Describe())

	progress, done := r.logProgress()
	defer done()

	matched, err := engine.Filter(ctx, progress, spec)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if matched, err = engine.Filter(ctx, progress, spec); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return err
		}
	}

	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	if useJSON {
		return r.writeJSON(matched, pretty)
	}

	r.writePlain("Matched %d tracks:\n\n", len(matched))
	for i, track := range matched {
		r.writePlain("%d. %s - %s", i+1, strings.Join(track.Artists, ", "), track.Title)
		if track.Year > 0 {
			r.writePlain(" (%d)", track.Year)
		}
		r.writePlain("\n")
	}

	return nil
}

// FilterCreate materializes a filter result as a new playlist.
func (r *Runner) FilterCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	engine, err := r.newEngine(cmd)
	if err != nil {
		return err
	}

	spec := specFromFlags(cmd)
	r.logger.Infof("creating playlist %q from filter: %s", name, spec.Describe())

	progress, done := r.logProgress()
	defer done()

	playlist, err := engine.CreateFromFilter(ctx, progress, spec, name)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if playlist, err = engine.CreateFromFilter(ctx, progress, spec, name); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return err
		}
	}

	if useJSON {
		return r.writeJSON(playlist, pretty)
	}

	r.writePlain("✓ Created playlist %s\n", playlist.Name)
	r.writePlain("  ID: %s\n", playlist.ID)
	r.writePlain("  Tracks: %d\n", playlist.TrackCount)
	r.writePlain("  Visibility: %s\n", shared.VisibilityString(playlist.Public))

	return nil
}
