package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotsort/internal/catalog"
	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/server"
	"github.com/desertthunder/spotsort/internal/shared"
	"github.com/urfave/cli/v3"
)

// collectTracks fetches tracks from the library or the playlists named by
// repeated --playlist flags, with genre enrichment applied.
func (r *Runner) collectTracks(ctx context.Context, cmd *cli.Command) ([]models.TrackRecord, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	accessor := catalog.NewAccessor(r.spotify)
	if ids := cmd.StringSlice("playlist"); len(ids) > 0 {
		return accessor.FromPlaylists(ctx, ids)
	}
	return accessor.Library(ctx)
}

// LibraryTracks lists tracks from the library or selected playlists.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Info("fetching tracks")

	tracks, err := r.collectTracks(ctx, cmd)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if tracks, err = r.collectTracks(ctx, cmd); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if limit > 0 && limit < len(tracks) {
		tracks = tracks[:limit]
	}

	if useJSON {
		return r.writeJSON(tracks, pretty)
	}

	r.writePlain("Found %d tracks:\n\n", len(tracks))
	for i, track := range tracks {
		r.writePlain("%d. %s - %s\n", i+1, strings.Join(track.Artists, ", "), track.Title)
		if track.Album != "" {
			r.writePlain("   Album: %s\n", track.Album)
		}
		if track.Year > 0 {
			r.writePlain("   Year: %d\n", track.Year)
		}
		if len(track.Genres) > 0 {
			r.writePlain("   Genres: %s\n", strings.Join(track.Genres, ", "))
		}
	}

	return nil
}

// LibraryPlaylists lists the user's playlists, Liked Songs first.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("listing playlists")

	accessor := catalog.NewAccessor(r.spotify)
	playlists, err := accessor.Playlists(ctx)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if playlists, err = accessor.Playlists(ctx); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		if !p.IsLikedSongs {
			r.writePlain("   Tracks: %d\n", p.TrackCount)
			r.writePlain("   Visibility: %s\n", shared.VisibilityString(p.Public))
		}
		r.writePlain("\n")
	}

	return nil
}

// LibraryStats prints aggregate statistics over the selected tracks.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Info("computing library stats")

	tracks, err := r.collectTracks(ctx, cmd)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if tracks, err = r.collectTracks(ctx, cmd); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	stats := server.ComputeStats(tracks)

	if useJSON {
		return r.writeJSON(stats, pretty)
	}

	r.writePlainHeader("Library Statistics")
	r.writePlain("Tracks:   %d\n", stats.Tracks)
	r.writePlain("Artists:  %d\n", stats.Artists)
	r.writePlain("Albums:   %d\n", stats.Albums)
	r.writePlain("Genres:   %d\n", stats.Genres)
	r.writePlain("Playtime: %.1f hours\n", stats.DurationHours)

	return nil
}
