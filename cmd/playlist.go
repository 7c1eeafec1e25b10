package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsort/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistRename changes a playlist's display name.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	name := cmd.String("name")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("renaming playlist %s to %q", playlistID, name)

	if err := r.spotify.RenamePlaylist(ctx, playlistID, name); err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if err = r.spotify.RenamePlaylist(ctx, playlistID, name); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return err
		}
	}

	return r.writePlain("✓ Playlist %s renamed to %q\n", playlistID, name)
}

// PlaylistDelete unfollows (deletes) a playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if !cmd.Bool("yes") {
		r.writePlain("This deletes playlist %s from your account.\n", playlistID)
		r.writePlain("Run again with --yes to confirm.\n")
		return nil
	}

	r.logger.Infof("deleting playlist %s", playlistID)

	if err := r.spotify.DeletePlaylist(ctx, playlistID); err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if err = r.spotify.DeletePlaylist(ctx, playlistID); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return err
		}
	}

	return r.writePlain("✓ Playlist %s deleted\n", playlistID)
}

// PlaylistRemoveTrack removes all occurrences of a track from a playlist.
func (r *Runner) PlaylistRemoveTrack(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	trackID := cmd.String("track")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("removing track %s from playlist %s", trackID, playlistID)

	if err := r.spotify.RemoveTrack(ctx, playlistID, trackID); err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if err = r.spotify.RemoveTrack(ctx, playlistID, trackID); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return err
		}
	}

	return r.writePlain("✓ Track %s removed from playlist %s\n", trackID, playlistID)
}
