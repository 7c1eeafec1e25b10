package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/services"
	"github.com/desertthunder/spotsort/internal/shared"
)

// Accessor fetches normalized track collections from a [services.Service].
type Accessor struct {
	service services.Service
}

func NewAccessor(service services.Service) *Accessor {
	return &Accessor{service: service}
}

// Library fetches the user's saved-tracks library with genre tags resolved.
func (a *Accessor) Library(ctx context.Context) ([]models.TrackRecord, error) {
	tracks, err := a.service.SavedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch library: %w", err)
	}

	if err := a.enrichGenres(ctx, tracks); err != nil {
		return nil, err
	}

	return tracks, nil
}

// FromPlaylists fetches the deduplicated union of the given playlist ids.
// The [models.LikedSongsID] pseudo-playlist resolves to the saved-tracks
// library. Duplicate track ids keep their first occurrence, so order follows
// the playlist id order given by the caller.
func (a *Accessor) FromPlaylists(ctx context.Context, playlistIDs []string) ([]models.TrackRecord, error) {
	if len(playlistIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one playlist id is required", shared.ErrInvalidArgument)
	}

	seen := make(map[string]struct{})
	var union []models.TrackRecord

	for _, id := range playlistIDs {
		var tracks []models.TrackRecord
		var err error

		if id == models.LikedSongsID {
			tracks, err = a.service.SavedTracks(ctx)
		} else {
			tracks, err = a.service.PlaylistTracks(ctx, id)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist %s: %w", id, err)
		}

		for _, track := range tracks {
			if _, ok := seen[track.ID]; ok {
				continue
			}
			seen[track.ID] = struct{}{}
			union = append(union, track)
		}
	}

	if err := a.enrichGenres(ctx, union); err != nil {
		return nil, err
	}

	return union, nil
}

// Playlists lists the user's playlists with the liked-songs pseudo-playlist
// prepended so callers can offer it alongside real playlists.
func (a *Accessor) Playlists(ctx context.Context) ([]models.PlaylistDescriptor, error) {
	playlists, err := a.service.Playlists(ctx)
	if err != nil {
		return nil, err
	}

	liked := models.PlaylistDescriptor{
		ID:           models.LikedSongsID,
		Name:         "Liked Songs",
		IsLikedSongs: true,
	}

	return append([]models.PlaylistDescriptor{liked}, playlists...), nil
}

// enrichGenres resolves genre tags for every track in place via batched
// artist lookups. A track's tags are the normalized union of all its
// artists' genres. Tracks whose genres were already resolved are untouched.
func (a *Accessor) enrichGenres(ctx context.Context, tracks []models.TrackRecord) error {
	var pending []string
	seen := make(map[string]struct{})

	for _, track := range tracks {
		if len(track.Genres) > 0 {
			continue
		}
		for _, artistID := range track.ArtistIDs {
			if artistID == "" {
				continue
			}
			if _, ok := seen[artistID]; ok {
				continue
			}
			seen[artistID] = struct{}{}
			pending = append(pending, artistID)
		}
	}

	if len(pending) == 0 {
		return nil
	}

	genresByArtist := make(map[string][]string, len(pending))
	for start := 0; start < len(pending); start += services.ArtistBatchLimit {
		end := min(start+services.ArtistBatchLimit, len(pending))

		batch, err := a.service.ArtistGenres(ctx, pending[start:end])
		if err != nil {
			return fmt.Errorf("failed to resolve artist genres: %w", err)
		}
		for id, genres := range batch {
			genresByArtist[id] = genres
		}
	}

	for i := range tracks {
		if len(tracks[i].Genres) > 0 {
			continue
		}
		tracks[i].Genres = mergeGenres(tracks[i].ArtistIDs, genresByArtist)
	}

	return nil
}

// mergeGenres unions the normalized genre tags of the given artists,
// preserving first-seen order.
func mergeGenres(artistIDs []string, genresByArtist map[string][]string) []string {
	var merged []string
	for _, artistID := range artistIDs {
		for _, genre := range genresByArtist[artistID] {
			normalized := shared.NormalizeLabel(genre)
			if normalized == "" {
				continue
			}
			if !slices.Contains(merged, normalized) {
				merged = append(merged, normalized)
			}
		}
	}
	return merged
}
