package services

import (
	"context"

	"github.com/desertthunder/spotsort/internal/models"
	"golang.org/x/oauth2"
)

// Spotify Web API batch ceilings. Callers must not exceed these per request;
// the helpers in this package slice larger inputs themselves.
const (
	PageLimit         = 50  // saved tracks / playlists page size
	PlaylistPageLimit = 100 // playlist tracks page size
	FeatureBatchLimit = 100 // audio-features ids per call
	ArtistBatchLimit  = 50  // artists ids per call
	AddBatchLimit     = 100 // playlist add uris per call
)

// Service defines the upstream music-service contract consumed by the
// catalog accessor, feature annotator, and playlist reconciler.
type Service interface {
	// Authenticate performs OAuth or token authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*User, error)

	// SavedTracks retrieves the user's full saved-tracks library,
	// transparently paginating.
	SavedTracks(ctx context.Context) ([]models.TrackRecord, error)

	// Playlists retrieves all playlists for the authenticated user.
	Playlists(ctx context.Context) ([]models.PlaylistDescriptor, error)

	// Playlist retrieves a single playlist by ID.
	Playlist(ctx context.Context, playlistID string) (*models.PlaylistDescriptor, error)

	// PlaylistTracks retrieves every track in a playlist, transparently paginating.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.TrackRecord, error)

	// PlaylistTrackIDs retrieves the current membership of a playlist as a
	// set of track ids. Used by the reconciler for just-in-time freshness.
	PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error)

	// CreatePlaylist creates a new playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.PlaylistDescriptor, error)

	// AddTracks appends track ids to a playlist. len(trackIDs) must be ≤ AddBatchLimit.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// RemoveTrack removes all occurrences of one track from a playlist.
	RemoveTrack(ctx context.Context, playlistID, trackID string) error

	// RenamePlaylist changes a playlist's display name.
	RenamePlaylist(ctx context.Context, playlistID, name string) error

	// DeletePlaylist unfollows (deletes) a playlist.
	DeletePlaylist(ctx context.Context, playlistID string) error

	// AudioFeatures retrieves audio features for up to FeatureBatchLimit ids,
	// keyed by track id. Tracks the service has no analysis for are absent.
	AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error)

	// ArtistGenres retrieves genre tags for up to ArtistBatchLimit artist ids,
	// keyed by artist id.
	ArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error)

	// Name returns the service name (e.g. "Spotify").
	Name() string
}

// OAuthService is implemented by services that authenticate via the OAuth2
// authorization-code flow with a local callback server.
type OAuthService interface {
	Service
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// User represents the authenticated user's profile.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Country     string
	Product     string // premium, free, etc.
	Followers   int
}
