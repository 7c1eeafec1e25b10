// Spotify API implementation of [Service]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

type followers struct {
	Total int `json:"total"`
}

type spotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"`
	Followers   followers `json:"followers"`
}

type spotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

type spotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

type spotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       owner             `json:"owner"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
}

type savedTrackItem struct {
	AddedAt string       `json:"added_at"`
	Track   spotifyTrack `json:"track"`
}

type paginatedSavedTracks struct {
	Items  []savedTrackItem `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Next   *string          `json:"next"`
}

type playlistTrackItem struct {
	Track *spotifyTrack `json:"track"` // nil for removed/local entries
}

type paginatedPlaylistTracks struct {
	Items  []playlistTrackItem `json:"items"`
	Total  int                 `json:"total"`
	Offset int                 `json:"offset"`
	Next   *string             `json:"next"`
}

type paginatedPlaylists struct {
	Items  []spotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

type spotifyAudioFeatures struct {
	ID           string  `json:"id"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
	Tempo        float64 `json:"tempo"`
}

// SpotifyService implements [Service] for Spotify API interactions.
// Uses [oauth2] for authentication.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	credentials map[string]string
	userID      string
	maxRetries  int
	baseBackoff time.Duration
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-library-read",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
	}, nil
}

// Authenticate performs OAuth2 authentication. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		return s.OAuthenticate(ctx, token)
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate installs a previously obtained [oauth2.Token].
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidCredentials)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetHTTPClient replaces the underlying HTTP client. Primarily for tests.
func (s *SpotifyService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the underlying [oauth2.Config] for the callback server.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated request with bounded retries.
//
// 429 and 5xx responses are retried up to maxRetries times, honoring the
// Retry-After header when present and exponential backoff otherwise. 401
// surfaces as [shared.ErrTokenExpired] so the CLI can trigger reauthorization.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	apiURL := spotifyBaseURL + endpoint

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("request canceled: %w", err)
		}

		var reader *bytes.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		var req *http.Request
		var err error
		if reader != nil {
			req, err = http.NewRequestWithContext(ctx, method, apiURL, reader)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, apiURL, nil)
		}
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			if attempt+1 < s.maxRetries {
				if sleepErr := sleepWithContext(ctx, s.backoff(attempt, 0)); sleepErr != nil {
					return sleepErr
				}
			}
			continue
		}

		retryAfter, retry := shouldRetry(resp)
		if retry {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: status %d on %s", shared.ErrRateLimited, resp.StatusCode, endpoint)
			if attempt+1 < s.maxRetries {
				if sleepErr := sleepWithContext(ctx, s.backoff(attempt, retryAfter)); sleepErr != nil {
					return sleepErr
				}
			}
			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return statusError(resp.StatusCode, endpoint)
		}

		if result != nil && resp.StatusCode != http.StatusNoContent {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", s.maxRetries, lastErr)
}

// statusError maps a non-2xx status to the shared error taxonomy.
func statusError(status int, endpoint string) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: status 401 on %s", shared.ErrTokenExpired, endpoint)
	case http.StatusForbidden:
		return fmt.Errorf("%w: status 403 on %s", shared.ErrUnauthorized, endpoint)
	case http.StatusNotFound:
		return fmt.Errorf("%w: status 404 on %s", shared.ErrPlaylistNotFound, endpoint)
	default:
		return fmt.Errorf("%w: status %d on %s", shared.ErrAPIRequest, status, endpoint)
	}
}

// shouldRetry reports whether the response warrants a retry and any
// server-provided wait duration.
func shouldRetry(resp *http.Response) (time.Duration, bool) {
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(header); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}

	return 0
}

func (s *SpotifyService) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return s.baseBackoff * time.Duration(1<<attempt)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*User, error) {
	var user spotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}

	return &User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		Followers:   user.Followers.Total,
	}, nil
}

// SavedTracks retrieves the user's full saved-tracks library.
func (s *SpotifyService) SavedTracks(ctx context.Context) ([]models.TrackRecord, error) {
	var all []models.TrackRecord
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", PageLimit, offset)

		var page paginatedSavedTracks
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			all = append(all, trackFromWire(item.Track))
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += PageLimit
	}

	return all, nil
}

// Playlists retrieves all playlists for the authenticated user.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.PlaylistDescriptor, error) {
	var all []models.PlaylistDescriptor
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", PageLimit, offset)

		var page paginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, pl := range page.Items {
			all = append(all, playlistFromWire(pl))
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += PageLimit
	}

	return all, nil
}

// Playlist retrieves a single playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.PlaylistDescriptor, error) {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)

	var pl spotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &pl); err != nil {
		return nil, err
	}

	descriptor := playlistFromWire(pl)
	return &descriptor, nil
}

// PlaylistTracks retrieves every track in a playlist.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.TrackRecord, error) {
	var all []models.TrackRecord
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, PlaylistPageLimit, offset)

		var page paginatedPlaylistTracks
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			all = append(all, trackFromWire(*item.Track))
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += PlaylistPageLimit
	}

	return all, nil
}

// PlaylistTrackIDs retrieves the current membership of a playlist as a set.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	tracks, err := s.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(tracks))
	for _, track := range tracks {
		ids[track.ID] = struct{}{}
	}
	return ids, nil
}

// CreatePlaylist creates a new playlist owned by the authenticated user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.PlaylistDescriptor, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", userID)
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var pl spotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &pl); err != nil {
		return nil, err
	}

	descriptor := playlistFromWire(pl)
	return &descriptor, nil
}

// AddTracks appends track ids to a playlist (≤ AddBatchLimit per call).
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > AddBatchLimit {
		return fmt.Errorf("%w: maximum %d tracks per add call", shared.ErrInvalidArgument, AddBatchLimit)
	}

	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = trackURI(id)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	return s.doRequest(ctx, http.MethodPost, endpoint, map[string]any{"uris": uris}, nil)
}

// RemoveTrack removes all occurrences of a track from a playlist.
func (s *SpotifyService) RemoveTrack(ctx context.Context, playlistID, trackID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	body := map[string]any{
		"tracks": []map[string]string{{"uri": trackURI(trackID)}},
	}
	return s.doRequest(ctx, http.MethodDelete, endpoint, body, nil)
}

// RenamePlaylist changes a playlist's display name.
func (s *SpotifyService) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: playlist name must not be empty", shared.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	return s.doRequest(ctx, http.MethodPut, endpoint, map[string]any{"name": name}, nil)
}

// DeletePlaylist unfollows (deletes) a playlist.
func (s *SpotifyService) DeletePlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", playlistID)
	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// AudioFeatures retrieves audio features for up to FeatureBatchLimit ids.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return map[string]models.AudioFeatures{}, nil
	}
	if len(trackIDs) > FeatureBatchLimit {
		return nil, fmt.Errorf("%w: maximum %d ids per audio-features call", shared.ErrInvalidArgument, FeatureBatchLimit)
	}

	endpoint := fmt.Sprintf("/audio-features?ids=%s", url.QueryEscape(strings.Join(trackIDs, ",")))

	var response struct {
		AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	features := make(map[string]models.AudioFeatures, len(response.AudioFeatures))
	for _, f := range response.AudioFeatures {
		if f == nil || f.ID == "" {
			continue
		}
		features[f.ID] = models.AudioFeatures{
			Energy:       f.Energy,
			Valence:      f.Valence,
			Danceability: f.Danceability,
			Acousticness: f.Acousticness,
			Tempo:        f.Tempo,
		}
	}

	return features, nil
}

// ArtistGenres retrieves genre tags for up to ArtistBatchLimit artist ids.
func (s *SpotifyService) ArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error) {
	if len(artistIDs) == 0 {
		return map[string][]string{}, nil
	}
	if len(artistIDs) > ArtistBatchLimit {
		return nil, fmt.Errorf("%w: maximum %d ids per artists call", shared.ErrInvalidArgument, ArtistBatchLimit)
	}

	endpoint := fmt.Sprintf("/artists?ids=%s", url.QueryEscape(strings.Join(artistIDs, ",")))

	var response struct {
		Artists []*spotifyArtist `json:"artists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	genres := make(map[string][]string, len(response.Artists))
	for _, artist := range response.Artists {
		if artist == nil || artist.ID == "" {
			continue
		}
		genres[artist.ID] = artist.Genres
	}

	return genres, nil
}

// currentUserID caches the authenticated user's id for playlist creation.
func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return "", err
	}

	s.userID = user.ID
	return s.userID, nil
}

func trackURI(id string) string {
	return "spotify:track:" + id
}

// trackFromWire normalizes a wire track into a TrackRecord. Genre tags are
// left empty; the catalog accessor enriches them via batched artist lookups.
func trackFromWire(t spotifyTrack) models.TrackRecord {
	record := models.TrackRecord{
		ID:       t.ID,
		Title:    t.Name,
		Album:    t.Album.Name,
		Duration: t.DurationMS / 1000,
		Year:     releaseYear(t.Album.ReleaseDate),
	}

	for _, artist := range t.Artists {
		record.Artists = append(record.Artists, artist.Name)
		record.ArtistIDs = append(record.ArtistIDs, artist.ID)
	}

	return record
}

func playlistFromWire(p spotifyPlaylist) models.PlaylistDescriptor {
	return models.PlaylistDescriptor{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		Public:      p.Public,
		TrackCount:  p.Tracks.Total,
	}
}

// releaseYear parses the leading year out of a release_date such as
// "1987-05-01" or "1987". Returns 0 when absent or malformed.
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}
