package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/spotsort/internal/services"
	"github.com/desertthunder/spotsort/internal/shared"
	libtest "github.com/desertthunder/spotsort/internal/testing"
	"golang.org/x/oauth2"
)

func newTestService(t *testing.T, transport http.RoundTripper) *services.SpotifyService {
	t.Helper()

	svc, err := services.NewSpotifyService(map[string]string{
		"client_id":     "test-client",
		"client_secret": "test-secret",
		"redirect_uri":  "http://localhost:8888/callback",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService failed: %v", err)
	}

	if err := svc.OAuthenticate(context.Background(), &oauth2.Token{AccessToken: "test-token"}); err != nil {
		t.Fatalf("OAuthenticate failed: %v", err)
	}

	svc.SetHTTPClient(&http.Client{Transport: transport})
	return svc
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func TestNewSpotifyService(t *testing.T) {
	tests := []struct {
		name        string
		credentials map[string]string
		wantErr     error
	}{
		{
			name: "valid credentials",
			credentials: map[string]string{
				"client_id":     "id",
				"client_secret": "secret",
			},
		},
		{
			name:        "missing client_id",
			credentials: map[string]string{"client_secret": "secret"},
			wantErr:     shared.ErrMissingCredentials,
		},
		{
			name:        "missing client_secret",
			credentials: map[string]string{"client_id": "id"},
			wantErr:     shared.ErrMissingCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := services.NewSpotifyService(tt.credentials)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.Name() != "Spotify" {
				t.Errorf("expected service name Spotify, got %s", svc.Name())
			}
		})
	}
}

func TestGetAuthURL(t *testing.T) {
	svc, err := services.NewSpotifyService(map[string]string{
		"client_id":     "test-client",
		"client_secret": "test-secret",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService failed: %v", err)
	}

	authURL := svc.GetAuthURL("csrf-state")
	if !strings.Contains(authURL, "accounts.spotify.com/authorize") {
		t.Errorf("auth URL missing authorize endpoint: %s", authURL)
	}
	if !strings.Contains(authURL, "state=csrf-state") {
		t.Errorf("auth URL missing state: %s", authURL)
	}
	if !strings.Contains(authURL, "playlist-modify-private") {
		t.Errorf("auth URL missing playlist scope: %s", authURL)
	}
}

func TestCurrentUser(t *testing.T) {
	body := `{"id": "user1", "display_name": "Test User", "email": "test@example.com", "country": "US", "product": "premium", "followers": {"total": 42}}`
	svc := newTestService(t, libtest.NewMockRoundTripper(jsonResponse(200, body), nil))

	user, err := svc.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.ID != "user1" {
		t.Errorf("expected user ID user1, got %s", user.ID)
	}
	if user.Followers != 42 {
		t.Errorf("expected 42 followers, got %d", user.Followers)
	}
}

func TestCurrentUserNotAuthenticated(t *testing.T) {
	svc, err := services.NewSpotifyService(map[string]string{
		"client_id":     "id",
		"client_secret": "secret",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService failed: %v", err)
	}

	_, err = svc.CurrentUser(context.Background())
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSavedTracksPagination(t *testing.T) {
	page1 := `{
		"items": [
			{"track": {"id": "t1", "name": "Song One", "artists": [{"id": "a1", "name": "Artist One"}], "album": {"name": "Album", "release_date": "1987-05-01"}, "duration_ms": 180000}},
			{"track": {"id": "t2", "name": "Song Two", "artists": [{"id": "a2", "name": "Artist Two"}], "album": {"name": "Album", "release_date": "2003"}, "duration_ms": 210000}}
		],
		"total": 3,
		"next": "https://api.spotify.com/v1/me/tracks?offset=50"
	}`
	page2 := `{
		"items": [
			{"track": {"id": "t3", "name": "Song Three", "artists": [{"id": "a1", "name": "Artist One"}], "album": {"name": "Album", "release_date": ""}, "duration_ms": 90000}}
		],
		"total": 3,
		"next": null
	}`

	transport := libtest.NewSequenceRoundTripper(jsonResponse(200, page1), jsonResponse(200, page2))
	svc := newTestService(t, transport)

	tracks, err := svc.SavedTracks(context.Background())
	if err != nil {
		t.Fatalf("SavedTracks failed: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks across pages, got %d", len(tracks))
	}
	if transport.Calls != 2 {
		t.Errorf("expected 2 page fetches, got %d", transport.Calls)
	}
	if tracks[0].Year != 1987 {
		t.Errorf("expected release year 1987, got %d", tracks[0].Year)
	}
	if tracks[1].Year != 2003 {
		t.Errorf("expected release year 2003 from year-only date, got %d", tracks[1].Year)
	}
	if tracks[2].Year != 0 {
		t.Errorf("expected year 0 for empty release date, got %d", tracks[2].Year)
	}
	if tracks[0].PrimaryArtist() != "Artist One" {
		t.Errorf("expected primary artist preserved, got %s", tracks[0].PrimaryArtist())
	}
	if tracks[0].Duration != 180 {
		t.Errorf("expected duration in seconds, got %d", tracks[0].Duration)
	}
}

func TestPlaylistTracksSkipsNullEntries(t *testing.T) {
	body := `{
		"items": [
			{"track": {"id": "t1", "name": "Kept", "artists": [{"id": "a1", "name": "Artist"}], "album": {"name": "A", "release_date": "1999-01-01"}, "duration_ms": 1000}},
			{"track": null},
			{"track": {"id": "", "name": "Local file", "artists": [], "album": {}, "duration_ms": 1000}}
		],
		"total": 3,
		"next": null
	}`
	svc := newTestService(t, libtest.NewMockRoundTripper(jsonResponse(200, body), nil))

	tracks, err := svc.PlaylistTracks(context.Background(), "pl1")
	if err != nil {
		t.Fatalf("PlaylistTracks failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track after skipping null and local entries, got %d", len(tracks))
	}
	if tracks[0].ID != "t1" {
		t.Errorf("expected track t1, got %s", tracks[0].ID)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	limited := jsonResponse(429, `{"error": {"status": 429}}`)
	limited.Header.Set("Retry-After", "0")
	ok := jsonResponse(200, `{"id": "user1", "display_name": "Test", "followers": {"total": 0}}`)

	transport := libtest.NewSequenceRoundTripper(limited, ok)
	svc := newTestService(t, transport)

	user, err := svc.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if user.ID != "user1" {
		t.Errorf("expected user1 after retry, got %s", user.ID)
	}
	if transport.Calls != 2 {
		t.Errorf("expected 2 attempts, got %d", transport.Calls)
	}
}

func TestRetryExhaustion(t *testing.T) {
	limited := func() *http.Response {
		resp := jsonResponse(429, `{}`)
		resp.Header.Set("Retry-After", "0")
		return resp
	}

	transport := libtest.NewSequenceRoundTripper(limited(), limited(), limited())
	svc := newTestService(t, transport)

	_, err := svc.CurrentUser(context.Background())
	if !errors.Is(err, shared.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited after exhaustion, got %v", err)
	}
	if transport.Calls != 3 {
		t.Errorf("expected 3 attempts, got %d", transport.Calls)
	}
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", 401, shared.ErrTokenExpired},
		{"forbidden", 403, shared.ErrUnauthorized},
		{"not found", 404, shared.ErrPlaylistNotFound},
		{"bad request", 400, shared.ErrAPIRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, libtest.NewMockRoundTripper(jsonResponse(tt.status, `{}`), nil))
			_, err := svc.Playlist(context.Background(), "pl1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("status %d: expected %v, got %v", tt.status, tt.wantErr, err)
			}
		})
	}
}

func TestAddTracksBatchCeiling(t *testing.T) {
	svc := newTestService(t, libtest.NewMockRoundTripper(jsonResponse(201, `{}`), nil))

	oversized := make([]string, services.AddBatchLimit+1)
	for i := range oversized {
		oversized[i] = fmt.Sprintf("t%d", i)
	}

	err := svc.AddTracks(context.Background(), "pl1", oversized)
	if !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for oversized batch, got %v", err)
	}

	if err := svc.AddTracks(context.Background(), "pl1", nil); err != nil {
		t.Errorf("expected nil error for empty batch, got %v", err)
	}
}

func TestAudioFeaturesSkipsNullEntries(t *testing.T) {
	body := `{"audio_features": [
		{"id": "t1", "energy": 0.8, "valence": 0.7, "danceability": 0.6, "acousticness": 0.1, "tempo": 128.0},
		null
	]}`
	svc := newTestService(t, libtest.NewMockRoundTripper(jsonResponse(200, body), nil))

	features, err := svc.AudioFeatures(context.Background(), []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("AudioFeatures failed: %v", err)
	}
	if len(features) != 1 {
		t.Fatalf("expected 1 resolved feature set, got %d", len(features))
	}
	if features["t1"].Tempo != 128.0 {
		t.Errorf("expected tempo 128.0, got %f", features["t1"].Tempo)
	}
}

func TestArtistGenres(t *testing.T) {
	body := `{"artists": [
		{"id": "a1", "name": "Artist One", "genres": ["indie rock", "shoegaze"]},
		{"id": "a2", "name": "Artist Two", "genres": []}
	]}`
	svc := newTestService(t, libtest.NewMockRoundTripper(jsonResponse(200, body), nil))

	genres, err := svc.ArtistGenres(context.Background(), []string{"a1", "a2"})
	if err != nil {
		t.Fatalf("ArtistGenres failed: %v", err)
	}
	if len(genres["a1"]) != 2 {
		t.Errorf("expected 2 genres for a1, got %v", genres["a1"])
	}
	if len(genres["a2"]) != 0 {
		t.Errorf("expected no genres for a2, got %v", genres["a2"])
	}
}

func TestRenamePlaylistValidation(t *testing.T) {
	svc := newTestService(t, libtest.NewMockRoundTripper(jsonResponse(200, `{}`), nil))

	if err := svc.RenamePlaylist(context.Background(), "pl1", "  "); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for blank name, got %v", err)
	}

	if err := svc.RenamePlaylist(context.Background(), "pl1", "New Name"); err != nil {
		t.Errorf("expected rename to succeed, got %v", err)
	}
}
