// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/services"
)

// MockService is a configurable test double for [services.Service].
// Each func field overrides the corresponding method; unset fields
// return zero values.
type MockService struct {
	AuthenticateFunc     func(ctx context.Context, credentials map[string]string) error
	CurrentUserFunc      func(ctx context.Context) (*services.User, error)
	SavedTracksFunc      func(ctx context.Context) ([]models.TrackRecord, error)
	PlaylistsFunc        func(ctx context.Context) ([]models.PlaylistDescriptor, error)
	PlaylistFunc         func(ctx context.Context, playlistID string) (*models.PlaylistDescriptor, error)
	PlaylistTracksFunc   func(ctx context.Context, playlistID string) ([]models.TrackRecord, error)
	PlaylistTrackIDsFunc func(ctx context.Context, playlistID string) (map[string]struct{}, error)
	CreatePlaylistFunc   func(ctx context.Context, name, description string, public bool) (*models.PlaylistDescriptor, error)
	AddTracksFunc        func(ctx context.Context, playlistID string, trackIDs []string) error
	RemoveTrackFunc      func(ctx context.Context, playlistID, trackID string) error
	RenamePlaylistFunc   func(ctx context.Context, playlistID, name string) error
	DeletePlaylistFunc   func(ctx context.Context, playlistID string) error
	AudioFeaturesFunc    func(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error)
	ArtistGenresFunc     func(ctx context.Context, artistIDs []string) (map[string][]string, error)
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, credentials)
	}
	return nil
}

func (m *MockService) CurrentUser(ctx context.Context) (*services.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return &services.User{ID: "mock-user", DisplayName: "Mock User"}, nil
}

func (m *MockService) SavedTracks(ctx context.Context) ([]models.TrackRecord, error) {
	if m.SavedTracksFunc != nil {
		return m.SavedTracksFunc(ctx)
	}
	return []models.TrackRecord{}, nil
}

func (m *MockService) Playlists(ctx context.Context) ([]models.PlaylistDescriptor, error) {
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx)
	}
	return []models.PlaylistDescriptor{}, nil
}

func (m *MockService) Playlist(ctx context.Context, playlistID string) (*models.PlaylistDescriptor, error) {
	if m.PlaylistFunc != nil {
		return m.PlaylistFunc(ctx, playlistID)
	}
	return nil, nil
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.TrackRecord, error) {
	if m.PlaylistTracksFunc != nil {
		return m.PlaylistTracksFunc(ctx, playlistID)
	}
	return []models.TrackRecord{}, nil
}

func (m *MockService) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	if m.PlaylistTrackIDsFunc != nil {
		return m.PlaylistTrackIDsFunc(ctx, playlistID)
	}
	return map[string]struct{}{}, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.PlaylistDescriptor, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, description, public)
	}
	return &models.PlaylistDescriptor{ID: "mock-playlist", Name: name, Description: description, Public: public}, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockService) RemoveTrack(ctx context.Context, playlistID, trackID string) error {
	if m.RemoveTrackFunc != nil {
		return m.RemoveTrackFunc(ctx, playlistID, trackID)
	}
	return nil
}

func (m *MockService) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	if m.RenamePlaylistFunc != nil {
		return m.RenamePlaylistFunc(ctx, playlistID, name)
	}
	return nil
}

func (m *MockService) DeletePlaylist(ctx context.Context, playlistID string) error {
	if m.DeletePlaylistFunc != nil {
		return m.DeletePlaylistFunc(ctx, playlistID)
	}
	return nil
}

func (m *MockService) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error) {
	if m.AudioFeaturesFunc != nil {
		return m.AudioFeaturesFunc(ctx, trackIDs)
	}
	return map[string]models.AudioFeatures{}, nil
}

func (m *MockService) ArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error) {
	if m.ArtistGenresFunc != nil {
		return m.ArtistGenresFunc(ctx, artistIDs)
	}
	return map[string][]string{}, nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// SequenceRoundTripper replays a fixed sequence of responses, one per
// request, repeating the final entry once the sequence is exhausted.
type SequenceRoundTripper struct {
	responses []*http.Response
	Calls     int
}

func NewSequenceRoundTripper(responses ...*http.Response) *SequenceRoundTripper {
	return &SequenceRoundTripper{responses: responses}
}

func (s *SequenceRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	idx := s.Calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.Calls++
	return s.responses[idx], nil
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
