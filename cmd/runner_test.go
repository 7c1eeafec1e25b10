package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
	tu "github.com/desertthunder/spotsort/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			spotify := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Spotify:    spotify,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("saveTokens", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")

			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "test_id"
			config.Credentials.Spotify.ClientSecret = "test_secret"

			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: configPath,
			})

			token := &oauth2.Token{
				AccessToken:  "new_access_token",
				RefreshToken: "new_refresh_token",
			}

			if err := runner.saveTokens(token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loadedConfig, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}

			if loadedConfig.Credentials.Spotify.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be updated, got %s", loadedConfig.Credentials.Spotify.AccessToken)
			}
			if loadedConfig.Credentials.Spotify.RefreshToken != "new_refresh_token" {
				t.Errorf("expected refresh token to be updated, got %s", loadedConfig.Credentials.Spotify.RefreshToken)
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/tmp/test.toml",
			})
			runner.config = nil

			token := &oauth2.Token{AccessToken: "test"}
			err := runner.saveTokens(token)

			if err == nil {
				t.Fatal("expected error with nil config")
			}
			if !strings.Contains(err.Error(), "config is nil") {
				t.Errorf("expected nil config error, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "",
			})

			token := &oauth2.Token{
				AccessToken:  "new_token",
				RefreshToken: "new_refresh",
			}

			if err := runner.saveTokens(token); err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}

			if config.Credentials.Spotify.AccessToken != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles nil token", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})

			err := runner.saveTokens(nil)
			if err == nil {
				t.Fatal("expected error when Update fails with nil token")
			}
			if !strings.Contains(err.Error(), "failed to update spotify configuration") {
				t.Errorf("expected update error, got %v", err)
			}
		})
	})
}

// newTestApp builds the full command tree over a mock service and captures output.
func newTestApp(spotify *tu.MockService) (*cli.Command, *bytes.Buffer) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  shared.DefaultConfig(),
		Spotify: spotify,
		Output:  output,
	})
	app := &cli.Command{
		Name:     "spotsort",
		Commands: runner.register(),
	}
	return app, output
}

func TestCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("library playlists prepends liked songs", func(t *testing.T) {
		svc := &tu.MockService{
			PlaylistsFunc: func(ctx context.Context) ([]models.PlaylistDescriptor, error) {
				return []models.PlaylistDescriptor{
					{ID: "pl1", Name: "Road Trip", TrackCount: 12},
				}, nil
			},
		}
		app, output := newTestApp(svc)

		if err := app.Run(ctx, []string{"spotsort", "library", "playlists"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		text := output.String()
		if !strings.Contains(text, "Liked Songs") {
			t.Errorf("expected Liked Songs entry, got %s", text)
		}
		if !strings.Contains(text, "Road Trip") {
			t.Errorf("expected playlist name, got %s", text)
		}
	})

	t.Run("auth status prints profile", func(t *testing.T) {
		app, output := newTestApp(&tu.MockService{})

		if err := app.Run(ctx, []string{"spotsort", "auth", "status"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Mock User") {
			t.Errorf("expected display name in output, got %s", output.String())
		}
	})

	t.Run("sort preview lists planned playlists", func(t *testing.T) {
		svc := &tu.MockService{
			SavedTracksFunc: func(ctx context.Context) ([]models.TrackRecord, error) {
				return []models.TrackRecord{
					{ID: "t1", Title: "One", Artists: []string{"A"}, ArtistIDs: []string{"a1"}, Year: 1991, Genres: []string{"rock"}},
					{ID: "t2", Title: "Two", Artists: []string{"B"}, ArtistIDs: []string{"b1"}, Year: 2004, Genres: []string{"pop"}},
				}, nil
			},
		}
		app, output := newTestApp(svc)

		if err := app.Run(ctx, []string{"spotsort", "sort", "decade"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		text := output.String()
		if !strings.Contains(text, "SpotifySort - 1990s") {
			t.Errorf("expected 1990s plan entry, got %s", text)
		}
		if !strings.Contains(text, "SpotifySort - 2000s") {
			t.Errorf("expected 2000s plan entry, got %s", text)
		}
		if !strings.Contains(text, "--yes") {
			t.Errorf("expected apply hint, got %s", text)
		}
	})

	t.Run("sort rejects unknown policy", func(t *testing.T) {
		app, _ := newTestApp(&tu.MockService{})

		err := app.Run(ctx, []string{"spotsort", "sort", "tempo"})
		if err == nil {
			t.Fatal("expected error for unknown policy")
		}
	})

	t.Run("sort apply reconciles playlists", func(t *testing.T) {
		var created []string
		svc := &tu.MockService{
			SavedTracksFunc: func(ctx context.Context) ([]models.TrackRecord, error) {
				return []models.TrackRecord{
					{ID: "t1", Title: "One", Artists: []string{"A"}, Year: 1991},
				}, nil
			},
			CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.PlaylistDescriptor, error) {
				created = append(created, name)
				return &models.PlaylistDescriptor{ID: "new", Name: name}, nil
			},
		}
		app, output := newTestApp(svc)

		if err := app.Run(ctx, []string{"spotsort", "sort", "decade", "--yes"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(created) != 1 || created[0] != "SpotifySort - 1990s" {
			t.Errorf("expected one managed playlist, got %v", created)
		}
		if !strings.Contains(output.String(), "Created: 1") {
			t.Errorf("expected reconciliation summary, got %s", output.String())
		}
	})

	t.Run("playlist delete requires confirmation", func(t *testing.T) {
		deleted := false
		svc := &tu.MockService{
			DeletePlaylistFunc: func(ctx context.Context, playlistID string) error {
				deleted = true
				return nil
			},
		}
		app, output := newTestApp(svc)

		if err := app.Run(ctx, []string{"spotsort", "playlist", "delete", "--id", "pl1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if deleted {
			t.Error("expected delete to be gated behind --yes")
		}
		if !strings.Contains(output.String(), "--yes") {
			t.Errorf("expected confirmation hint, got %s", output.String())
		}

		if err := app.Run(ctx, []string{"spotsort", "playlist", "delete", "--id", "pl1", "--yes"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !deleted {
			t.Error("expected playlist to be deleted with --yes")
		}
	})

	t.Run("filter prints matches", func(t *testing.T) {
		svc := &tu.MockService{
			SavedTracksFunc: func(ctx context.Context) ([]models.TrackRecord, error) {
				return []models.TrackRecord{
					{ID: "t1", Title: "Golden Hour", Artists: []string{"A"}, Year: 2019},
					{ID: "t2", Title: "Midnight", Artists: []string{"B"}, Year: 1999},
				}, nil
			},
		}
		app, output := newTestApp(svc)

		if err := app.Run(ctx, []string{"spotsort", "filter", "--year-from", "2010"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		text := output.String()
		if !strings.Contains(text, "Matched 1 tracks") {
			t.Errorf("expected one match, got %s", text)
		}
		if !strings.Contains(text, "Golden Hour") {
			t.Errorf("expected matching title, got %s", text)
		}
	})

	t.Run("scan list reads the catalog", func(t *testing.T) {
		tmpDir := t.TempDir()
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(tmpDir, "catalog.db")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output})
		app := &cli.Command{Name: "spotsort", Commands: runner.register()}

		if err := app.Run(ctx, []string{"spotsort", "scan", "list"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Found 0 local tracks") {
			t.Errorf("expected empty catalog listing, got %s", output.String())
		}
	})
}
