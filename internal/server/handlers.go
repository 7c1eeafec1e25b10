package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsort/internal/catalog"
	"github.com/desertthunder/spotsort/internal/classify"
	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/services"
	"github.com/desertthunder/spotsort/internal/shared"
	"github.com/desertthunder/spotsort/internal/tasks"
)

// LibraryStats summarizes the saved-tracks library for the dashboard.
type LibraryStats struct {
	Tracks        int     `json:"tracks"`
	Artists       int     `json:"artists"`
	Albums        int     `json:"albums"`
	Genres        int     `json:"genres"`
	DurationHours float64 `json:"duration_hours"`
}

// API serves the JSON dashboard endpoints over the sort pipeline.
// Implements the [Handler] interface; all endpoints live under /api/.
type API struct {
	engine   tasks.SortEngine
	accessor *catalog.Accessor
	service  services.Service
	logger   *log.Logger
	mux      *http.ServeMux
}

// NewAPI builds the dashboard API over a service and engine.
func NewAPI(service services.Service, engine tasks.SortEngine, logger *log.Logger) *API {
	api := &API{
		engine:   engine,
		accessor: catalog.NewAccessor(service),
		service:  service,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	api.mux.HandleFunc("GET /api/user", api.handleUser)
	api.mux.HandleFunc("GET /api/stats", api.handleStats)
	api.mux.HandleFunc("GET /api/tracks", api.handleTracks)
	api.mux.HandleFunc("GET /api/playlists", api.handlePlaylists)
	api.mux.HandleFunc("GET /api/analyze/{policy}", api.handleAnalyze)
	api.mux.HandleFunc("POST /api/sort/{policy}", api.handleSort)
	api.mux.HandleFunc("POST /api/filter", api.handleFilter)
	api.mux.HandleFunc("POST /api/filter/create", api.handleFilterCreate)
	api.mux.HandleFunc("PUT /api/playlists/{id}", api.handleRename)
	api.mux.HandleFunc("DELETE /api/playlists/{id}", api.handleDelete)
	api.mux.HandleFunc("DELETE /api/playlists/{id}/tracks/{trackID}", api.handleRemoveTrack)

	return api
}

// Routes returns the HTTP routes this handler serves.
func (a *API) Routes() []string {
	return []string{"/api/"}
}

// ServeHTTP implements [http.Handler] by delegating to the internal mux.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.service.CurrentUser(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, user)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.accessor.Library(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, ComputeStats(tracks))
}

func (a *API) handleTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.accessor.Library(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"total": len(tracks), "tracks": tracks})
}

func (a *API) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.accessor.Playlists(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"total": len(playlists), "playlists": playlists})
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	policy, err := classify.ParsePolicy(r.PathValue("policy"))
	if err != nil {
		a.writeError(w, err)
		return
	}

	preview, err := a.engine.Preview(r.Context(), nil, policy, sourceFromQuery(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, preview)
}

func (a *API) handleSort(w http.ResponseWriter, r *http.Request) {
	policy, err := classify.ParsePolicy(r.PathValue("policy"))
	if err != nil {
		a.writeError(w, err)
		return
	}

	result, err := a.engine.Apply(r.Context(), nil, policy, sourceFromQuery(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleFilter(w http.ResponseWriter, r *http.Request) {
	var spec models.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		a.writeError(w, fmt.Errorf("%w: malformed filter spec: %v", shared.ErrInvalidInput, err))
		return
	}

	matched, err := a.engine.Filter(r.Context(), nil, spec)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"total": len(matched), "tracks": matched})
}

func (a *API) handleFilterCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string            `json:"name"`
		Spec models.FilterSpec `json:"spec"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeError(w, fmt.Errorf("%w: malformed request: %v", shared.ErrInvalidInput, err))
		return
	}

	playlist, err := a.engine.CreateFromFilter(r.Context(), nil, payload.Spec, payload.Name)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, playlist)
}

func (a *API) handleRename(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeError(w, fmt.Errorf("%w: malformed request: %v", shared.ErrInvalidInput, err))
		return
	}

	if err := a.service.RenamePlaylist(r.Context(), r.PathValue("id"), payload.Name); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeletePlaylist(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	if err := a.service.RemoveTrack(r.Context(), r.PathValue("id"), r.PathValue("trackID")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// sourceFromQuery reads the optional scope/playlist query parameters.
// Defaults to the saved-tracks library.
func sourceFromQuery(r *http.Request) tasks.Source {
	if ids := r.URL.Query()["playlist"]; len(ids) > 0 {
		return tasks.PlaylistSource(ids...)
	}
	return tasks.LibrarySource()
}

// ComputeStats aggregates library statistics for the dashboard and CLI.
func ComputeStats(tracks []models.TrackRecord) LibraryStats {
	artists := make(map[string]struct{})
	albums := make(map[string]struct{})
	genres := make(map[string]struct{})
	seconds := 0

	for _, track := range tracks {
		for _, artist := range track.Artists {
			artists[artist] = struct{}{}
		}
		if track.Album != "" {
			albums[track.Album] = struct{}{}
		}
		for _, genre := range track.Genres {
			genres[shared.NormalizeLabel(genre)] = struct{}{}
		}
		seconds += track.Duration
	}

	return LibraryStats{
		Tracks:        len(tracks),
		Artists:       len(artists),
		Albums:        len(albums),
		Genres:        len(genres),
		DurationHours: float64(seconds) / 3600.0,
	}
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the shared error taxonomy onto HTTP status codes.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrTokenExpired), errors.Is(err, shared.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, shared.ErrPlaylistNotFound), errors.Is(err, shared.ErrTrackNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidPolicy),
		errors.Is(err, shared.ErrInvalidFilterSpec),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrRateLimited):
		status = http.StatusTooManyRequests
	}

	a.logger.Warn("Request failed", "status", status, "error", err)
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
