package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsort/internal/catalog"
	"github.com/desertthunder/spotsort/internal/classify"
	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/services"
	"github.com/desertthunder/spotsort/internal/shared"
)

// Source identifies where a pipeline run collects its tracks from.
type Source struct {
	Scope       string   // models.ScopeLibrary or models.ScopePlaylists
	PlaylistIDs []string // required for the playlists scope
}

// LibrarySource selects the saved-tracks library.
func LibrarySource() Source {
	return Source{Scope: models.ScopeLibrary}
}

// PlaylistSource selects the deduplicated union of the given playlists.
func PlaylistSource(ids ...string) Source {
	return Source{Scope: models.ScopePlaylists, PlaylistIDs: ids}
}

// PreviewResult holds a classification pass before any playlist is touched.
type PreviewResult struct {
	Policy         classify.Policy         `json:"policy"`
	Groups         []models.Group          `json:"groups"`
	Classification classify.Summary        `json:"classification"`
	Annotation     catalog.AnnotateSummary `json:"annotation"`
}

// RunResult pairs a preview with the reconciliation that applied it.
type RunResult struct {
	Preview        *PreviewResult    `json:"preview"`
	Reconciliation *ReconcileSummary `json:"reconciliation"`
}

// SortEngine defines the pipeline operations exposed to the CLI, TUI, and
// web layers.
type SortEngine interface {
	// Preview collects, annotates, and classifies without touching playlists.
	Preview(ctx context.Context, progress chan<- ProgressUpdate, policy classify.Policy, source Source) (*PreviewResult, error)

	// Apply runs Preview then reconciles every group against the user's playlists.
	Apply(ctx context.Context, progress chan<- ProgressUpdate, policy classify.Policy, source Source) (*RunResult, error)

	// Filter collects tracks per the spec's scope and returns the matches.
	Filter(ctx context.Context, progress chan<- ProgressUpdate, spec models.FilterSpec) ([]models.TrackRecord, error)

	// CreateFromFilter materializes a filter result as a new playlist.
	CreateFromFilter(ctx context.Context, progress chan<- ProgressUpdate, spec models.FilterSpec, name string) (*models.PlaylistDescriptor, error)
}

// EngineOpts tunes pipeline behavior. Zero values fall back to defaults.
type EngineOpts struct {
	Prefix      string  // playlist name prefix (default "SpotifySort")
	Public      bool    // visibility of created playlists
	MinTracks   int     // artist policy group floor
	KeepUnknown bool    // genre policy: keep untagged tracks
	RateLimit   float64 // feature lookups per second, 0 disables pacing
	Rules       []classify.MoodRule
}

// Engine implements [SortEngine] over a single streaming service.
type Engine struct {
	service   services.Service
	accessor  *catalog.Accessor
	annotator *catalog.Annotator
	opts      EngineOpts
}

// NewEngine creates an Engine with the provided service and options.
func NewEngine(service services.Service, opts EngineOpts) *Engine {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Engine{
		service:   service,
		accessor:  catalog.NewAccessor(service),
		annotator: catalog.NewAnnotator(service, opts.RateLimit),
		opts:      opts,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// collect fetches tracks per the source scope.
func (e *Engine) collect(ctx context.Context, progress chan<- ProgressUpdate, source Source) ([]models.TrackRecord, error) {
	switch source.Scope {
	case "", models.ScopeLibrary:
		e.sendProgress(progress, fetchTracksUpdate(models.ScopeLibrary))
		return e.accessor.Library(ctx)
	case models.ScopePlaylists:
		if len(source.PlaylistIDs) == 0 {
			return nil, fmt.Errorf("%w: playlists scope requires at least one playlist id", shared.ErrInvalidArgument)
		}
		e.sendProgress(progress, fetchTracksUpdate(models.ScopePlaylists))
		return e.accessor.FromPlaylists(ctx, source.PlaylistIDs)
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", shared.ErrInvalidArgument, source.Scope)
	}
}

// Preview collects, annotates (mood policy only), and classifies.
func (e *Engine) Preview(ctx context.Context, progress chan<- ProgressUpdate, policy classify.Policy, source Source) (*PreviewResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: streaming service not initialized", shared.ErrServiceUnavailable)
	}
	if _, err := classify.ParsePolicy(string(policy)); err != nil {
		return nil, err
	}

	tracks, err := e.collect(ctx, progress, source)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{Policy: policy}

	if policy == classify.PolicyMood {
		e.sendProgress(progress, annotateUpdate(len(tracks)))
		annotated, summary, err := e.annotator.Annotate(ctx, tracks)
		if err != nil {
			return nil, err
		}
		tracks = annotated
		result.Annotation = summary
	}

	e.sendProgress(progress, classifyUpdate(string(policy), len(tracks)))
	groups, summary, err := classify.Classify(tracks, policy, classify.Params{
		MinTracks:   e.opts.MinTracks,
		KeepUnknown: e.opts.KeepUnknown,
		Rules:       e.opts.Rules,
	})
	if err != nil {
		return nil, err
	}

	result.Groups = classify.SortedGroups(groups)
	result.Classification = summary
	return result, nil
}

// Apply previews then reconciles every group.
func (e *Engine) Apply(ctx context.Context, progress chan<- ProgressUpdate, policy classify.Policy, source Source) (*RunResult, error) {
	preview, err := e.Preview(ctx, progress, policy, source)
	if err != nil {
		return nil, err
	}

	summary, err := e.Reconcile(ctx, progress, preview.Groups)
	if err != nil {
		return nil, err
	}

	return &RunResult{Preview: preview, Reconciliation: summary}, nil
}

// Filter collects per the spec's scope, annotates when the spec has a mood
// criterion, and evaluates the filter.
func (e *Engine) Filter(ctx context.Context, progress chan<- ProgressUpdate, spec models.FilterSpec) ([]models.TrackRecord, error) {
	if err := classify.ValidateFilterSpec(spec); err != nil {
		return nil, err
	}

	source := Source{Scope: spec.Scope, PlaylistIDs: spec.PlaylistIDs}
	tracks, err := e.collect(ctx, progress, source)
	if err != nil {
		return nil, err
	}

	if spec.Mood != "" {
		e.sendProgress(progress, annotateUpdate(len(tracks)))
		annotated, _, err := e.annotator.Annotate(ctx, tracks)
		if err != nil {
			return nil, err
		}
		tracks = annotated
	}

	e.sendProgress(progress, filterUpdate(len(tracks)))
	return classify.Filter(tracks, spec, e.opts.Rules), nil
}

// CreateFromFilter materializes a filter result as a new playlist. An empty
// result is an error rather than an empty playlist.
func (e *Engine) CreateFromFilter(ctx context.Context, progress chan<- ProgressUpdate, spec models.FilterSpec, name string) (*models.PlaylistDescriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	matched, err := e.Filter(ctx, progress, spec)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: filter matched no tracks", shared.ErrTrackNotFound)
	}

	e.sendProgress(progress, createPlaylistUpdate(1, 1, name))
	playlist, err := e.service.CreatePlaylist(ctx, name, filterDescription(spec), e.opts.Public)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(matched))
	for i, track := range matched {
		ids[i] = track.ID
	}

	added, errs, fatal := e.addInBatches(ctx, progress, playlist.ID, playlist.Name, ids)
	if fatal != nil {
		return nil, fatal
	}
	if len(errs) > 0 {
		return playlist, fmt.Errorf("%w: added %d of %d tracks: %s", shared.ErrAPIRequest, added, len(ids), errs[0])
	}

	playlist.TrackCount = added
	return playlist, nil
}

func filterDescription(spec models.FilterSpec) string {
	if spec.IsEmpty() {
		return "Created by SpotifySort"
	}
	return fmt.Sprintf("Created by SpotifySort filter (%s)", spec.Describe())
}
