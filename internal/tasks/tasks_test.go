package tasks_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/spotsort/internal/classify"
	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
	"github.com/desertthunder/spotsort/internal/tasks"
	libtest "github.com/desertthunder/spotsort/internal/testing"
)

// fakeBackend simulates playlist state behind a MockService so reconciliation
// runs can be asserted end to end.
type fakeBackend struct {
	playlists map[string]*fakePlaylist
	nextID    int
	addCalls  int
	failAdds  map[int]error // 1-based add call index → error
}

type fakePlaylist struct {
	id     string
	name   string
	tracks map[string]struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{playlists: map[string]*fakePlaylist{}, failAdds: map[int]error{}}
}

func (b *fakeBackend) service() *libtest.MockService {
	return &libtest.MockService{
		PlaylistsFunc: func(ctx context.Context) ([]models.PlaylistDescriptor, error) {
			var out []models.PlaylistDescriptor
			for _, pl := range b.playlists {
				out = append(out, models.PlaylistDescriptor{ID: pl.id, Name: pl.name, TrackCount: len(pl.tracks)})
			}
			return out, nil
		},
		PlaylistTrackIDsFunc: func(ctx context.Context, playlistID string) (map[string]struct{}, error) {
			pl, ok := b.playlists[playlistID]
			if !ok {
				return nil, shared.ErrPlaylistNotFound
			}
			ids := make(map[string]struct{}, len(pl.tracks))
			for id := range pl.tracks {
				ids[id] = struct{}{}
			}
			return ids, nil
		},
		CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.PlaylistDescriptor, error) {
			b.nextID++
			id := fmt.Sprintf("pl%d", b.nextID)
			b.playlists[id] = &fakePlaylist{id: id, name: name, tracks: map[string]struct{}{}}
			return &models.PlaylistDescriptor{ID: id, Name: name, Public: public}, nil
		},
		AddTracksFunc: func(ctx context.Context, playlistID string, trackIDs []string) error {
			b.addCalls++
			if err, ok := b.failAdds[b.addCalls]; ok {
				return err
			}
			pl, ok := b.playlists[playlistID]
			if !ok {
				return shared.ErrPlaylistNotFound
			}
			for _, id := range trackIDs {
				pl.tracks[id] = struct{}{}
			}
			return nil
		},
	}
}

func (b *fakeBackend) byName(name string) *fakePlaylist {
	for _, pl := range b.playlists {
		if pl.name == name {
			return pl
		}
	}
	return nil
}

func groupOf(label string, ids ...string) models.Group {
	group := models.Group{Label: label}
	for _, id := range ids {
		group.Tracks = append(group.Tracks, models.TrackRecord{ID: id, Title: id})
	}
	return group
}

func TestReconcileCreatesOnMiss(t *testing.T) {
	backend := newFakeBackend()
	engine := tasks.NewEngine(backend.service(), tasks.EngineOpts{})

	summary, err := engine.Reconcile(context.Background(), nil, []models.Group{groupOf("rock", "t1", "t2")})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if summary.PlaylistsCreated != 1 || summary.TracksAdded != 2 {
		t.Errorf("expected 1 created with 2 tracks, got %+v", summary)
	}

	created := backend.byName("SpotifySort - rock")
	if created == nil {
		t.Fatal("expected playlist named with the default prefix")
	}
	if len(created.tracks) != 2 {
		t.Errorf("expected 2 tracks in backend, got %d", len(created.tracks))
	}
}

func TestReconcileAppendsOnlyMissing(t *testing.T) {
	backend := newFakeBackend()
	backend.playlists["pl1"] = &fakePlaylist{
		id:     "pl1",
		name:   "SpotifySort - rock",
		tracks: map[string]struct{}{"t1": {}},
	}

	engine := tasks.NewEngine(backend.service(), tasks.EngineOpts{})
	summary, err := engine.Reconcile(context.Background(), nil, []models.Group{groupOf("rock", "t1", "t2")})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if summary.PlaylistsUpdated != 1 || summary.TracksAdded != 1 {
		t.Errorf("expected 1 updated with 1 track added, got %+v", summary)
	}
	if len(backend.playlists["pl1"].tracks) != 2 {
		t.Errorf("expected no duplicates, got %d tracks", len(backend.playlists["pl1"].tracks))
	}
}

func TestReconcileIdempotent(t *testing.T) {
	backend := newFakeBackend()
	engine := tasks.NewEngine(backend.service(), tasks.EngineOpts{})
	groups := []models.Group{groupOf("rock", "t1", "t2"), groupOf("jazz", "t3")}

	if _, err := engine.Reconcile(context.Background(), nil, groups); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	second, err := engine.Reconcile(context.Background(), nil, groups)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.TracksAdded != 0 {
		t.Errorf("expected second run to add nothing, added %d", second.TracksAdded)
	}
	if second.PlaylistsSkipped != 2 {
		t.Errorf("expected both groups skipped, got %+v", second)
	}
}

func TestReconcileBatchesLargeGroups(t *testing.T) {
	backend := newFakeBackend()
	engine := tasks.NewEngine(backend.service(), tasks.EngineOpts{})

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}

	summary, err := engine.Reconcile(context.Background(), nil, []models.Group{groupOf("rock", ids...)})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if backend.addCalls != 3 {
		t.Errorf("expected 3 add batches for 250 tracks, got %d", backend.addCalls)
	}
	if summary.TracksAdded != 250 {
		t.Errorf("expected 250 tracks added, got %d", summary.TracksAdded)
	}
}

func TestReconcilePartialBatchFailureContinues(t *testing.T) {
	backend := newFakeBackend()
	backend.failAdds[2] = fmt.Errorf("%w: status 502", shared.ErrAPIRequest)
	engine := tasks.NewEngine(backend.service(), tasks.EngineOpts{})

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}

	summary, err := engine.Reconcile(context.Background(), nil, []models.Group{groupOf("rock", ids...)})
	if err != nil {
		t.Fatalf("expected run to continue past batch failure, got %v", err)
	}
	if summary.TracksAdded != 150 {
		t.Errorf("expected 150 tracks from surviving batches, got %d", summary.TracksAdded)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("expected 1 recorded error, got %v", summary.Errors)
	}
}

func TestReconcileAbortsOnAuthError(t *testing.T) {
	backend := newFakeBackend()
	backend.failAdds[1] = shared.ErrTokenExpired
	engine := tasks.NewEngine(backend.service(), tasks.EngineOpts{})

	_, err := engine.Reconcile(context.Background(), nil, []models.Group{groupOf("rock", "t1")})
	if !errors.Is(err, shared.ErrTokenExpired) {
		t.Errorf("expected auth error to abort, got %v", err)
	}
}

func TestReconcileRecreatesVanishedPlaylist(t *testing.T) {
	backend := newFakeBackend()
	svc := backend.service()
	// listing names a playlist whose fetch 404s
	svc.PlaylistsFunc = func(ctx context.Context) ([]models.PlaylistDescriptor, error) {
		return []models.PlaylistDescriptor{{ID: "ghost", Name: "SpotifySort - rock"}}, nil
	}
	engine := tasks.NewEngine(svc, tasks.EngineOpts{})

	summary, err := engine.Reconcile(context.Background(), nil, []models.Group{groupOf("rock", "t1")})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if summary.PlaylistsCreated != 1 {
		t.Errorf("expected vanished playlist recreated, got %+v", summary)
	}
	if backend.byName("SpotifySort - rock") == nil {
		t.Error("expected recreated playlist in backend")
	}
}

func TestReconcileCustomPrefixAndVisibility(t *testing.T) {
	backend := newFakeBackend()
	var gotPublic bool
	svc := backend.service()
	inner := svc.CreatePlaylistFunc
	svc.CreatePlaylistFunc = func(ctx context.Context, name, description string, public bool) (*models.PlaylistDescriptor, error) {
		gotPublic = public
		return inner(ctx, name, description, public)
	}

	engine := tasks.NewEngine(svc, tasks.EngineOpts{Prefix: "Sorted", Public: true})
	if _, err := engine.Reconcile(context.Background(), nil, []models.Group{groupOf("rock", "t1")}); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if backend.byName("Sorted - rock") == nil {
		t.Error("expected custom prefix in playlist name")
	}
	if !gotPublic {
		t.Error("expected created playlist to be public")
	}
}

func TestPreviewMoodAnnotates(t *testing.T) {
	featureCalls := 0
	svc := &libtest.MockService{
		SavedTracksFunc: func(ctx context.Context) ([]models.TrackRecord, error) {
			return []models.TrackRecord{{ID: "t1"}, {ID: "t2"}}, nil
		},
		AudioFeaturesFunc: func(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error) {
			featureCalls++
			return map[string]models.AudioFeatures{
				"t1": {Valence: 0.8, Energy: 0.7},
			}, nil
		},
	}

	engine := tasks.NewEngine(svc, tasks.EngineOpts{})
	preview, err := engine.Preview(context.Background(), nil, classify.PolicyMood, tasks.LibrarySource())
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}

	if featureCalls != 1 {
		t.Errorf("expected one feature batch, got %d", featureCalls)
	}
	if len(preview.Groups) != 1 || preview.Groups[0].Label != "Happy" {
		t.Errorf("expected a single Happy group, got %v", preview.Groups)
	}
	if preview.Classification.Skipped != 1 {
		t.Errorf("expected unresolved track skipped, got %+v", preview.Classification)
	}
	if preview.Annotation.Unresolved != 1 {
		t.Errorf("expected 1 unresolved in annotation summary, got %+v", preview.Annotation)
	}
}

func TestPreviewGenreSkipsAnnotation(t *testing.T) {
	svc := &libtest.MockService{
		SavedTracksFunc: func(ctx context.Context) ([]models.TrackRecord, error) {
			return []models.TrackRecord{{ID: "t1", Genres: []string{"rock"}}}, nil
		},
		AudioFeaturesFunc: func(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error) {
			t.Error("genre policy must not fetch audio features")
			return nil, nil
		},
	}

	engine := tasks.NewEngine(svc, tasks.EngineOpts{KeepUnknown: true})
	if _, err := engine.Preview(context.Background(), nil, classify.PolicyGenre, tasks.LibrarySource()); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
}

func TestPreviewInvalidPolicy(t *testing.T) {
	engine := tasks.NewEngine(&libtest.MockService{}, tasks.EngineOpts{})
	_, err := engine.Preview(context.Background(), nil, classify.Policy("bpm"), tasks.LibrarySource())
	if !errors.Is(err, shared.ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestApplyEmitsProgress(t *testing.T) {
	backend := newFakeBackend()
	svc := backend.service()
	svc.SavedTracksFunc = func(ctx context.Context) ([]models.TrackRecord, error) {
		return []models.TrackRecord{{ID: "t1", Year: 1987}}, nil
	}

	engine := tasks.NewEngine(svc, tasks.EngineOpts{})
	progress := make(chan tasks.ProgressUpdate, 64)

	result, err := engine.Apply(context.Background(), progress, classify.PolicyDecade, tasks.LibrarySource())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	close(progress)

	if result.Reconciliation.PlaylistsCreated != 1 {
		t.Errorf("expected 1 playlist created, got %+v", result.Reconciliation)
	}

	phases := map[tasks.Phase]bool{}
	for update := range progress {
		phases[update.Phase] = true
	}
	for _, want := range []tasks.Phase{tasks.FetchTracks, tasks.ClassifyTracks, tasks.FetchPlaylists, tasks.CreatePlaylist} {
		if !phases[want] {
			t.Errorf("expected a %s progress update", want)
		}
	}
}

func TestFilterPlaylistsScope(t *testing.T) {
	svc := &libtest.MockService{
		PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]models.TrackRecord, error) {
			return []models.TrackRecord{
				{ID: "t1", Title: "Keep", Artists: []string{"A"}, Year: 1990},
				{ID: "t2", Title: "Drop", Artists: []string{"B"}, Year: 2010},
			}, nil
		},
	}

	engine := tasks.NewEngine(svc, tasks.EngineOpts{})
	spec := models.FilterSpec{Scope: models.ScopePlaylists, PlaylistIDs: []string{"pl1"}, YearTo: 1999}

	matched, err := engine.Filter(context.Background(), nil, spec)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != "t1" {
		t.Errorf("expected only t1, got %v", matched)
	}
}

func TestFilterInvalidSpec(t *testing.T) {
	engine := tasks.NewEngine(&libtest.MockService{}, tasks.EngineOpts{})
	spec := models.FilterSpec{Scope: models.ScopePlaylists}

	_, err := engine.Filter(context.Background(), nil, spec)
	if !errors.Is(err, shared.ErrInvalidFilterSpec) {
		t.Errorf("expected ErrInvalidFilterSpec, got %v", err)
	}
}

func TestCreateFromFilter(t *testing.T) {
	backend := newFakeBackend()
	svc := backend.service()
	svc.SavedTracksFunc = func(ctx context.Context) ([]models.TrackRecord, error) {
		return []models.TrackRecord{
			{ID: "t1", Title: "Night Drive", Year: 1984},
			{ID: "t2", Title: "Morning", Year: 2020},
		}, nil
	}

	engine := tasks.NewEngine(svc, tasks.EngineOpts{})
	spec := models.FilterSpec{YearFrom: 1980, YearTo: 1989}

	playlist, err := engine.CreateFromFilter(context.Background(), nil, spec, "80s Drive")
	if err != nil {
		t.Fatalf("CreateFromFilter failed: %v", err)
	}
	if playlist.TrackCount != 1 {
		t.Errorf("expected 1 track, got %d", playlist.TrackCount)
	}
	if backend.byName("80s Drive") == nil {
		t.Error("expected playlist created in backend")
	}
}

func TestExportPreviewWritesManifest(t *testing.T) {
	dir := t.TempDir()
	engine := tasks.NewEngine(&libtest.MockService{}, tasks.EngineOpts{})

	preview := &tasks.PreviewResult{
		Policy: classify.PolicyDecade,
		Groups: []models.Group{
			groupOf("1980s", "t1", "t2"),
			groupOf("1990s", "t3"),
		},
	}

	result, err := engine.ExportPreview(context.Background(), nil, preview, tasks.ExportOpts{Format: "csv", OutputDir: dir})
	if err != nil {
		t.Fatalf("ExportPreview failed: %v", err)
	}
	if result.Successful != 2 || result.Failed != 0 {
		t.Errorf("expected 2 successful exports, got %+v", result)
	}
	libtest.AssertFileExists(t, result.ManifestPath)
	for _, group := range result.Results {
		if len(group.Files) != 1 {
			t.Errorf("expected one file for %s, got %v", group.Label, group.Files)
			continue
		}
		libtest.AssertFileExists(t, group.Files[0])
	}
}

func TestCreateFromFilterEmptyResult(t *testing.T) {
	svc := &libtest.MockService{
		SavedTracksFunc: func(ctx context.Context) ([]models.TrackRecord, error) {
			return []models.TrackRecord{{ID: "t1", Title: "Song", Year: 2020}}, nil
		},
	}

	engine := tasks.NewEngine(svc, tasks.EngineOpts{})
	_, err := engine.CreateFromFilter(context.Background(), nil, models.FilterSpec{YearTo: 1950}, "Empty")
	if !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound for empty result, got %v", err)
	}
}
