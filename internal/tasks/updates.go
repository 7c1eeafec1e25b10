package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	AnnotateFeatures
	ClassifyTracks
	FetchPlaylists
	ReconcileGroup
	CreatePlaylist
	AddTracks
	FilterTracks
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case AnnotateFeatures:
		return "annotate_features"
	case ClassifyTracks:
		return "classify_tracks"
	case FetchPlaylists:
		return "fetch_playlists"
	case ReconcileGroup:
		return "reconcile_group"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case FilterTracks:
		return "filter_tracks"
	default:
		return ""
	}
}

func fetchTracksUpdate(scope string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching tracks (%s)...", scope),
	}
}

func annotateUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnnotateFeatures,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving audio features for %d tracks...", count),
	}
}

func classifyUpdate(policy string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClassifyTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Classifying %d tracks by %s...", count, policy),
	}
}

func fetchPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: "Fetching existing playlists...",
	}
}

func reconcileUpdate(step, total int, label string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReconcileGroup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Reconciling %q...", label),
	}
}

func createPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func addTracksUpdate(step, total int, name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding %d tracks to %q...", count, name),
	}
}

func filterUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FilterTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Filtering %d tracks...", count),
	}
}
