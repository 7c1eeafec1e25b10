package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/services"
	"github.com/desertthunder/spotsort/internal/shared"
)

// DefaultPrefix is prepended to every managed playlist name.
const DefaultPrefix = "SpotifySort"

// Per-label reconciliation outcomes.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// LabelResult records the outcome of reconciling one labeled group.
type LabelResult struct {
	Label        string `json:"label"`
	PlaylistID   string `json:"playlist_id,omitempty"`
	PlaylistName string `json:"playlist_name"`
	Outcome      string `json:"outcome"`
	TracksAdded  int    `json:"tracks_added"`
	Err          string `json:"error,omitempty"`
}

// ReconcileSummary aggregates a full reconciliation run.
type ReconcileSummary struct {
	Labels           []LabelResult `json:"labels"`
	PlaylistsCreated int           `json:"playlists_created"`
	PlaylistsUpdated int           `json:"playlists_updated"`
	PlaylistsSkipped int           `json:"playlists_skipped"`
	TracksAdded      int           `json:"tracks_added"`
	Errors           []string      `json:"errors,omitempty"`
}

// PlaylistName renders the managed name for a label.
func (e *Engine) PlaylistName(label string) string {
	return fmt.Sprintf("%s - %s", e.opts.Prefix, label)
}

// Reconcile brings the user's playlists in line with the given groups.
//
// For each group the managed name is matched exactly (case-sensitive)
// against a fresh playlist listing. A match has its current track ids
// re-fetched just-in-time and receives only the ids it is missing; a miss
// gets a new playlist with the full group. Tracks are never removed. Batch
// failures are recorded and the run continues; only authorization errors
// abort it. A playlist that disappears between the listing and the fetch is
// recreated.
func (e *Engine) Reconcile(ctx context.Context, progress chan<- ProgressUpdate, groups []models.Group) (*ReconcileSummary, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: streaming service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchPlaylistsUpdate())
	existing, err := e.service.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	byName := make(map[string]models.PlaylistDescriptor, len(existing))
	for _, pl := range existing {
		byName[pl.Name] = pl
	}

	summary := &ReconcileSummary{}
	total := len(groups)

	for i, group := range groups {
		e.sendProgress(progress, reconcileUpdate(i+1, total, group.Label))

		result, err := e.reconcileGroup(ctx, progress, i+1, total, group, byName)
		if err != nil {
			return summary, err
		}

		summary.Labels = append(summary.Labels, result)
		summary.TracksAdded += result.TracksAdded
		if result.Err != "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", group.Label, result.Err))
		}

		switch result.Outcome {
		case OutcomeCreated:
			summary.PlaylistsCreated++
		case OutcomeUpdated:
			summary.PlaylistsUpdated++
		case OutcomeSkipped:
			summary.PlaylistsSkipped++
		}
	}

	return summary, nil
}

// reconcileGroup handles a single label. The returned error is non-nil only
// for authorization failures, which abort the whole run.
func (e *Engine) reconcileGroup(ctx context.Context, progress chan<- ProgressUpdate, step, total int, group models.Group, byName map[string]models.PlaylistDescriptor) (LabelResult, error) {
	name := e.PlaylistName(group.Label)
	result := LabelResult{Label: group.Label, PlaylistName: name}

	ids := make([]string, 0, len(group.Tracks))
	for _, track := range group.Tracks {
		ids = append(ids, track.ID)
	}

	if existing, ok := byName[name]; ok {
		current, err := e.service.PlaylistTrackIDs(ctx, existing.ID)
		switch {
		case isAuthError(err):
			return result, err
		case errors.Is(err, shared.ErrPlaylistNotFound):
			// deleted since the listing; fall through to creation
		case err != nil:
			result.Outcome = OutcomeFailed
			result.Err = err.Error()
			return result, nil
		default:
			var missing []string
			for _, id := range ids {
				if _, ok := current[id]; !ok {
					missing = append(missing, id)
				}
			}

			result.PlaylistID = existing.ID
			if len(missing) == 0 {
				result.Outcome = OutcomeSkipped
				return result, nil
			}

			added, errs, fatal := e.addInBatches(ctx, progress, existing.ID, name, missing)
			result.TracksAdded = added
			if fatal != nil {
				return result, fatal
			}
			if len(errs) > 0 {
				result.Err = errs[0]
			}
			result.Outcome = OutcomeUpdated
			return result, nil
		}
	}

	e.sendProgress(progress, createPlaylistUpdate(step, total, name))
	created, err := e.service.CreatePlaylist(ctx, name, fmt.Sprintf("Sorted by SpotifySort (%s)", group.Label), e.opts.Public)
	if err != nil {
		if isAuthError(err) {
			return result, err
		}
		result.Outcome = OutcomeFailed
		result.Err = err.Error()
		return result, nil
	}

	result.PlaylistID = created.ID
	added, errs, fatal := e.addInBatches(ctx, progress, created.ID, name, ids)
	result.TracksAdded = added
	if fatal != nil {
		return result, fatal
	}
	if len(errs) > 0 {
		result.Err = errs[0]
	}
	result.Outcome = OutcomeCreated
	return result, nil
}

// addInBatches appends ids in batches of [services.AddBatchLimit]. Batch
// failures accumulate and later batches still run; authorization errors
// return fatal.
func (e *Engine) addInBatches(ctx context.Context, progress chan<- ProgressUpdate, playlistID, name string, ids []string) (int, []string, error) {
	added := 0
	var errs []string

	batches := (len(ids) + services.AddBatchLimit - 1) / services.AddBatchLimit
	batch := 0

	for start := 0; start < len(ids); start += services.AddBatchLimit {
		end := min(start+services.AddBatchLimit, len(ids))
		batch++

		e.sendProgress(progress, addTracksUpdate(batch, batches, name, end-start))

		if err := e.service.AddTracks(ctx, playlistID, ids[start:end]); err != nil {
			if isAuthError(err) {
				return added, errs, err
			}
			errs = append(errs, err.Error())
			continue
		}
		added += end - start
	}

	return added, errs, nil
}

func isAuthError(err error) bool {
	return errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrTokenExpired)
}
