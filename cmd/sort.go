package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/spotsort/internal/classify"
	"github.com/desertthunder/spotsort/internal/shared"
	"github.com/desertthunder/spotsort/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sort classifies the selected tracks and either prints the plan or, with
// --yes, reconciles managed playlists against it.
func (r *Runner) Sort(ctx context.Context, cmd *cli.Command) error {
	policyArg := cmd.StringArg("policy")
	if policyArg == "" {
		return fmt.Errorf("%w: policy argument is required (genre, mood, decade, artist)", shared.ErrMissingArgument)
	}

	policy, err := classify.ParsePolicy(policyArg)
	if err != nil {
		return err
	}

	engine, err := r.newEngine(cmd)
	if err != nil {
		return err
	}

	source := sourceFromFlags(cmd)
	apply := cmd.Bool("yes")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	progress, done := r.logProgress()
	defer done()

	if !apply {
		r.logger.Infof("previewing %s sort", policy)

		preview, err := engine.Preview(ctx, progress, policy, source)
		if err != nil {
			if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
				if authErr != nil {
					return authErr
				}
				if preview, err = engine.Preview(ctx, progress, policy, source); err != nil {
					return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
				}
			} else {
				return err
			}
		}

		if format := cmd.String("export"); format != "" {
			return r.exportPreview(ctx, engine, progress, preview, cmd)
		}

		if useJSON {
			return r.writeJSON(preview, pretty)
		}

		r.printPreview(engine, preview)
		r.writePlain("\nRun again with --yes to create and update playlists.\n")
		return nil
	}

	r.logger.Infof("applying %s sort", policy)

	result, err := engine.Apply(ctx, progress, policy, source)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if result, err = engine.Apply(ctx, progress, policy, source); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return err
		}
	}

	if useJSON {
		return r.writeJSON(result, pretty)
	}

	r.printPreview(engine, result.Preview)

	rec := result.Reconciliation
	r.writePlainHeader("Reconciliation")
	r.writePlain("Created: %d\n", rec.PlaylistsCreated)
	r.writePlain("Updated: %d\n", rec.PlaylistsUpdated)
	r.writePlain("Skipped: %d\n", rec.PlaylistsSkipped)
	r.writePlain("Tracks added: %d\n", rec.TracksAdded)
	for _, label := range rec.Labels {
		r.writePlain("  %s → %s (%s, +%d)\n", label.Label, label.PlaylistName, label.Outcome, label.TracksAdded)
	}
	if len(rec.Errors) > 0 {
		r.writePlain("\n⚠ %d groups had errors:\n", len(rec.Errors))
		for _, e := range rec.Errors {
			r.writePlain("  %s\n", e)
		}
	}

	return nil
}

// printPreview renders a classification plan to the output writer.
func (r *Runner) printPreview(engine *tasks.Engine, preview *tasks.PreviewResult) {
	c := preview.Classification
	r.writePlainHeader(fmt.Sprintf("Sort Plan (%s)", preview.Policy))
	r.writePlain("Tracks: %d (%d grouped, %d skipped", c.Total, c.Grouped, c.Skipped)
	if c.Discarded > 0 {
		r.writePlain(", %d below the group floor", c.Discarded)
	}
	r.writePlain(")\n")
	if preview.Policy == classify.PolicyMood {
		a := preview.Annotation
		r.writePlain("Features: %d annotated, %d unresolved\n", a.Annotated, a.Unresolved)
	}
	r.writePlain("\n%d playlists:\n", len(preview.Groups))
	for _, group := range preview.Groups {
		r.writePlain("  %s (%d tracks)\n", engine.PlaylistName(group.Label), len(group.Tracks))
	}
}

// exportPreview writes the preview's groups to disk in the requested format.
func (r *Runner) exportPreview(ctx context.Context, engine *tasks.Engine, progress chan<- tasks.ProgressUpdate, preview *tasks.PreviewResult, cmd *cli.Command) error {
	result, err := engine.ExportPreview(ctx, progress, preview, tasks.ExportOpts{
		Format:    cmd.String("export"),
		OutputDir: cmd.String("output"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("✓ Exported %d of %d groups to %s\n", result.Successful, result.TotalGroups, result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("  Manifest: %s\n", result.ManifestPath)
	}
	for _, group := range result.Results {
		if !group.Success {
			r.writePlain("  ⚠ %s: %s\n", group.Label, group.Error)
		}
	}
	return nil
}

// logProgress returns a progress channel drained into the logger, and a stop
// function that must be called once the engine run is finished.
func (r *Runner) logProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
	}()

	return progress, func() {
		close(progress)
		wg.Wait()
	}
}
