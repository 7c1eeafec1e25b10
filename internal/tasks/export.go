package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/spotsort/internal/formatter"
	"github.com/desertthunder/spotsort/internal/models"
)

// ExportOpts contains configuration for preview exports.
type ExportOpts struct {
	Format     string // json, csv, markdown, txt
	OutputDir  string // default: spotsort_export_{epoch}
	NumWorkers int    // concurrent workers (default: 5, cap: 10)
}

// GroupExportResult records the outcome of exporting one group.
type GroupExportResult struct {
	Label   string   `json:"label"`
	Files   []string `json:"files"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
}

// ExportResult summarizes a preview export run.
type ExportResult struct {
	TotalGroups     int                 `json:"total_groups"`
	Successful      int                 `json:"successful"`
	Failed          int                 `json:"failed"`
	OutputDirectory string              `json:"output_directory"`
	ManifestPath    string              `json:"manifest_path,omitempty"`
	Results         []GroupExportResult `json:"results"`
}

// ExportPreview writes every group of a preview to disk concurrently and
// drops a manifest summarizing the run. Per-group failures are recorded and
// the export continues.
func (e *Engine) ExportPreview(ctx context.Context, prog chan<- ProgressUpdate, preview *PreviewResult, opts ExportOpts) (*ExportResult, error) {
	if preview == nil || len(preview.Groups) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotsort_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		TotalGroups:     len(preview.Groups),
		OutputDirectory: opts.OutputDir,
		Results:         make([]GroupExportResult, 0, len(preview.Groups)),
	}

	jobs := make(chan models.Group, len(preview.Groups))
	results := make(chan GroupExportResult, len(preview.Groups))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	for _, group := range preview.Groups {
		jobs <- group
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Successful++
		} else {
			result.Failed++
		}
		e.sendProgress(prog, ProgressUpdate{
			Phase:   FilterTracks,
			Step:    completed,
			Total:   len(preview.Groups),
			Message: fmt.Sprintf("Exported %q", res.Label),
		})
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker drains the jobs channel, writing one group per iteration.
func exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan models.Group, results chan<- GroupExportResult, opts ExportOpts) {
	defer wg.Done()

	for group := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportGroup(group, opts)
	}
}

func exportGroup(group models.Group, opts ExportOpts) GroupExportResult {
	result := GroupExportResult{Label: group.Label}
	base := filepath.Join(opts.OutputDir, labelSlug(group.Label))

	var path string
	var err error

	switch opts.Format {
	case "csv":
		path, err = formatter.WriteGroupCSV(group, base)
	case "markdown":
		path, err = formatter.WriteGroupMarkdown(group, base)
	case "txt":
		path, err = formatter.WriteGroupText(group, base)
	default:
		err = writeGroupJSON(group, base)
		path = base + ".json"
	}

	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Files = []string{path}
	result.Success = true
	return result
}

func writeGroupJSON(group models.Group, base string) error {
	data, err := formatter.GroupToJSON(group)
	if err != nil {
		return err
	}
	return os.WriteFile(base+".json", data, 0644)
}

// labelSlug makes a label safe to use as a filename.
func labelSlug(label string) string {
	slug := strings.ToLower(strings.TrimSpace(label))
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-")
	return replacer.Replace(slug)
}
