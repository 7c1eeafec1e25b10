package ui

import (
	"github.com/desertthunder/spotsort/internal/tasks"
)

// previewReadyMsg carries the classification pass for the selected policy.
type previewReadyMsg struct {
	preview *tasks.PreviewResult
	err     error
}

// progressMsg relays a single [tasks.ProgressUpdate] from the engine.
type progressMsg tasks.ProgressUpdate

// runCompleteMsg carries the reconciliation outcome once Apply finishes.
type runCompleteMsg struct {
	result *tasks.RunResult
	err    error
}
