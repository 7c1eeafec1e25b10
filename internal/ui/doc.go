// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for sorting a library:
//  1. [PolicyListView] : Pick a classification policy (genre, mood, decade, artist)
//  2. [GroupListView] : Browse the preview groups the policy produced
//  3. [TrackListView] : Inspect the tracks inside a single group
//  4. [ConfirmView] : Confirm playlist creation/updates
//  5. [ApplyView] : Monitor real-time reconciliation progress
//  6. [ResultView] : Display created/updated/skipped counts and errors
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the SortEngine, providing non-blocking
// status reporting while playlists are reconciled.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
