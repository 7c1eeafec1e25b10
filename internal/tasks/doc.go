// package tasks orchestrates the sort pipeline end to end.
//
// The core abstraction is [SortEngine]: it collects tracks from the library
// or a set of playlists, annotates audio features where the policy needs
// them, classifies into labeled groups, and reconciles each group against
// the user's playlists. Reconciliation is append-only and idempotent: a
// matched playlist only receives the tracks it is missing, and a second run
// with no drift adds nothing.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks
