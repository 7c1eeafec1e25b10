// Package models defines domain entities for the spotsort playlist organizer.
//
// The package contains two categories of types:
//
// 1. Pipeline values, created fresh on every run and never persisted:
//   - [TrackRecord] : normalized song metadata with optional audio features
//   - [AudioFeatures] : numeric descriptors used for mood inference
//   - [PlaylistDescriptor] : identity and membership snapshot of a remote playlist
//   - [Group] : a label with the tracks classified under it
//   - [FilterSpec] : user-supplied multi-criteria selection over the catalog
//
// 2. Persistent entities backed by the local SQLite catalog:
//   - [LocalTrack] : an audio file discovered by the directory scanner
//
// Persistent entities implement the [Model] interface providing ID generation,
// timestamps, validation, and soft delete support. The [Repository] interface
// defines standard CRUD operations for database access.
package models
