package models

import (
	"fmt"
	"time"
)

// LocalTrack is a persistent entity for one scanned audio file.
// Implements [Model] for use with the local catalog repository.
type LocalTrack struct {
	id        string
	Sequence  int
	Path      string
	Title     string
	Artist    string
	Album     string
	Genre     string
	Year      int // 0 when the file carries no year tag
	Duration  int // seconds, 0 when unknown
	Format    string
	createdAt time.Time
	updatedAt time.Time
	DeletedAt *time.Time
}

// NewLocalTrack creates a LocalTrack for a freshly scanned file.
func NewLocalTrack(path, title string) *LocalTrack {
	now := time.Now()
	return &LocalTrack{
		Path:      path,
		Title:     title,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *LocalTrack) ID() string           { return t.id }
func (t *LocalTrack) CreatedAt() time.Time { return t.createdAt }
func (t *LocalTrack) UpdatedAt() time.Time { return t.updatedAt }

// SetID assigns the generated identifier. Called once by the repository.
func (t *LocalTrack) SetID(id string) { t.id = id }

// SetTimestamps restores persisted timestamps when scanning rows.
func (t *LocalTrack) SetTimestamps(created, updated time.Time) {
	t.createdAt = created
	t.updatedAt = updated
}

// Touch bumps the updated-at timestamp before an update.
func (t *LocalTrack) Touch() { t.updatedAt = time.Now() }

// Validate checks required fields before persistence.
func (t *LocalTrack) Validate() error {
	if t.Path == "" {
		return fmt.Errorf("local track requires a file path")
	}
	if t.Title == "" {
		return fmt.Errorf("local track requires a title")
	}
	return nil
}

// Record converts the catalog row into a pipeline TrackRecord so local files
// can flow through the classifier and filter engine.
func (t *LocalTrack) Record() TrackRecord {
	rec := TrackRecord{
		ID:       t.id,
		Title:    t.Title,
		Album:    t.Album,
		Year:     t.Year,
		Duration: t.Duration,
	}
	if t.Artist != "" {
		rec.Artists = []string{t.Artist}
	}
	if t.Genre != "" {
		rec.Genres = []string{t.Genre}
	}
	return rec
}
