package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models in the local catalog.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// AudioFeatures holds the numeric descriptors Spotify exposes for a track.
// Either absent from a [TrackRecord] or fully populated, never partial.
type AudioFeatures struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
	Tempo        float64 `json:"tempo"` // BPM
}

// TrackRecord is the normalized representation of one song. Produced by the
// catalog accessor and treated as read-only by every downstream component.
type TrackRecord struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Artists   []string       `json:"artists"` // ordered, first entry is the primary artist
	ArtistIDs []string       `json:"artist_ids,omitempty"`
	Album     string         `json:"album"`
	Year      int            `json:"year,omitempty"` // 0 when the release year is unknown
	Genres    []string       `json:"genres,omitempty"`
	Duration  int            `json:"duration"` // seconds
	Features  *AudioFeatures `json:"features,omitempty"`
}

// PrimaryArtist returns the first artist in the ordered artist sequence.
func (t TrackRecord) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// HasFeatures reports whether the track carries a full audio-feature bundle.
func (t TrackRecord) HasFeatures() bool {
	return t.Features != nil
}

// Group pairs a classification label with the tracks placed under it.
// Groups are transient, scoped to a single run.
type Group struct {
	Label  string        `json:"label"`
	Tracks []TrackRecord `json:"tracks"`
}

// PlaylistDescriptor identifies a remote playlist. The reconciler treats
// remote membership as authoritative and re-fetches it just-in-time before
// every write rather than trusting this snapshot.
type PlaylistDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
	Public      bool   `json:"public"`
	TrackCount  int    `json:"track_count"`
	IsLikedSongs bool  `json:"is_liked_songs,omitempty"`
}

// LikedSongsID is the pseudo-playlist id for the user's saved tracks.
const LikedSongsID = "liked_songs"

// Source scopes for a FilterSpec.
const (
	ScopeLibrary   = "library"
	ScopePlaylists = "playlists"
)

// FilterSpec is a user-supplied multi-criteria selection over the catalog.
// Criteria are combined with AND; an empty spec matches everything.
type FilterSpec struct {
	Text        string   `json:"text,omitempty"`   // free text, OR-matched across title/artist/album
	Artist      string   `json:"artist,omitempty"` // exact artist name, case-insensitive
	Genres      []string `json:"genres,omitempty"` // track matches if any genre tag is in the set
	YearFrom    int      `json:"year_from,omitempty"`
	YearTo      int      `json:"year_to,omitempty"`
	Mood        string   `json:"mood,omitempty"`
	Scope       string   `json:"scope,omitempty"` // ScopeLibrary (default) or ScopePlaylists
	PlaylistIDs []string `json:"playlist_ids,omitempty"`
}

// IsEmpty reports whether the spec carries no criteria at all.
func (f FilterSpec) IsEmpty() bool {
	return f.Text == "" && f.Artist == "" && len(f.Genres) == 0 &&
		f.YearFrom == 0 && f.YearTo == 0 && f.Mood == ""
}

// Describe renders the active criteria for playlist descriptions and logs.
func (f FilterSpec) Describe() string {
	var parts []string
	if f.Text != "" {
		parts = append(parts, fmt.Sprintf("text=%q", f.Text))
	}
	if f.Artist != "" {
		parts = append(parts, "artist="+f.Artist)
	}
	if len(f.Genres) > 0 {
		parts = append(parts, "genres="+strings.Join(f.Genres, "|"))
	}
	if f.YearFrom > 0 || f.YearTo > 0 {
		parts = append(parts, fmt.Sprintf("years=%d-%d", f.YearFrom, f.YearTo))
	}
	if f.Mood != "" {
		parts = append(parts, "mood="+f.Mood)
	}
	return strings.Join(parts, ", ")
}
