package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
)

// LocalTrackRepository implements models.Repository[*models.LocalTrack] for
// the scanned-file catalog.
//
// Files are keyed by absolute path: rescanning a directory upserts rather
// than duplicates.
type LocalTrackRepository struct {
	db *sql.DB
}

// NewLocalTrackRepository creates a new LocalTrackRepository with the given database connection
func NewLocalTrackRepository(db *sql.DB) *LocalTrackRepository {
	return &LocalTrackRepository{db: db}
}

const localTrackColumns = "id, sequence, path, title, artist, album, genre, year, duration, format, created_at, updated_at, deleted_at"

// Create inserts a new [models.LocalTrack] into the database with generated ID and sequence
func (r *LocalTrackRepository) Create(track *models.LocalTrack) error {
	sequence, err := NextSequence(r.db, "local_tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)
	track.Sequence = sequence

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO local_tracks (id, sequence, path, title, artist, album, genre, year, duration, format, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.Path,
		track.Title,
		track.Artist,
		track.Album,
		track.Genre,
		track.Year,
		track.Duration,
		track.Format,
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert local track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted rows
func (r *LocalTrackRepository) Get(id string) (*models.LocalTrack, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM local_tracks
		WHERE id = ? AND deleted_at IS NULL
	`, localTrackColumns)

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPath retrieves a track by its file path
func (r *LocalTrackRepository) GetByPath(path string) (*models.LocalTrack, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM local_tracks
		WHERE path = ? AND deleted_at IS NULL
	`, localTrackColumns)

	return r.scanOne(r.db.QueryRow(query, path))
}

// Update modifies an existing track in the database
func (r *LocalTrackRepository) Update(track *models.LocalTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	track.Touch()

	query := `
		UPDATE local_tracks
		SET title = ?, artist = ?, album = ?, genre = ?, year = ?, duration = ?, format = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title,
		track.Artist,
		track.Album,
		track.Genre,
		track.Year,
		track.Duration,
		track.Format,
		track.UpdatedAt(),
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update local track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("local track not found or already deleted: %s", track.ID())
	}

	return nil
}

// Upsert inserts the track or, when its path is already cataloged, refreshes
// the existing row's tags in place.
func (r *LocalTrackRepository) Upsert(track *models.LocalTrack) (created bool, err error) {
	existing, err := r.GetByPath(track.Path)
	if err != nil {
		if err := r.Create(track); err != nil {
			return false, err
		}
		return true, nil
	}

	existing.Title = track.Title
	existing.Artist = track.Artist
	existing.Album = track.Album
	existing.Genre = track.Genre
	existing.Year = track.Year
	existing.Duration = track.Duration
	existing.Format = track.Format

	if err := r.Update(existing); err != nil {
		return false, err
	}

	track.SetID(existing.ID())
	track.Sequence = existing.Sequence
	return false, nil
}

// Delete soft-deletes a track by ID
func (r *LocalTrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE local_tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete local track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("local track not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted rows
func (r *LocalTrackRepository) List(criteria map[string]any) ([]*models.LocalTrack, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM local_tracks
		WHERE deleted_at IS NULL
	`, localTrackColumns)

	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ?"
		args = append(args, genre)
	}

	if year, ok := criteria["year"].(int); ok && year > 0 {
		query += " AND year = ?"
		args = append(args, year)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query local tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.LocalTrack
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

type localTrackScanner interface {
	Scan(dest ...any) error
}

func scanLocalTrack(row localTrackScanner) (*models.LocalTrack, error) {
	var (
		id        string
		sequence  int
		path      string
		title     string
		artist    sql.NullString
		album     sql.NullString
		genre     sql.NullString
		year      sql.NullInt64
		duration  sql.NullInt64
		format    sql.NullString
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &path, &title, &artist, &album, &genre, &year, &duration, &format, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("local track not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan local track: %w", err)
	}

	track := models.NewLocalTrack(path, title)
	track.SetID(id)
	track.Sequence = sequence
	track.Artist = artist.String
	track.Album = album.String
	track.Genre = genre.String
	track.Year = int(year.Int64)
	track.Duration = int(duration.Int64)
	track.Format = format.String
	track.SetTimestamps(createdAt, updatedAt)
	if deletedAt.Valid {
		track.DeletedAt = &deletedAt.Time
	}

	return track, nil
}

// scanOne scans a single [sql.Row] into a [models.LocalTrack]
func (r *LocalTrackRepository) scanOne(row *sql.Row) (*models.LocalTrack, error) {
	return scanLocalTrack(row)
}

// scanRow scans a row from [sql.Rows] into a [models.LocalTrack]
func (r *LocalTrackRepository) scanRow(rows *sql.Rows) (*models.LocalTrack, error) {
	return scanLocalTrack(rows)
}
