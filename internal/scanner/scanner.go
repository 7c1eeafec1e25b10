// package scanner walks directories of audio files and catalogs their tags.
//
// Files are keyed by path in the local SQLite catalog, so rescanning a
// library refreshes tags in place instead of duplicating rows.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsort/internal/models"
	"github.com/dhowden/tag"
)

// audioExtensions lists the file types the tag reader understands.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".m4b":  {},
	".mp4":  {},
	".flac": {},
	".ogg":  {},
	".dsf":  {},
	".wav":  {},
}

// Catalog is the subset of the local track repository the scanner needs.
type Catalog interface {
	Upsert(track *models.LocalTrack) (created bool, err error)
}

// Result summarizes a scan run.
type Result struct {
	Scanned int      `json:"scanned"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"` // unreadable files or missing tags
	Errors  []string `json:"errors,omitempty"`
}

// Scanner reads embedded tags from audio files under a root directory.
type Scanner struct {
	catalog Catalog
	logger  *log.Logger
}

func New(catalog Catalog, logger *log.Logger) *Scanner {
	return &Scanner{catalog: catalog, logger: logger}
}

// Scan walks root recursively and upserts every readable audio file into the
// catalog. Unreadable files are counted and the walk continues.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	result := &Result{}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := audioExtensions[ext]; !ok {
			return nil
		}

		result.Scanned++

		track, err := ReadTrack(path)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			if s.logger != nil {
				s.logger.Warn("Skipping unreadable file", "path", path, "error", err)
			}
			return nil
		}

		created, err := s.catalog.Upsert(track)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			return nil
		}

		if created {
			result.Created++
		} else {
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("scan aborted: %w", err)
	}

	return result, nil
}

// ReadTrack opens a single audio file and builds a LocalTrack from its tags.
// A file with no title tag falls back to its base filename.
func ReadTrack(path string) (*models.LocalTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	title := m.Title()
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	track := models.NewLocalTrack(path, title)
	track.Artist = m.Artist()
	track.Album = m.Album()
	track.Genre = m.Genre()
	track.Year = m.Year()
	track.Format = string(m.FileType())

	return track, nil
}
