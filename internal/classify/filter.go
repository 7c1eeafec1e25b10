package classify

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
)

// ValidateFilterSpec rejects specs the filter engine cannot evaluate.
func ValidateFilterSpec(spec models.FilterSpec) error {
	if spec.Scope == models.ScopePlaylists && len(spec.PlaylistIDs) == 0 {
		return fmt.Errorf("%w: playlists scope requires at least one playlist id", shared.ErrInvalidFilterSpec)
	}
	if spec.YearFrom > 0 && spec.YearTo > 0 && spec.YearFrom > spec.YearTo {
		return fmt.Errorf("%w: year range %d-%d is inverted", shared.ErrInvalidFilterSpec, spec.YearFrom, spec.YearTo)
	}
	return nil
}

// Filter returns the tracks matching every criterion of the spec. Criteria
// are ANDed; an empty spec matches everything. Rules drive the mood
// criterion; pass nil for the default table.
func Filter(tracks []models.TrackRecord, spec models.FilterSpec, rules []MoodRule) []models.TrackRecord {
	if spec.IsEmpty() {
		return tracks
	}

	if len(rules) == 0 {
		rules = DefaultMoodRules()
	}

	var matched []models.TrackRecord
	for _, track := range tracks {
		if matches(track, spec, rules) {
			matched = append(matched, track)
		}
	}
	return matched
}

func matches(track models.TrackRecord, spec models.FilterSpec, rules []MoodRule) bool {
	if spec.Text != "" && !matchesText(track, spec.Text) {
		return false
	}

	if spec.Artist != "" && !containsFold(track.Artists, spec.Artist) {
		return false
	}

	if len(spec.Genres) > 0 && !matchesGenres(track, spec.Genres) {
		return false
	}

	// Tracks without a release year never satisfy a year bound.
	if spec.YearFrom > 0 && (track.Year == 0 || track.Year < spec.YearFrom) {
		return false
	}
	if spec.YearTo > 0 && (track.Year == 0 || track.Year > spec.YearTo) {
		return false
	}

	if spec.Mood != "" {
		if !track.HasFeatures() {
			return false
		}
		label, ok := MoodOf(*track.Features, rules)
		if !ok || !strings.EqualFold(label, spec.Mood) {
			return false
		}
	}

	return true
}

// matchesText OR-matches the query against title, any artist, and album.
func matchesText(track models.TrackRecord, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(track.Title), q) {
		return true
	}
	for _, artist := range track.Artists {
		if strings.Contains(strings.ToLower(artist), q) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(track.Album), q)
}

// matchesGenres OR-matches: any overlap between the track's tags and the
// requested set passes.
func matchesGenres(track models.TrackRecord, wanted []string) bool {
	for _, want := range wanted {
		normalized := shared.NormalizeLabel(want)
		for _, genre := range track.Genres {
			if shared.NormalizeLabel(genre) == normalized {
				return true
			}
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
