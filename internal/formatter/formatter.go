// package formatter renders classification results to CSV, Markdown, and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
)

// TracksToCSV converts tracks to CSV with columns: ID, Title, Artists, Album, Year, Genres, Duration
func TracksToCSV(tracks []models.TrackRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Album", "Year", "Genres", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		year := ""
		if track.Year > 0 {
			year = strconv.Itoa(track.Year)
		}
		record := []string{
			track.ID,
			track.Title,
			strings.Join(track.Artists, "; "),
			track.Album,
			year,
			strings.Join(track.Genres, "; "),
			strconv.Itoa(track.Duration),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// GroupToCSV converts a labeled group's tracks to CSV.
func GroupToCSV(group models.Group) ([]byte, error) {
	return TracksToCSV(group.Tracks)
}

// GroupToMarkdown converts a labeled group to a Markdown section.
func GroupToMarkdown(group models.Group) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", group.Label))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(group.Tracks)))

	for i, track := range group.Tracks {
		duration := shared.FormatDuration(track.Duration)
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, track.PrimaryArtist(), track.Title, albumPart, duration))
	}

	return buf.Bytes()
}

// GroupToText converts a labeled group to plain text.
func GroupToText(group models.Group) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Group: %s\n", group.Label))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(group.Tracks)))

	for i, track := range group.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.PrimaryArtist(), track.Title))
	}

	return buf.Bytes()
}

// GroupsToMarkdown renders a full preview: a summary table followed by a
// section per group.
func GroupsToMarkdown(title string, groups []models.Group) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString("| Group | Tracks |\n")
	buf.WriteString("|-------|--------|\n")
	total := 0
	for _, group := range groups {
		buf.WriteString(fmt.Sprintf("| %s | %d |\n", group.Label, len(group.Tracks)))
		total += len(group.Tracks)
	}
	buf.WriteString(fmt.Sprintf("\n**Total placements**: %d\n", total))

	for _, group := range groups {
		buf.WriteString("\n## ")
		buf.WriteString(group.Label)
		buf.WriteString("\n\n")
		for i, track := range group.Tracks {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.PrimaryArtist(), track.Title))
		}
	}

	return buf.Bytes()
}

// WriteGroupCSV writes a group's tracks to {base}_tracks.csv.
func WriteGroupCSV(group models.Group, baseFilepath string) (string, error) {
	csvData, err := GroupToCSV(group)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	path := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(path, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}

// WriteGroupMarkdown writes a group to {base}.md.
func WriteGroupMarkdown(group models.Group, baseFilepath string) (string, error) {
	path := baseFilepath + ".md"
	if err := os.WriteFile(path, GroupToMarkdown(group), 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return path, nil
}

// WriteGroupText writes a group to {base}_tracks.txt.
func WriteGroupText(group models.Group, baseFilepath string) (string, error) {
	path := baseFilepath + "_tracks.txt"
	if err := os.WriteFile(path, GroupToText(group), 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// GroupToJSON marshals a group as pretty JSON.
func GroupToJSON(group models.Group) ([]byte, error) {
	return shared.MarshalJSON(group, true)
}

// WriteManifest writes an export summary as pretty JSON.
func WriteManifest(manifest any, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
