package formatter

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotsort/internal/models"
)

func sampleGroup() models.Group {
	return models.Group{
		Label: "1980s",
		Tracks: []models.TrackRecord{
			{ID: "t1", Title: "Night Drive", Artists: []string{"Neon City", "Guest"}, Album: "Skyline", Year: 1984, Genres: []string{"synthwave"}, Duration: 245},
			{ID: "t2", Title: "Afterglow", Artists: []string{"Neon City"}, Year: 1987, Duration: 190},
		},
	}
}

func TestTracksToCSV(t *testing.T) {
	data, err := GroupToCSV(sampleGroup())
	if err != nil {
		t.Fatalf("GroupToCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("generated CSV does not parse: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "ID" || records[0][4] != "Year" {
		t.Errorf("unexpected header row: %v", records[0])
	}
	if records[1][2] != "Neon City; Guest" {
		t.Errorf("expected joined artists, got %q", records[1][2])
	}
	if records[2][4] != "1987" {
		t.Errorf("expected year column, got %q", records[2][4])
	}
}

func TestTracksToCSVEmptyYear(t *testing.T) {
	data, err := TracksToCSV([]models.TrackRecord{{ID: "t1", Title: "Undated"}})
	if err != nil {
		t.Fatalf("TracksToCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("generated CSV does not parse: %v", err)
	}
	if records[1][4] != "" {
		t.Errorf("expected empty year for unset value, got %q", records[1][4])
	}
}

func TestGroupToMarkdown(t *testing.T) {
	md := string(GroupToMarkdown(sampleGroup()))

	if !strings.Contains(md, "# 1980s") {
		t.Error("expected group label heading")
	}
	if !strings.Contains(md, "**Tracks**: 2") {
		t.Error("expected track count")
	}
	if !strings.Contains(md, "1. Neon City - Night Drive (Skyline) [4:05]") {
		t.Errorf("unexpected track line formatting:\n%s", md)
	}
	if !strings.Contains(md, "2. Neon City - Afterglow [3:10]") {
		t.Errorf("expected album part omitted when empty:\n%s", md)
	}
}

func TestGroupsToMarkdownSummaryTable(t *testing.T) {
	groups := []models.Group{
		sampleGroup(),
		{Label: "1990s", Tracks: []models.TrackRecord{{ID: "t3", Title: "Later", Artists: []string{"Other"}}}},
	}

	md := string(GroupsToMarkdown("Sorted by decade", groups))
	if !strings.Contains(md, "| 1980s | 2 |") || !strings.Contains(md, "| 1990s | 1 |") {
		t.Errorf("expected summary table rows:\n%s", md)
	}
	if !strings.Contains(md, "**Total placements**: 3") {
		t.Errorf("expected placement total:\n%s", md)
	}
}

func TestWriteGroupFiles(t *testing.T) {
	dir := t.TempDir()
	group := sampleGroup()
	base := filepath.Join(dir, "1980s")

	csvPath, err := WriteGroupCSV(group, base)
	if err != nil {
		t.Fatalf("WriteGroupCSV failed: %v", err)
	}
	mdPath, err := WriteGroupMarkdown(group, base)
	if err != nil {
		t.Fatalf("WriteGroupMarkdown failed: %v", err)
	}
	txtPath, err := WriteGroupText(group, base)
	if err != nil {
		t.Fatalf("WriteGroupText failed: %v", err)
	}

	for _, path := range []string{csvPath, mdPath, txtPath} {
		if filepath.Dir(path) != dir {
			t.Errorf("expected file under temp dir, got %s", path)
		}
	}
}
