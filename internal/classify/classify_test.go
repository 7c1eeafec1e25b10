package classify

import (
	"errors"
	"testing"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
)

func featured(id string, f models.AudioFeatures) models.TrackRecord {
	return models.TrackRecord{ID: id, Title: id, Features: &f}
}

func TestParsePolicy(t *testing.T) {
	for _, valid := range []string{"genre", "mood", "decade", "artist"} {
		if _, err := ParsePolicy(valid); err != nil {
			t.Errorf("ParsePolicy(%q) failed: %v", valid, err)
		}
	}

	if _, err := ParsePolicy("tempo"); !errors.Is(err, shared.ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	groups, summary, err := Classify(nil, PolicyGenre, Params{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected empty map, got %v", groups)
	}
	if summary.Total != 0 {
		t.Errorf("expected zero total, got %d", summary.Total)
	}
}

func TestClassifyUnknownPolicy(t *testing.T) {
	_, _, err := Classify([]models.TrackRecord{{ID: "t1"}}, Policy("bpm"), Params{})
	if !errors.Is(err, shared.ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestClassifyGenre(t *testing.T) {
	tracks := []models.TrackRecord{
		{ID: "t1", Genres: []string{"indie rock", "shoegaze"}},
		{ID: "t2", Genres: []string{"Indie Rock"}},
		{ID: "t3"},
	}

	t.Run("keep unknown", func(t *testing.T) {
		groups, summary, err := Classify(tracks, PolicyGenre, Params{KeepUnknown: true})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if len(groups["indie rock"]) != 2 {
			t.Errorf("expected case-normalized genre to merge, got %d members", len(groups["indie rock"]))
		}
		if len(groups["shoegaze"]) != 1 {
			t.Errorf("expected t1 in shoegaze via multi-membership, got %d", len(groups["shoegaze"]))
		}
		if len(groups[UnknownLabel]) != 1 {
			t.Errorf("expected untagged track under %q, got %v", UnknownLabel, groups[UnknownLabel])
		}
		if summary.Grouped != 3 || summary.Skipped != 0 {
			t.Errorf("unexpected summary %+v", summary)
		}
	})

	t.Run("drop unknown", func(t *testing.T) {
		groups, summary, err := Classify(tracks, PolicyGenre, Params{KeepUnknown: false})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if _, ok := groups[UnknownLabel]; ok {
			t.Error("expected untagged tracks dropped")
		}
		if summary.Skipped != 1 {
			t.Errorf("expected 1 skipped, got %d", summary.Skipped)
		}
	})
}

func TestClassifyMoodRuleOrder(t *testing.T) {
	tests := []struct {
		name     string
		features models.AudioFeatures
		want     string
	}{
		// danceable and happy at once: Party outranks Happy
		{"party beats happy", models.AudioFeatures{Danceability: 0.8, Energy: 0.8, Valence: 0.9}, "Party"},
		{"happy", models.AudioFeatures{Valence: 0.7, Energy: 0.65}, "Happy"},
		{"energetic", models.AudioFeatures{Energy: 0.8, Tempo: 140, Valence: 0.5}, "Energetic"},
		{"sad", models.AudioFeatures{Valence: 0.2, Energy: 0.3, Tempo: 110}, "Sad"},
		{"calm", models.AudioFeatures{Valence: 0.5, Energy: 0.3, Tempo: 80}, "Calm"},
		{"chill", models.AudioFeatures{Acousticness: 0.8, Energy: 0.45, Valence: 0.5, Tempo: 110}, "Chill"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := MoodOf(tt.features, DefaultMoodRules())
			if !ok {
				t.Fatalf("expected a match for %+v", tt.features)
			}
			if label != tt.want {
				t.Errorf("expected %s, got %s", tt.want, label)
			}
		})
	}
}

func TestClassifyMoodSkipsUnmatched(t *testing.T) {
	tracks := []models.TrackRecord{
		featured("t1", models.AudioFeatures{Valence: 0.9, Energy: 0.9, Danceability: 0.2, Tempo: 100}), // Happy
		featured("t2", models.AudioFeatures{Valence: 0.5, Energy: 0.55, Tempo: 110, Acousticness: 0.3}), // matches nothing
		{ID: "t3", Title: "no features"},
	}

	groups, summary, err := Classify(tracks, PolicyMood, Params{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(groups["Happy"]) != 1 {
		t.Errorf("expected 1 Happy track, got %v", groups)
	}
	if summary.Grouped != 1 || summary.Skipped != 2 {
		t.Errorf("expected 1 grouped and 2 skipped, got %+v", summary)
	}

	// exactly one label per track
	total := 0
	for _, members := range groups {
		total += len(members)
	}
	if total != 1 {
		t.Errorf("expected single membership, got %d placements", total)
	}
}

func TestClassifyMoodCustomRuleOrder(t *testing.T) {
	rules := []MoodRule{
		{Label: "Loud", Matches: func(f models.AudioFeatures) bool { return f.Energy > 0.5 }},
		{Label: "Party", Matches: func(f models.AudioFeatures) bool { return f.Danceability > 0.7 && f.Energy > 0.7 }},
	}

	track := featured("t1", models.AudioFeatures{Danceability: 0.9, Energy: 0.9})
	groups, _, err := Classify([]models.TrackRecord{track}, PolicyMood, Params{Rules: rules})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(groups["Loud"]) != 1 {
		t.Errorf("expected custom rule order to take precedence, got %v", groups)
	}
}

func TestClassifyDecade(t *testing.T) {
	tracks := []models.TrackRecord{
		{ID: "t1", Year: 1987},
		{ID: "t2", Year: 2000},
		{ID: "t3", Year: 2003},
		{ID: "t4"},
	}

	groups, summary, err := Classify(tracks, PolicyDecade, Params{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(groups["1980s"]) != 1 {
		t.Errorf("expected 1987 under 1980s, got %v", groups)
	}
	if len(groups["2000s"]) != 2 {
		t.Errorf("expected 2000 and 2003 under 2000s, got %v", groups["2000s"])
	}
	if summary.Skipped != 1 {
		t.Errorf("expected yearless track skipped, got %+v", summary)
	}
}

func TestClassifyArtistMinTracks(t *testing.T) {
	var tracks []models.TrackRecord
	for i := 0; i < 5; i++ {
		tracks = append(tracks, models.TrackRecord{ID: string(rune('a' + i)), Artists: []string{"Prolific"}})
	}
	for i := 0; i < 4; i++ {
		tracks = append(tracks, models.TrackRecord{ID: string(rune('p' + i)), Artists: []string{"Sparse"}})
	}

	groups, summary, err := Classify(tracks, PolicyArtist, Params{MinTracks: 5})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(groups["Prolific"]) != 5 {
		t.Errorf("expected Prolific kept with 5 tracks, got %v", groups)
	}
	if _, ok := groups["Sparse"]; ok {
		t.Error("expected Sparse discarded below minimum")
	}
	if summary.Discarded != 1 || summary.Skipped != 4 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestSortedGroupsDeterministic(t *testing.T) {
	groups := map[string][]models.TrackRecord{
		"rock": {{ID: "t1"}},
		"ambient": {{ID: "t2"}},
		"jazz": {{ID: "t3"}},
	}

	sorted := SortedGroups(groups)
	if len(sorted) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(sorted))
	}
	if sorted[0].Label != "ambient" || sorted[1].Label != "jazz" || sorted[2].Label != "rock" {
		t.Errorf("expected label-sorted order, got %v", sorted)
	}
}
