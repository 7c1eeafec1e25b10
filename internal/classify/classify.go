package classify

import (
	"fmt"
	"sort"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
)

// Policy selects a grouping strategy.
type Policy string

const (
	PolicyGenre  Policy = "genre"
	PolicyMood   Policy = "mood"
	PolicyDecade Policy = "decade"
	PolicyArtist Policy = "artist"
)

// UnknownLabel is the reserved label for tracks without genre tags.
const UnknownLabel = "unknown"

// DefaultMinTracks is the floor below which artist groups are discarded.
const DefaultMinTracks = 5

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyGenre, PolicyMood, PolicyDecade, PolicyArtist:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want genre, mood, decade, or artist)", shared.ErrInvalidPolicy, s)
	}
}

// Params tunes classification behavior.
type Params struct {
	MinTracks   int        // artist policy: discard groups smaller than this (default 5)
	KeepUnknown bool       // genre policy: keep untagged tracks under "unknown"
	Rules       []MoodRule // mood policy: ordered rule table (default DefaultMoodRules)
}

// Summary reports how a classification pass disposed of its input.
type Summary struct {
	Total     int `json:"total"`
	Grouped   int `json:"grouped"` // distinct tracks placed in at least one group
	Skipped   int `json:"skipped"` // missing features, missing year, or no rule match
	Discarded int `json:"discarded"` // artist groups below the minimum size
	Groups    int `json:"groups"`
}

// Classify groups tracks under labels per the given policy. The input is
// never mutated. An empty input yields an empty map.
func Classify(tracks []models.TrackRecord, policy Policy, params Params) (map[string][]models.TrackRecord, Summary, error) {
	summary := Summary{Total: len(tracks)}
	groups := make(map[string][]models.TrackRecord)

	switch policy {
	case PolicyGenre:
		classifyGenre(tracks, params, groups, &summary)
	case PolicyMood:
		classifyMood(tracks, params, groups, &summary)
	case PolicyDecade:
		classifyDecade(tracks, groups, &summary)
	case PolicyArtist:
		classifyArtist(tracks, params, groups, &summary)
	default:
		return nil, summary, fmt.Errorf("%w: %q", shared.ErrInvalidPolicy, string(policy))
	}

	summary.Groups = len(groups)
	return groups, summary, nil
}

func classifyGenre(tracks []models.TrackRecord, params Params, groups map[string][]models.TrackRecord, summary *Summary) {
	for _, track := range tracks {
		if len(track.Genres) == 0 {
			if params.KeepUnknown {
				groups[UnknownLabel] = append(groups[UnknownLabel], track)
				summary.Grouped++
			} else {
				summary.Skipped++
			}
			continue
		}

		for _, genre := range track.Genres {
			label := shared.NormalizeLabel(genre)
			if label == "" {
				continue
			}
			groups[label] = append(groups[label], track)
		}
		summary.Grouped++
	}
}

func classifyMood(tracks []models.TrackRecord, params Params, groups map[string][]models.TrackRecord, summary *Summary) {
	rules := params.Rules
	if len(rules) == 0 {
		rules = DefaultMoodRules()
	}

	for _, track := range tracks {
		if !track.HasFeatures() {
			summary.Skipped++
			continue
		}

		label, ok := MoodOf(*track.Features, rules)
		if !ok {
			summary.Skipped++
			continue
		}

		groups[label] = append(groups[label], track)
		summary.Grouped++
	}
}

func classifyDecade(tracks []models.TrackRecord, groups map[string][]models.TrackRecord, summary *Summary) {
	for _, track := range tracks {
		if track.Year <= 0 {
			summary.Skipped++
			continue
		}

		label := fmt.Sprintf("%ds", (track.Year/10)*10)
		groups[label] = append(groups[label], track)
		summary.Grouped++
	}
}

func classifyArtist(tracks []models.TrackRecord, params Params, groups map[string][]models.TrackRecord, summary *Summary) {
	minTracks := params.MinTracks
	if minTracks <= 0 {
		minTracks = DefaultMinTracks
	}

	for _, track := range tracks {
		artist := track.PrimaryArtist()
		if artist == "" {
			summary.Skipped++
			continue
		}
		groups[artist] = append(groups[artist], track)
	}

	for label, members := range groups {
		if len(members) < minTracks {
			summary.Discarded++
			summary.Skipped += len(members)
			delete(groups, label)
			continue
		}
		summary.Grouped += len(members)
	}
}

// SortedGroups converts a classification map into a label-sorted slice for
// deterministic previews and reconciliation order.
func SortedGroups(groups map[string][]models.TrackRecord) []models.Group {
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	result := make([]models.Group, 0, len(labels))
	for _, label := range labels {
		result = append(result, models.Group{Label: label, Tracks: groups[label]})
	}
	return result
}
