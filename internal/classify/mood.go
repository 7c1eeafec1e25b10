package classify

import "github.com/desertthunder/spotsort/internal/models"

// MoodRule pairs a label with a predicate over audio features. Rules are
// evaluated in order and the first match wins, so broader predicates must
// come after narrower ones.
type MoodRule struct {
	Label   string
	Matches func(f models.AudioFeatures) bool
}

// DefaultMoodRules returns the standard ordered rule table. Party precedes
// Happy and Energetic so that danceable high-energy tracks land in Party
// rather than one of the broader labels.
func DefaultMoodRules() []MoodRule {
	return []MoodRule{
		{Label: "Party", Matches: func(f models.AudioFeatures) bool {
			return f.Danceability > 0.7 && f.Energy > 0.7
		}},
		{Label: "Happy", Matches: func(f models.AudioFeatures) bool {
			return f.Valence > 0.6 && f.Energy > 0.6
		}},
		{Label: "Energetic", Matches: func(f models.AudioFeatures) bool {
			return f.Energy > 0.7 && f.Tempo > 120
		}},
		{Label: "Sad", Matches: func(f models.AudioFeatures) bool {
			return f.Valence < 0.4 && f.Energy < 0.4
		}},
		{Label: "Calm", Matches: func(f models.AudioFeatures) bool {
			return f.Energy < 0.4 && f.Tempo < 100
		}},
		{Label: "Chill", Matches: func(f models.AudioFeatures) bool {
			return f.Acousticness > 0.5 && f.Energy < 0.5
		}},
	}
}

// MoodOf returns the label of the first rule matching the given features.
// The second return is false when no rule matches.
func MoodOf(f models.AudioFeatures, rules []MoodRule) (string, bool) {
	for _, rule := range rules {
		if rule.Matches != nil && rule.Matches(f) {
			return rule.Label, true
		}
	}
	return "", false
}
