package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotsort/internal/classify"
	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/shared"
)

var (
	_ list.Item = policyItem{}
	_ list.Item = groupItem{}
	_ list.Item = trackItem{}
)

// policyItem wraps [classify.Policy] to implement [list.Item].
type policyItem struct {
	policy classify.Policy
}

func (i policyItem) FilterValue() string { return string(i.policy) }
func (i policyItem) Title() string       { return string(i.policy) }
func (i policyItem) Description() string {
	switch i.policy {
	case classify.PolicyGenre:
		return "Group tracks by artist genre tags"
	case classify.PolicyMood:
		return "Group tracks by audio-feature mood rules"
	case classify.PolicyDecade:
		return "Group tracks by release decade"
	case classify.PolicyArtist:
		return "Group tracks by primary artist"
	default:
		return ""
	}
}

// groupItem wraps [models.Group] to implement [list.Item].
type groupItem struct {
	group models.Group
}

func (i groupItem) FilterValue() string { return i.group.Label }
func (i groupItem) Title() string       { return i.group.Label }
func (i groupItem) Description() string {
	return fmt.Sprintf("%d tracks", len(i.group.Tracks))
}

// trackItem wraps [models.TrackRecord] to implement [list.Item].
type trackItem struct {
	track models.TrackRecord
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := strings.Join(i.track.Artists, ", ")
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if i.track.Duration > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.track.Duration))
	}
	return desc
}
