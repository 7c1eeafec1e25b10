package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotsort/internal/classify"
	"github.com/desertthunder/spotsort/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PolicyListView ViewState = iota
	GroupListView
	TrackListView
	ConfirmView
	ApplyView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.SortEngine
	source       tasks.Source
	policy       classify.Policy
	width        int
	height       int
	policyList   list.Model
	groupList    list.Model
	trackList    list.Model
	preview      *tasks.PreviewResult
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.RunResult
	err          error
	loading      bool
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine tasks.SortEngine, source tasks.Source) *Model {
	policies := []classify.Policy{
		classify.PolicyGenre,
		classify.PolicyMood,
		classify.PolicyDecade,
		classify.PolicyArtist,
	}
	items := make([]list.Item, len(policies))
	for i, p := range policies {
		items[i] = policyItem{policy: p}
	}
	policyList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	policyList.Title = "Sort Library By"

	return &Model{
		ctx:        ctx,
		view:       PolicyListView,
		engine:     engine,
		source:     source,
		policyList: policyList,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init satisfies tea.Model. All data loading is user-driven.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.policyList.SetSize(msg.Width-4, msg.Height-8)
		if m.groupList.Width() == 0 {
			m.groupList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PolicyListView:
			return m.handlePolicyListKeys(msg)
		case GroupListView:
			return m.handleGroupListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case previewReadyMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.view = PolicyListView
			return m, nil
		}
		m.preview = msg.preview
		items := make([]list.Item, len(msg.preview.Groups))
		for i, group := range msg.preview.Groups {
			items[i] = groupItem{group: group}
		}
		m.groupList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.groupList.Title = fmt.Sprintf("Groups by %s", m.policy)
		m.groupList.SetSize(m.width-4, m.height-8)
		m.view = GroupListView
		return m, nil

	case progressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView && m.view != PolicyListView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PolicyListView:
		return m.renderPolicyList()
	case GroupListView:
		return m.renderGroupList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ApplyView:
		return m.renderApply()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePolicyListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.loading {
			return m, nil
		}
		selected := m.policyList.SelectedItem()
		if selected != nil {
			if p, ok := selected.(policyItem); ok {
				m.policy = p.policy
				m.err = nil
				m.loading = true
				return m, m.runPreview()
			}
		}
	}

	var cmd tea.Cmd
	m.policyList, cmd = m.policyList.Update(msg)
	return m, cmd
}

func (m *Model) handleGroupListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PolicyListView
		return m, nil
	case "enter":
		selected := m.groupList.SelectedItem()
		if selected != nil {
			if g, ok := selected.(groupItem); ok {
				items := make([]list.Item, len(g.group.Tracks))
				for i, track := range g.group.Tracks {
					items[i] = trackItem{track: track}
				}
				m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
				m.trackList.Title = fmt.Sprintf("Tracks in '%s'", g.group.Label)
				m.trackList.SetSize(m.width-4, m.height-8)
				m.view = TrackListView
				return m, nil
			}
		}
	case "y":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.groupList, cmd = m.groupList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = GroupListView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = GroupListView
		return m, nil
	case "y":
		m.view = ApplyView
		return m, m.startApply()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PolicyListView
		m.preview = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PolicyListView:
		m.policyList, cmd = m.policyList.Update(msg)
	case GroupListView:
		m.groupList, cmd = m.groupList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) runPreview() tea.Cmd {
	return func() tea.Msg {
		preview, err := m.engine.Preview(m.ctx, nil, m.policy, m.source)
		return previewReadyMsg{preview: preview, err: err}
	}
}

func (m *Model) startApply() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.Apply(m.ctx, m.progressChan, m.policy, m.source)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return runCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return runCompleteMsg{result: m.result, err: m.err}
		}
		return progressMsg(update)
	}
}

func (m *Model) renderPolicyList() string {
	header := ""
	if m.err != nil {
		header = styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
	}
	if m.loading {
		header = styles.help.Render("Classifying library...") + "\n\n"
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s%s\n\n%s", header, m.policyList.View(), helpView)
}

func (m *Model) renderGroupList() string {
	applyKey := key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "apply"),
	)
	helpKeys := []key.Binding{m.keys.enter, applyKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	summary := ""
	if m.preview != nil {
		c := m.preview.Classification
		summary = styles.help.Render(fmt.Sprintf(
			"%d tracks • %d grouped • %d skipped", c.Total, c.Grouped, c.Skipped,
		)) + "\n"
	}
	return fmt.Sprintf("%s\n%s\n%s", m.groupList.View(), summary, helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	groups := 0
	if m.preview != nil {
		groups = len(m.preview.Groups)
	}
	title := styles.title.Render(fmt.Sprintf("Create or update %d playlists?", groups))
	info := fmt.Sprintf("\nPolicy: %s\nGroups: %d\n", m.policy, groups)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderApply() string {
	title := styles.title.Render("Sorting Library")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchTracks:
		phase = "Fetching tracks..."
	case tasks.AnnotateFeatures:
		phase = "Annotating audio features..."
	case tasks.ClassifyTracks:
		phase = "Classifying tracks..."
	case tasks.FetchPlaylists:
		phase = "Listing playlists..."
	case tasks.ReconcileGroup:
		phase = fmt.Sprintf("Reconciling groups (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist:
		phase = fmt.Sprintf("Creating playlist (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sort failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil || m.result.Reconciliation == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	rec := m.result.Reconciliation
	title := styles.ok.Render("✓ Sort Complete!")
	info := fmt.Sprintf(
		"\nPolicy: %s\nCreated: %d\nUpdated: %d\nSkipped: %d\nTracks added: %d",
		m.policy,
		rec.PlaylistsCreated,
		rec.PlaylistsUpdated,
		rec.PlaylistsSkipped,
		rec.TracksAdded,
	)

	var failed string
	if len(rec.Errors) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d groups had errors:", len(rec.Errors))))
		for _, e := range rec.Errors {
			failed += fmt.Sprintf("\n  • %s", e)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
