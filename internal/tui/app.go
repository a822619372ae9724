package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
	"github.com/netanel-haber/localfiles.stream/internal/library"
	"github.com/netanel-haber/localfiles.stream/internal/search"
	"github.com/netanel-haber/localfiles.stream/internal/tui/styles"
)

// actionDoneMsg reports the result of an asynchronous library action.
type actionDoneMsg struct{ err error }

// Model is the main Bubble Tea model: a flat, filterable list of library
// assets. All mutations go through the library service; the model only
// re-renders from the change events it observes.
type Model struct {
	library  *library.Service
	observer *ChannelObserver

	keys   KeyMap
	help   help.Model
	filter textinput.Model

	descriptors []domain.AssetDescriptor
	results     []search.Result
	cursor      int

	filtering   bool
	confirmWipe bool
	showHelp    bool

	status    string
	statusErr bool

	width  int
	height int
}

// NewModel creates the TUI model and subscribes it to library changes.
func NewModel(lib *library.Service) *Model {
	observer := NewChannelObserver()
	lib.Subscribe(observer)

	filter := textinput.New()
	filter.Placeholder = "filter by name"
	filter.Prompt = "/"
	filter.CharLimit = 64

	m := &Model{
		library:  lib,
		observer: observer,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		filter:   filter,
	}
	m.setDescriptors(lib.List())
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.observer.WaitForEvent()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case libraryEventMsg:
		event := domain.LibraryEvent(msg)
		m.setDescriptors(event.Descriptors)
		if event.Kind == domain.EventNotice {
			m.status = event.Notice
			m.statusErr = true
		}
		return m, m.observer.WaitForEvent()

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.statusErr = true
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmWipe {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmWipe = false
			return m, m.wipeCmd()
		case key.Matches(msg, m.keys.Deny):
			m.confirmWipe = false
		}
		return m, nil
	}

	if m.filtering {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.filtering = false
			m.filter.SetValue("")
			m.filter.Blur()
			m.applyFilter()
		case msg.Type == tea.KeyEnter:
			m.filtering = false
			m.filter.Blur()
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0

	case key.Matches(msg, m.keys.End):
		if len(m.results) > 0 {
			m.cursor = len(m.results) - 1
		}

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.Focus()

	case key.Matches(msg, m.keys.Escape):
		m.filter.SetValue("")
		m.applyFilter()
		m.status = ""

	case key.Matches(msg, m.keys.Play):
		if d, ok := m.selected(); ok {
			m.status = fmt.Sprintf("Playing %s", d.Name)
			m.statusErr = false
			return m, m.playCmd(d.ID)
		}

	case key.Matches(msg, m.keys.Delete):
		if d, ok := m.selected(); ok {
			return m, m.deleteCmd(d.ID)
		}

	case key.Matches(msg, m.keys.Wipe):
		if len(m.descriptors) > 0 {
			m.confirmWipe = true
		}
	}

	return m, nil
}

func (m *Model) selected() (domain.AssetDescriptor, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return domain.AssetDescriptor{}, false
	}
	return m.results[m.cursor].Descriptor, true
}

func (m *Model) setDescriptors(descriptors []domain.AssetDescriptor) {
	m.descriptors = descriptors
	m.applyFilter()
}

func (m *Model) applyFilter() {
	m.results = search.NewIndex(m.descriptors).Filter(m.filter.Value())
	if m.cursor >= len(m.results) {
		m.cursor = len(m.results) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) playCmd(assetID string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.library.Play(context.Background(), assetID)}
	}
}

func (m *Model) deleteCmd(assetID string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.library.Remove(context.Background(), assetID)}
	}
}

func (m *Model) wipeCmd() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.library.RemoveAll(context.Background())}
	}
}

func (m *Model) View() string {
	var b strings.Builder

	var total int64
	for _, d := range m.descriptors {
		total += d.SizeBytes
	}
	title := fmt.Sprintf("localfiles.stream — %d file(s), %s",
		len(m.descriptors), domain.AssetDescriptor{SizeBytes: total}.FormattedSize())
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.results) == 0 {
		if m.filter.Value() != "" {
			b.WriteString(styles.DimStyle.Render("  no matches"))
		} else {
			b.WriteString(styles.DimStyle.Render("  library is empty — share or add files to begin"))
		}
		b.WriteString("\n")
	}

	for i, result := range m.results {
		b.WriteString(m.renderRow(result, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.confirmWipe:
		b.WriteString(styles.ErrorStyle.Render("Delete the entire library? (y/n)"))
	case m.filtering:
		b.WriteString(m.filter.View())
	case m.status != "":
		if m.statusErr {
			b.WriteString(styles.ErrorStyle.Render(m.status))
		} else {
			b.WriteString(styles.SuccessStyle.Render(m.status))
		}
	}
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.help.FullHelpView([][]key.Binding{
			{m.keys.Up, m.keys.Down, m.keys.Home, m.keys.End},
			{m.keys.Play, m.keys.Delete, m.keys.Wipe},
			{m.keys.Filter, m.keys.Escape, m.keys.Quit},
		}))
	} else {
		b.WriteString(m.help.ShortHelpView([]key.Binding{
			m.keys.Play, m.keys.Delete, m.keys.Filter, m.keys.Help, m.keys.Quit,
		}))
	}

	return b.String()
}

func (m *Model) renderRow(result search.Result, selected bool) string {
	d := result.Descriptor

	indicator := styles.StatusUnwatched
	switch d.WatchStatus() {
	case domain.WatchStatusWatched:
		indicator = styles.SuccessStyle.Render(styles.StatusWatched)
	case domain.WatchStatusInProgress:
		indicator = styles.AccentStyle.Render(styles.StatusInProgress)
	}

	name := d.Name
	if len(result.MatchedIndexes) > 0 && !selected {
		name = highlightMatches(name, result.MatchedIndexes)
	}

	detail := styles.DimStyle.Render(fmt.Sprintf("  %s  %s  %s",
		d.MimeType, d.FormattedSize(), formatProgress(d.ProgressSeconds)))

	row := fmt.Sprintf("%s %s%s", indicator, name, detail)
	if selected {
		return styles.SelectedStyle.Render("▶ " + d.Name + detail)
	}
	return "  " + row
}

// highlightMatches styles the matched positions of name. The fuzzy matcher
// reports byte offsets, so iterate the string directly rather than by rune.
func highlightMatches(name string, indexes []int) string {
	matched := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		matched[idx] = true
	}

	var b strings.Builder
	for i, r := range name {
		if matched[i] {
			b.WriteString(styles.MatchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatProgress renders stored progress as m:ss, or a dash when unstarted.
func formatProgress(seconds float64) string {
	if seconds <= 0 {
		return "–"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

var _ tea.Model = (*Model)(nil)
