// Package tui is the interactive terminal browser for sources and their media.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/library"
	"github.com/mmcdole/wizju/internal/navigation"
	"github.com/mmcdole/wizju/internal/search"
	"github.com/mmcdole/wizju/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateHelp
	StateConfirmDelete
)

const (
	// header line + footer line
	ChromeHeight = 2

	statusTimeout = 4 * time.Second
)

type rowKind int

const (
	rowSource rowKind = iota
	rowRecent
	rowFavorite
)

// homeRow is one selectable line of the home view.
type homeRow struct {
	kind   rowKind
	source domain.Source
	item   domain.MediaRecord
}

// Model is the main Bubble Tea model for the application
type Model struct {
	State ApplicationState
	Ready bool

	Library *library.Service
	Nav     *navigation.Navigator

	// Data
	home      []homeRow
	results   []search.Result
	favorites map[string]bool

	// Filter
	filter textinput.Model
	query  string

	cursors map[navigation.View]int

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg     string
	StatusIsErr   bool
	Loading       bool
	SpinnerFrame  int
	pendingDelete string

	startView navigation.View
}

// NewModel creates a new application model
func NewModel(svc *library.Service) Model {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return Model{
		State:     StateBrowsing,
		Library:   svc,
		Nav:       navigation.New(svc.Sources, svc.Media),
		filter:    ti,
		favorites: make(map[string]bool),
		cursors:   make(map[navigation.View]int),
		Loading:   true,
	}
}

// WithStartView sets the view shown once the library has loaded.
func (m Model) WithStartView(v navigation.View) Model {
	m.startView = v
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadLibraryCmd(m.Library),
		TickCmd(100*time.Millisecond),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(100 * time.Millisecond)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case LibraryLoadedMsg:
		m.Loading = false
		m.openStartView()
		m.reload()
		return m, nil

	case SourceRefreshedMsg:
		m.Loading = false
		m.reload()
		return m.setStatus(fmt.Sprintf("Refreshed: %d items", msg.Items), false)

	case SourceToggledMsg:
		m.reload()
		if src, ok := m.Library.Sources.GetByID(msg.SourceID); ok {
			state := "disabled"
			if src.IsActive {
				state = "enabled"
			}
			return m.setStatus(src.Name+" "+state, false)
		}
		return m, nil

	case SourceRemovedMsg:
		m.Loading = false
		if msg.SourceID == m.Nav.CurrentSourceID() {
			m.Nav.AfterSourceDeletion()
			m.resetFilter()
		}
		m.reload()
		return m.setStatus("Source removed", false)

	case PlaybackStartedMsg:
		m.reload()
		return m.setStatus("Playing: "+msg.Item.Title, false)

	case FavoriteToggledMsg:
		m.reload()
		if msg.Pinned {
			return m.setStatus("Added to favorites", false)
		}
		return m.setStatus("Removed from favorites", false)

	case ErrMsg:
		m.Loading = false
		return m.setStatus(msg.Error(), true)
	}

	return m, nil
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusTimeout)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmDelete:
		switch {
		case key.Matches(msg, Keys.Confirm):
			id := m.pendingDelete
			m.pendingDelete = ""
			m.State = StateBrowsing
			m.Loading = true
			return m, RemoveSourceCmd(m.Library, id)
		case key.Matches(msg, Keys.Deny):
			m.pendingDelete = ""
			m.State = StateBrowsing
		}
		return m, nil

	case StateFiltering:
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Filter):
		if _, ok := m.Nav.Current().Kind(); !ok {
			return m, nil
		}
		m.State = StateFiltering
		m.filter.SetValue(m.query)
		return m, m.filter.Focus()

	case key.Matches(msg, Keys.Escape):
		if m.query != "" {
			m.resetFilter()
			m.recompute()
		}
		return m, nil

	case key.Matches(msg, Keys.Back):
		if m.Nav.Back() {
			m.resetFilter()
			m.recompute()
		}
		return m, nil

	case key.Matches(msg, Keys.Forward):
		if m.Nav.Forward() {
			m.resetFilter()
			m.recompute()
		}
		return m, nil

	case key.Matches(msg, Keys.HomeView):
		return m.navigate(m.Nav.Home), nil
	case key.Matches(msg, Keys.LiveView):
		return m.navigate(func() { m.Nav.Live("") }), nil
	case key.Matches(msg, Keys.FilmsView):
		return m.navigate(m.Nav.Films), nil
	case key.Matches(msg, Keys.SeriesView):
		return m.navigate(m.Nav.Series), nil

	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, Keys.PageUp):
		m.moveCursor(-m.pageSize())
	case key.Matches(msg, Keys.PageDown):
		m.moveCursor(m.pageSize())
	case key.Matches(msg, Keys.Top):
		m.moveCursor(-m.rowCount())
	case key.Matches(msg, Keys.Bottom):
		m.moveCursor(m.rowCount())

	case key.Matches(msg, Keys.Enter):
		return m.activate()

	case key.Matches(msg, Keys.PlayStart):
		if item, ok := m.selectedItem(); ok {
			return m, PlayCmd(m.Library, item, false)
		}

	case key.Matches(msg, Keys.Favorite):
		if item, ok := m.selectedItem(); ok {
			return m, ToggleFavoriteCmd(m.Library, item)
		}

	case key.Matches(msg, Keys.Refresh):
		if id := m.selectedSourceID(); id != "" {
			m.Loading = true
			return m, RefreshSourceCmd(m.Library, id)
		}

	case key.Matches(msg, Keys.ToggleActive):
		if row, ok := m.selectedRow(); ok && row.kind == rowSource {
			return m, ToggleSourceCmd(m.Library, row.source.ID)
		}

	case key.Matches(msg, Keys.Delete):
		if row, ok := m.selectedRow(); ok && row.kind == rowSource {
			m.pendingDelete = row.source.ID
			m.State = StateConfirmDelete
		}
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.resetFilter()
		m.State = StateBrowsing
		m.recompute()
		return m, nil
	case tea.KeyEnter:
		m.filter.Blur()
		m.State = StateBrowsing
		return m, nil
	case tea.KeyUp:
		m.moveCursor(-1)
		return m, nil
	case tea.KeyDown:
		m.moveCursor(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if v := m.filter.Value(); v != m.query {
		m.query = v
		m.cursors[m.Nav.Current()] = 0
		m.recompute()
	}
	return m, cmd
}

// navigate runs a navigator transition and resets per-view state.
func (m Model) navigate(move func()) Model {
	move()
	m.resetFilter()
	m.recompute()
	return m
}

// activate handles Enter on the current selection.
func (m Model) activate() (tea.Model, tea.Cmd) {
	switch m.Nav.Current() {
	case navigation.ViewHome:
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		if row.kind == rowSource {
			if !row.source.IsActive {
				return m.setStatus(row.source.Name+" is disabled", true)
			}
			return m.navigate(func() { m.Nav.Live(row.source.ID) }), nil
		}
		item := row.item
		if stored, ok := m.Library.Media.GetByID(item.SourceID, item.ID); ok {
			item = stored
		}
		return m.navigate(func() { m.Nav.MediaDetail(item, item.SourceID) }), nil

	case navigation.ViewMediaDetail:
		if item, ok := m.Nav.CurrentMediaItem(); ok {
			return m, PlayCmd(m.Library, item, true)
		}
		return m, nil

	case navigation.ViewNotFound:
		return m.navigate(m.Nav.Home), nil
	}

	if item, ok := m.selectedItem(); ok {
		return m.navigate(func() { m.Nav.MediaDetail(item, item.SourceID) }), nil
	}
	return m, nil
}

// openStartView moves to the configured view, selecting the first active
// source so the live view has something to show.
func (m *Model) openStartView() {
	if m.startView == navigation.ViewHome {
		return
	}
	active := m.Library.Sources.Active()
	if len(active) == 0 {
		return
	}
	m.Nav.SetCurrentSource(active[0].ID)
	m.Nav.Go(m.startView)
}

func (m *Model) resetFilter() {
	m.query = ""
	m.filter.Reset()
	m.filter.Blur()
}

// reload rebuilds every cached view from the library.
func (m *Model) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m.favorites = make(map[string]bool)
	favs := m.Library.Favorites.List(ctx)
	for _, f := range favs {
		m.favorites[favoriteKey(f.SourceID, f.Media.ID)] = true
	}

	rows := []homeRow{}
	for _, src := range m.Library.Sources.Sources() {
		rows = append(rows, homeRow{kind: rowSource, source: src})
	}
	for _, item := range m.Library.Recent.Display(m.Library.Recent.List(ctx)) {
		rows = append(rows, homeRow{kind: rowRecent, item: item})
	}
	for _, f := range favs {
		rows = append(rows, homeRow{kind: rowFavorite, item: f.Media})
	}
	m.home = rows

	if item, ok := m.Nav.CurrentMediaItem(); ok {
		if _, exists := m.Library.Media.GetByID(item.SourceID, item.ID); !exists && m.Nav.Current() == navigation.ViewMediaDetail {
			m.Nav.SetCurrentMediaItem(nil)
			m.Nav.Replace(navigation.ViewNotFound)
		}
	}

	m.recompute()
}

// recompute re-ranks the items of the current browse view.
func (m *Model) recompute() {
	kind, ok := m.Nav.Current().Kind()
	if !ok {
		m.results = nil
		m.clampCursor()
		return
	}
	m.results = search.Rank(m.query, m.browseItems(kind))
	m.clampCursor()
}

// browseItems lists what a browse view shows: the live view needs a valid
// source, films and series fall back to every active source.
func (m *Model) browseItems(kind domain.MediaKind) []domain.MediaRecord {
	if kind == domain.MediaKindLive {
		if m.Nav.ValidateCurrentSource() != nil {
			return nil
		}
		return m.Library.Items(m.Nav.CurrentSourceID(), kind)
	}
	if m.Nav.HasValidCurrentSource() {
		return m.Library.Items(m.Nav.CurrentSourceID(), kind)
	}

	var out []domain.MediaRecord
	for _, src := range m.Library.Sources.Active() {
		out = append(out, m.Library.Items(src.ID, kind)...)
	}
	return out
}

func (m *Model) rowCount() int {
	switch m.Nav.Current() {
	case navigation.ViewHome:
		return len(m.home)
	case navigation.ViewLive, navigation.ViewFilms, navigation.ViewSeries:
		return len(m.results)
	default:
		return 0
	}
}

func (m *Model) moveCursor(delta int) {
	v := m.Nav.Current()
	m.cursors[v] += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	v := m.Nav.Current()
	n := m.rowCount()
	c := m.cursors[v]
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	m.cursors[v] = c
}

func (m Model) cursor() int { return m.cursors[m.Nav.Current()] }

func (m Model) pageSize() int {
	if n := m.listHeight(); n > 1 {
		return n - 1
	}
	return 1
}

func (m Model) selectedRow() (homeRow, bool) {
	if m.Nav.Current() != navigation.ViewHome || len(m.home) == 0 {
		return homeRow{}, false
	}
	return m.home[m.cursor()], true
}

// selectedItem returns the media record under the cursor, or the one on
// the detail screen.
func (m Model) selectedItem() (domain.MediaRecord, bool) {
	switch m.Nav.Current() {
	case navigation.ViewHome:
		row, ok := m.selectedRow()
		if !ok || row.kind == rowSource {
			return domain.MediaRecord{}, false
		}
		return row.item, true
	case navigation.ViewMediaDetail:
		return m.Nav.CurrentMediaItem()
	case navigation.ViewLive, navigation.ViewFilms, navigation.ViewSeries:
		if len(m.results) == 0 {
			return domain.MediaRecord{}, false
		}
		return m.results[m.cursor()].Record, true
	}
	return domain.MediaRecord{}, false
}

// selectedSourceID is the source a refresh applies to.
func (m Model) selectedSourceID() string {
	if m.Nav.Current() == navigation.ViewHome {
		if row, ok := m.selectedRow(); ok && row.kind == rowSource {
			return row.source.ID
		}
		return ""
	}
	if m.Nav.HasValidCurrentSource() {
		return m.Nav.CurrentSourceID()
	}
	return ""
}

func (m Model) isFavorite(item domain.MediaRecord) bool {
	return m.favorites[favoriteKey(item.SourceID, item.ID)]
}

func favoriteKey(sourceID, mediaID string) string {
	return sourceID + "/" + mediaID
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmDelete:
		return m.renderConfirmDelete()
	}

	var body string
	switch v := m.Nav.Current(); v {
	case navigation.ViewHome:
		body = m.renderHome()
	case navigation.ViewLive, navigation.ViewFilms, navigation.ViewSeries:
		body = m.renderBrowser()
	case navigation.ViewMediaDetail:
		body = m.renderDetail()
	default:
		body = m.renderNotFound()
	}

	body = lipgloss.NewStyle().
		Width(m.Width).
		Height(m.Height - ChromeHeight).
		MaxHeight(m.Height - ChromeHeight).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}
