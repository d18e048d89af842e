package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/navigation"
	"github.com/mmcdole/wizju/internal/search"
	"github.com/mmcdole/wizju/internal/tui/styles"
)

var tabs = []navigation.View{
	navigation.ViewHome,
	navigation.ViewLive,
	navigation.ViewFilms,
	navigation.ViewSeries,
}

// listHeight is the number of list rows that fit under a view title.
func (m Model) listHeight() int {
	h := m.Height - ChromeHeight - 2
	if h < 1 {
		return 1
	}
	return h
}

// renderHeader renders the view tabs and the selected source
func (m Model) renderHeader() string {
	current := m.Nav.Current()
	parts := make([]string, 0, len(tabs))
	for i, v := range tabs {
		label := fmt.Sprintf("%d %s", i+1, v)
		if v == current {
			parts = append(parts, styles.AccentStyle.Bold(true).Render(label))
		} else {
			parts = append(parts, styles.DimStyle.Render(label))
		}
	}
	left := strings.Join(parts, styles.DimStyle.Render("  │  "))

	right := ""
	if src, ok := m.Nav.CurrentSource(); ok {
		right = styles.SubtitleStyle.Render(src.Name)
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderHome() string {
	if m.Library.Sources.IsFirstTime() {
		return styles.PanelStyle.Render(
			styles.TitleStyle.Render("Welcome to wizju") + "\n\n" +
				styles.SubtitleStyle.Render("No sources yet. Import an M3U playlist with:") + "\n\n" +
				styles.AccentStyle.Render("  wizju import <name> <url>"),
		)
	}

	lines := make([]string, 0, len(m.home)+3)
	cursor := m.cursor()
	var section rowKind = -1
	for i, row := range m.home {
		if row.kind != section {
			section = row.kind
			lines = append(lines, sectionTitle(section))
		}
		lines = append(lines, m.renderHomeRow(row, i == cursor))
	}

	return strings.Join(window(lines, m.homeLineOf(cursor), m.Height-ChromeHeight), "\n")
}

// homeLineOf maps a row index to its rendered line, counting section titles.
func (m Model) homeLineOf(rowIdx int) int {
	line := 0
	var section rowKind = -1
	for i, row := range m.home {
		if row.kind != section {
			section = row.kind
			line++
		}
		if i == rowIdx {
			return line
		}
		line++
	}
	return line
}

func sectionTitle(k rowKind) string {
	switch k {
	case rowSource:
		return styles.SectionStyle.Render("Sources")
	case rowRecent:
		return styles.SectionStyle.Render("Continue watching")
	default:
		return styles.SectionStyle.Render("Favorites")
	}
}

func (m Model) renderHomeRow(row homeRow, selected bool) string {
	var text string
	switch row.kind {
	case rowSource:
		dot := styles.InactiveDot
		if row.source.IsActive {
			dot = styles.ActiveDot
		}
		count := m.Library.Media.Count(row.source.ID)
		text = fmt.Sprintf("%s %s  %s", dot, row.source.Name,
			styles.DimStyle.Render(fmt.Sprintf("%d items · %d categories", count, len(row.source.Categories))))
	default:
		text = row.item.Title
		if info := row.item.Description; info != "" {
			text += "  " + styles.DimStyle.Render(info)
		}
		if row.item.TimeRemaining != "" {
			text += styles.DimStyle.Render(" · " + row.item.TimeRemaining)
		}
	}

	text = truncate(text, m.Width-4)
	if selected {
		return styles.SelectedItemStyle.Render(text)
	}
	return styles.NormalItemStyle.Render(text)
}

func (m Model) renderBrowser() string {
	kind, _ := m.Nav.Current().Kind()

	var title string
	if m.State == StateFiltering {
		title = m.filter.View()
	} else if m.query != "" {
		title = styles.AccentStyle.Render("/ "+m.query) + styles.DimStyle.Render(fmt.Sprintf("  %d matches", len(m.results)))
	} else {
		title = styles.TitleStyle.Render(m.Nav.Current().String()) + styles.DimStyle.Render(fmt.Sprintf("  %d items", len(m.results)))
	}

	if kind == domain.MediaKindLive {
		if err := m.Nav.ValidateCurrentSource(); err != nil {
			return title + "\n\n" + styles.DimStyle.Render("  "+capitalize(err.Error())+". Pick a source on the home view (1).")
		}
	}
	if len(m.results) == 0 {
		return title + "\n\n" + styles.DimStyle.Render("  Nothing here")
	}

	cursor := m.cursor()
	lines := make([]string, len(m.results))
	for i, r := range m.results {
		lines[i] = m.renderResult(r, i == cursor)
	}
	return title + "\n\n" + strings.Join(window(lines, cursor, m.listHeight()), "\n")
}

func (m Model) renderResult(r search.Result, selected bool) string {
	item := r.Record
	name := highlight(item.Title, r.MatchedIndexes, selected)
	if m.isFavorite(item) {
		name = styles.FavoriteStar + " " + name
	}
	sub := styles.DimStyle.Render(item.Subtitle())

	text := truncate(name+"  "+sub, m.Width-4)
	if selected {
		return styles.SelectedItemStyle.Render(text)
	}
	return styles.NormalItemStyle.Render(text)
}

func (m Model) renderDetail() string {
	item, ok := m.Nav.CurrentMediaItem()
	if !ok {
		return m.renderNotFound()
	}

	var b strings.Builder
	title := item.Title
	if m.isFavorite(item) {
		title = styles.FavoriteStar + " " + title
	}
	b.WriteString(styles.TitleStyle.Render(title) + "\n")
	b.WriteString(styles.SubtitleStyle.Render(item.Subtitle()) + "\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%-10s", label)) + value + "\n")
	}
	field("Category", item.Category)
	field("Kind", string(item.Type))
	field("Duration", item.Duration)
	if item.Rating > 0 {
		field("Rating", fmt.Sprintf("%.1f", item.Rating))
	}
	if src, ok := m.Library.Sources.GetByID(item.SourceID); ok {
		field("Source", src.Name)
	}
	field("Stream", item.URL)

	if prev, ok := m.Library.Recent.Find(context.Background(), item.ID, item.SourceID); ok && prev.LastPosition != nil && *prev.LastPosition > 0 {
		b.WriteString("\n" + styles.AccentStyle.Render("Resume from "+formatPosition(*prev.LastPosition)) + "\n")
	}

	if item.Description != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(m.Width-6).Render(item.Description) + "\n")
	}

	b.WriteString("\n" + helpHints("enter", "play", "p", "from start", "f", "favorite", "h", "back"))
	return styles.PanelStyle.Render(b.String())
}

func (m Model) renderNotFound() string {
	return styles.PanelStyle.Render(
		styles.ErrorStyle.Render("Not found") + "\n\n" +
			styles.DimStyle.Render("The item you were looking at no longer exists. Press enter to go home."),
	)
}

// renderFooter renders the status line
func (m Model) renderFooter() string {
	var left string
	if m.Loading {
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Working...")
	} else if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	}

	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      ACTIONS
  j/k        Up/down               Enter  Open / play (resume)
  h/l        Back/open             p      Play from start
  ]          Forward               f      Toggle favorite
  g/G        First/last item       r      Refresh source
  PgUp/PgDn  Scroll page           a      Enable/disable source
                                   x      Delete source
VIEWS                           OTHER
  1  Home    2  Live               /      Filter
  3  Films   4  Series             q      Quit

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

func (m Model) renderConfirmDelete() string {
	name := m.pendingDelete
	if src, ok := m.Library.Sources.GetByID(m.pendingDelete); ok {
		name = src.Name
	}
	modal := styles.ModalTitleStyle.Render("Delete source?") + "\n" +
		styles.SubtitleStyle.Render(name) + "\n\n" +
		styles.DimStyle.Render("Its media, favorites and history are removed too.") + "\n\n" +
		helpHints("y", "delete", "n", "cancel")

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	return styles.SpinnerStyle.Render(styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])
}

func helpHints(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, styles.HelpKeyStyle.Render(pairs[i])+" "+styles.HelpDescStyle.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}

// window returns at most height lines around the cursor line.
func window(lines []string, cursor, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

// highlight renders the matched byte positions of s in the match style.
func highlight(s string, matched []int, selected bool) string {
	if len(matched) == 0 {
		return s
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}
	style := styles.MatchStyle
	if selected {
		style = style.Background(styles.SlateLight)
	}

	var b strings.Builder
	for i, r := range s {
		if set[i] {
			b.WriteString(style.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// truncate shortens s to width display cells.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func formatPosition(seconds float64) string {
	total := int(seconds)
	h, mnt, sec := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, sec)
	}
	return fmt.Sprintf("%d:%02d", mnt, sec)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
