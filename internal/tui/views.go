package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviedb/internal/domain"
	"github.com/mmcdole/moviedb/internal/tui/styles"
	"github.com/mmcdole/moviedb/internal/viewmodel"
)

// View renders the application
func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	var body string
	if m.detail != nil {
		body = m.renderDetail(m.detail.State())
	} else {
		body = m.renderList()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderTabs() string {
	active := m.list.State().ActiveTab
	tabs := make([]string, 0, len(domain.Feeds))
	for i, f := range domain.Feeds {
		label := fmt.Sprintf("%d %s", i+1, f.Title())
		if f == active {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n"
}

func (m Model) renderList() string {
	st := m.list.State()
	rows := m.visible()
	height := m.pageSize()

	var b strings.Builder
	if m.editing || m.query != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
		height--
	}

	if len(rows) == 0 {
		switch {
		case m.query != "":
			b.WriteString(styles.DimStyle.Render("  No matches"))
		case st.ActiveTab == domain.FeedFavorites:
			b.WriteString(styles.DimStyle.Render("  No favorites yet. Press f on a movie to add it."))
		default:
			b.WriteString(styles.DimStyle.Render("  Nothing loaded"))
		}
		return b.String()
	}

	favorites := make(map[int]bool, len(st.Favorites))
	for _, mv := range st.Favorites {
		favorites[mv.ID] = true
	}

	cursor := m.cursor[st.ActiveTab]
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(len(rows), start+height)

	width := m.Width - 4
	for i := start; i < end; i++ {
		row := rows[i]
		selected := i == cursor

		base := styles.NormalItemStyle.UnsetPadding()
		if selected {
			base = styles.SelectedItemStyle.UnsetPadding()
		}

		title := styles.Truncate(row.Movie.Title, max(10, width-24))
		line := styles.Highlight(title, row.MatchedIndexes, base)
		if y := row.Movie.Year(); y > 0 {
			line += base.Render(fmt.Sprintf(" (%d)", y))
		}
		line += " " + styles.RatingStyle.Render(fmt.Sprintf("★ %.1f", row.Movie.VoteAverage))
		if favorites[row.Movie.ID] {
			line += " " + styles.FavoriteMark
		}

		if selected {
			b.WriteString(styles.AccentStyle.Render("› ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if fs := feedState(st); fs != nil && m.query == "" {
		switch {
		case fs.InFlight:
			b.WriteString(m.spinner.View() + styles.DimStyle.Render(" loading more..."))
		case fs.Exhausted():
			b.WriteString(styles.DimStyle.Render("  end of list"))
		}
	}
	return b.String()
}

func feedState(st viewmodel.ListState) *viewmodel.FeedState {
	switch st.ActiveTab {
	case domain.FeedPopular:
		return &st.Popular
	case domain.FeedNowPlaying:
		return &st.NowPlaying
	}
	return nil
}

func (m Model) renderDetail(st viewmodel.DetailState) string {
	width := max(20, m.Width-6)

	if st.Detail == nil {
		if st.IsLoading {
			return styles.DetailStyle.Width(width).Render(m.spinner.View() + " Loading details...")
		}
		msg := st.Error
		if msg == "" {
			msg = "No details"
		}
		return styles.DetailStyle.Width(width).Render(styles.ErrorStyle.Render(msg))
	}

	d := st.Detail
	var lines []string

	title := styles.TitleStyle.Render(d.Title)
	if y := d.Year(); y > 0 {
		title += styles.SubtitleStyle.Render(fmt.Sprintf(" (%d)", y))
	}
	if st.IsFavorite {
		title += " " + styles.FavoriteMark
	}
	lines = append(lines, title)

	if d.Tagline != "" {
		lines = append(lines, styles.DimStyle.Render(d.Tagline))
	}
	lines = append(lines, "")

	var facts []string
	if rt := d.FormattedRuntime(); rt != "" {
		facts = append(facts, rt)
	}
	if g := d.GenreNames(); g != "" {
		facts = append(facts, g)
	}
	facts = append(facts, styles.RatingStyle.Render(fmt.Sprintf("★ %.1f", d.VoteAverage))+styles.DimStyle.Render(fmt.Sprintf(" (%d votes)", d.VoteCount)))
	lines = append(lines, strings.Join(facts, styles.DimStyle.Render(" · ")))
	lines = append(lines, styles.SubtitleStyle.Render("Popularity: ")+d.PopularityCategory())
	if d.Status != "" {
		lines = append(lines, styles.SubtitleStyle.Render("Status: ")+d.Status)
	}
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Width(width-4).Render(d.Overview))

	if st.TrailerLoading {
		lines = append(lines, "", m.spinner.View()+" Starting trailer...")
	}
	if st.Error != "" {
		lines = append(lines, "", styles.ErrorStyle.Render(st.Error))
	}

	return styles.DetailStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	var left string
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	} else if m.list.State().IsLoading {
		left = m.spinner.View() + " " + styles.DimStyle.Render("Loading...")
	}

	bindings := m.keys.ListHelp()
	if m.detail != nil {
		bindings = m.keys.DetailHelp()
	}
	right := renderHelp(bindings)

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + left + strings.Repeat(" ", gap) + right
}

func renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
