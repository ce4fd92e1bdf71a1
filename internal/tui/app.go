package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviedb/internal/domain"
	"github.com/mmcdole/moviedb/internal/search"
	"github.com/mmcdole/moviedb/internal/tui/styles"
	"github.com/mmcdole/moviedb/internal/viewmodel"
)

// Options configures the application model
type Options struct {
	DefaultFeed       domain.Feed
	PrefetchThreshold int
}

// ClearStatusMsg clears the footer status line
type ClearStatusMsg struct{ seq int }

// Model is the main Bubble Tea model for the application. It owns the
// list view-model and, while a movie is open, one detail view-model.
type Model struct {
	ctx      context.Context
	repo     domain.MovieRepository
	launcher viewmodel.Launcher
	logger   *slog.Logger
	keys     KeyMap

	list     viewmodel.ListModel
	detail   *viewmodel.DetailModel
	initCmd  tea.Cmd
	opts     Options
	cursor   map[domain.Feed]int
	filter   textinput.Model
	query    string
	editing  bool
	spinner  spinner.Model
	startTab domain.Feed

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	statusSeq   int
}

// NewModel creates a new application model. Fetching starts when the
// program calls Init.
func NewModel(ctx context.Context, repo domain.MovieRepository, launcher viewmodel.Launcher, logger *slog.Logger, opts Options) Model {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultFeed == "" {
		opts.DefaultFeed = domain.FeedPopular
	}
	if opts.PrefetchThreshold < 1 {
		opts.PrefetchThreshold = 5
	}

	list := viewmodel.NewListModel(ctx, repo, logger)
	initCmd := list.Init()

	fi := textinput.New()
	fi.Prompt = styles.FilterPromptStyle.Render("/ ")
	fi.Placeholder = "filter titles"

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle))

	return Model{
		ctx:      ctx,
		repo:     repo,
		launcher: launcher,
		logger:   logger,
		keys:     DefaultKeyMap(),
		list:     list,
		initCmd:  initCmd,
		opts:     opts,
		cursor:   make(map[domain.Feed]int),
		filter:   fi,
		spinner:  sp,
		startTab: opts.DefaultFeed,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.initCmd, m.spinner.Tick}
	if m.startTab != domain.FeedPopular {
		cmds = append(cmds, func() tea.Msg { return viewmodel.SelectTabMsg{Feed: m.startTab} })
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.filter.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleFilterKey(msg)
		}
		if m.detail != nil {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case viewmodel.ErrorMsg:
		m.logger.Warn("operation failed", "source", msg.Source, "error", msg.Message)
		return m.setStatus(msg.Message, true)

	case ClearStatusMsg:
		if msg.seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	return m.forward(msg)
}

// forward hands a message to the list and the open detail model
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	if m.detail != nil {
		d, cmd := m.detail.Update(msg)
		m.detail = &d
		cmds = append(cmds, cmd)
	}

	m.clampCursor()
	return m, tea.Batch(cmds...)
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusSeq++
	m.StatusMsg = text
	m.StatusIsErr = isErr
	seq := m.statusSeq
	delay := 3 * time.Second
	if isErr {
		delay = 5 * time.Second
	}
	return m, tea.Tick(delay, func(time.Time) tea.Msg { return ClearStatusMsg{seq: seq} })
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := m.list.State().ActiveTab

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab1):
		return m.selectTab(domain.FeedPopular)
	case key.Matches(msg, m.keys.Tab2):
		return m.selectTab(domain.FeedNowPlaying)
	case key.Matches(msg, m.keys.Tab3):
		return m.selectTab(domain.FeedFavorites)
	case key.Matches(msg, m.keys.NextTab):
		return m.selectTab(shiftFeed(active, 1))
	case key.Matches(msg, m.keys.PrevTab):
		return m.selectTab(shiftFeed(active, -1))

	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, m.keys.PageDown):
		return m.moveCursor(m.pageSize())
	case key.Matches(msg, m.keys.Home):
		m.cursor[active] = 0
		return m, nil
	case key.Matches(msg, m.keys.End):
		return m.moveCursor(len(m.visible()))

	case key.Matches(msg, m.keys.Filter):
		m.editing = true
		m.filter.SetValue(m.query)
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Escape):
		if m.query != "" {
			m.query = ""
			m.cursor[active] = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m.openDetail()
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.editing = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.editing = false
		m.filter.Blur()
		m.filter.Reset()
		m.query = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if q := m.filter.Value(); q != m.query {
		m.query = q
		m.cursor[m.list.State().ActiveTab] = 0
	}
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.closeDetail()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.closeDetail()
		return m, nil

	case key.Matches(msg, m.keys.Favorite):
		st := m.detail.State()
		if st.Detail == nil {
			return m, nil
		}
		return m.forwardDetail(viewmodel.ToggleFavoriteMsg{Detail: *st.Detail})

	case key.Matches(msg, m.keys.Trailer):
		return m.forwardDetail(viewmodel.PlayTrailerMsg{})
	}
	return m, nil
}

func (m Model) forwardDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	d, cmd := m.detail.Update(msg)
	m.detail = &d
	return m, cmd
}

func (m Model) selectTab(f domain.Feed) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(viewmodel.SelectTabMsg{Feed: f})
	m.query = ""
	m.filter.Reset()
	return m, cmd
}

// moveCursor moves the selection and requests the next page when the
// selection comes within the prefetch threshold of the end.
func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	st := m.list.State()
	items := m.visible()
	if len(items) == 0 {
		return m, nil
	}

	pos := m.cursor[st.ActiveTab] + delta
	pos = max(0, min(pos, len(items)-1))
	m.cursor[st.ActiveTab] = pos

	if m.query != "" || !st.ActiveTab.Paginated() {
		return m, nil
	}
	if viewmodel.NearEnd(pos, len(items), m.opts.PrefetchThreshold) {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(viewmodel.PaginateMsg{Feed: st.ActiveTab})
		return m, cmd
	}
	return m, nil
}

func (m Model) openDetail() (tea.Model, tea.Cmd) {
	items := m.visible()
	pos := m.cursor[m.list.State().ActiveTab]
	if pos >= len(items) {
		return m, nil
	}
	movie := items[pos].Movie

	m.closeDetail()
	d := viewmodel.NewDetailModel(m.ctx, m.repo, m.launcher, m.logger)
	initCmd := d.Init()
	d, fetchCmd := d.Update(viewmodel.FetchDetailMsg{ID: movie.ID})
	m.detail = &d
	return m, tea.Batch(initCmd, fetchCmd)
}

func (m *Model) closeDetail() {
	if m.detail != nil {
		m.detail.Close()
		m.detail = nil
	}
}

// visible returns the rows of the active tab after filtering
func (m Model) visible() []search.Match {
	st := m.list.State()
	movies := st.Movies(st.ActiveTab)
	if m.query != "" {
		return search.FilterMovies(m.query, movies)
	}
	rows := make([]search.Match, len(movies))
	for i, mv := range movies {
		rows[i] = search.Match{Index: i, Movie: mv}
	}
	return rows
}

// clampCursor keeps selections in range after a feed shrinks
func (m *Model) clampCursor() {
	st := m.list.State()
	for _, f := range domain.Feeds {
		n := len(st.Movies(f))
		if m.cursor[f] >= n {
			m.cursor[f] = max(0, n-1)
		}
	}
}

func (m Model) pageSize() int {
	if h := m.Height - 6; h > 1 {
		return h
	}
	return 10
}

func shiftFeed(cur domain.Feed, delta int) domain.Feed {
	n := len(domain.Feeds)
	for i, f := range domain.Feeds {
		if f == cur {
			return domain.Feeds[((i+delta)%n+n)%n]
		}
	}
	return domain.FeedPopular
}

// Cursor returns the selected row of the active tab
func (m Model) Cursor() int {
	return m.cursor[m.list.State().ActiveTab]
}

// List returns the list state
func (m Model) List() viewmodel.ListState {
	return m.list.State()
}

// Detail returns the open detail state, if any
func (m Model) Detail() (viewmodel.DetailState, bool) {
	if m.detail == nil {
		return viewmodel.DetailState{}, false
	}
	return m.detail.State(), true
}
