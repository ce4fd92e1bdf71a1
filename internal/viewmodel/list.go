// Package viewmodel holds the Elm-style reducers behind the movie list and
// detail screens. Update is the only mutation path; asynchronous work runs
// in tea.Cmds and comes back as messages.
package viewmodel

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviedb/internal/domain"
)

// FeedState is the pagination state of one paginated feed
type FeedState struct {
	Page       int // Next page to request
	Movies     []domain.Movie
	InFlight   bool
	TotalPages int // Last value reported by the server, 0 if unknown
}

// Exhausted reports whether every page the server announced was applied
func (s FeedState) Exhausted() bool {
	return s.TotalPages > 0 && s.Page > s.TotalPages
}

func newFeedState() FeedState {
	return FeedState{Page: 1}
}

func (s FeedState) clone() FeedState {
	s.Movies = append([]domain.Movie(nil), s.Movies...)
	return s
}

// ListState is the read-only view of the list model
type ListState struct {
	Popular    FeedState
	NowPlaying FeedState
	Favorites  []domain.Movie
	IsLoading  bool
	ActiveTab  domain.Feed
}

// Movies returns the list for a feed
func (s ListState) Movies(f domain.Feed) []domain.Movie {
	switch f {
	case domain.FeedPopular:
		return s.Popular.Movies
	case domain.FeedNowPlaying:
		return s.NowPlaying.Movies
	case domain.FeedFavorites:
		return s.Favorites
	default:
		return nil
	}
}

// ListModel drives the popular, now-playing and favorites feeds
type ListModel struct {
	ctx    context.Context
	repo   domain.MovieRepository
	logger *slog.Logger

	popular    FeedState
	nowPlaying FeedState
	favorites  []domain.Movie
	activeTab  domain.Feed
}

// NewListModel creates a list model whose work is bound to ctx. Once ctx is
// done, fetch results are discarded.
func NewListModel(ctx context.Context, repo domain.MovieRepository, logger *slog.Logger) ListModel {
	if logger == nil {
		logger = slog.Default()
	}
	return ListModel{
		ctx:        ctx,
		repo:       repo,
		logger:     logger,
		popular:    newFeedState(),
		nowPlaying: newFeedState(),
		activeTab:  domain.FeedPopular,
	}
}

// Init subscribes to favorites and requests the first page of each feed
func (m *ListModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, subscribeFavoritesCmd(m.ctx, m.repo, listFavoritesMsg))
	cmds = append(cmds, m.paginate(domain.FeedPopular))
	cmds = append(cmds, m.paginate(domain.FeedNowPlaying))
	return tea.Batch(cmds...)
}

// State returns a copy of the current state
func (m ListModel) State() ListState {
	return ListState{
		Popular:    m.popular.clone(),
		NowPlaying: m.nowPlaying.clone(),
		Favorites:  append([]domain.Movie(nil), m.favorites...),
		IsLoading:  m.popular.InFlight || m.nowPlaying.InFlight,
		ActiveTab:  m.activeTab,
	}
}

func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case PaginateMsg:
		cmd := m.paginate(msg.Feed)
		return m, cmd

	case SelectTabMsg:
		return m.selectTab(msg.Feed)

	case pageMsg:
		return m.applyPage(msg)

	case favoritesMsg:
		if msg.closed {
			if !msg.snapshot {
				m.logger.Debug("favorites subscription ended")
			}
			return m, nil
		}
		m.favorites = msg.movies
		return m, msg.next
	}
	return m, nil
}

func (m *ListModel) feed(f domain.Feed) *FeedState {
	switch f {
	case domain.FeedPopular:
		return &m.popular
	case domain.FeedNowPlaying:
		return &m.nowPlaying
	default:
		return nil
	}
}

// paginate starts the next page fetch unless the feed is busy or exhausted
func (m *ListModel) paginate(f domain.Feed) tea.Cmd {
	st := m.feed(f)
	if st == nil || st.InFlight || st.Exhausted() {
		return nil
	}
	st.InFlight = true
	page, repo := st.Page, m.repo
	m.logger.Debug("fetching page", "feed", f, "page", page)

	return streamCmd(m.ctx, func(ctx context.Context) <-chan domain.Result[domain.Page] {
		if f == domain.FeedNowPlaying {
			return repo.GetNowPlaying(ctx, page)
		}
		return repo.GetPopular(ctx, page)
	}, func(res domain.Result[domain.Page], next tea.Cmd) tea.Msg {
		return pageMsg{feed: f, result: res, next: next}
	})
}

func (m ListModel) selectTab(f domain.Feed) (ListModel, tea.Cmd) {
	m.activeTab = f
	if f == domain.FeedFavorites {
		return m, favoritesSnapshotCmd(m.ctx, m.repo)
	}
	// A feed whose first page failed retries when revisited
	if st := m.feed(f); st != nil && len(st.Movies) == 0 {
		return m, m.paginate(f)
	}
	return m, nil
}

func (m ListModel) applyPage(msg pageMsg) (ListModel, tea.Cmd) {
	st := m.feed(msg.feed)
	if st == nil {
		return m, nil
	}
	if !msg.result.Terminal() {
		return m, msg.next
	}

	st.InFlight = false
	if m.ctx.Err() != nil {
		return m, nil
	}

	switch msg.result.Kind {
	case domain.ResultSuccess:
		page := msg.result.Data
		st.Movies = mergeUnique(st.Movies, page.Movies)
		st.Page++
		st.TotalPages = page.TotalPages
		m.logger.Debug("page applied", "feed", msg.feed, "next", st.Page, "count", len(st.Movies))
		return m, nil
	default:
		m.logger.Warn("page fetch failed", "feed", msg.feed, "page", st.Page, "message", msg.result.Message)
		return m, notifyCmd(string(msg.feed), msg.result.Message)
	}
}

func listFavoritesMsg(movies []domain.Movie, closed bool, next tea.Cmd) tea.Msg {
	return favoritesMsg{movies: movies, closed: closed, next: next}
}

// mergeUnique appends incoming movies whose ID is not already present.
// Existing entries keep their position; the first occurrence wins.
func mergeUnique(existing, incoming []domain.Movie) []domain.Movie {
	seen := make(map[int]struct{}, len(existing)+len(incoming))
	out := make([]domain.Movie, 0, len(existing)+len(incoming))
	for _, mv := range existing {
		if _, dup := seen[mv.ID]; dup {
			continue
		}
		seen[mv.ID] = struct{}{}
		out = append(out, mv)
	}
	for _, mv := range incoming {
		if _, dup := seen[mv.ID]; dup {
			continue
		}
		seen[mv.ID] = struct{}{}
		out = append(out, mv)
	}
	return out
}

// NearEnd reports whether index is within threshold items of the end of a
// list of length items. Presentation uses it to decide when to paginate.
func NearEnd(index, length, threshold int) bool {
	if length == 0 {
		return false
	}
	if threshold < 1 {
		threshold = 1
	}
	return index >= length-threshold
}
