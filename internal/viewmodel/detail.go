package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviedb/internal/domain"
)

// Launcher opens a trailer URL in an external player
type Launcher interface {
	Launch(url string) error
}

// DetailState is the read-only view of the detail model
type DetailState struct {
	Detail         *domain.MovieDetail
	IsFavorite     bool
	IsLoading      bool
	Error          string // Last failure, cleared by the next fetch
	TrailerLoading bool
}

var detailInstances atomic.Int64

// DetailModel drives one movie's detail screen. Each instance owns a context;
// messages from other instances are ignored.
type DetailModel struct {
	instance int
	ctx      context.Context
	cancel   context.CancelFunc
	repo     domain.MovieRepository
	launcher Launcher
	logger   *slog.Logger

	toggleMu    *sync.Mutex
	favoriteIDs map[int]struct{}
	movieID     int
	state       DetailState
}

// NewDetailModel creates a detail model bound to a child of parent.
// launcher may be nil, in which case trailers cannot be played.
func NewDetailModel(parent context.Context, repo domain.MovieRepository, launcher Launcher, logger *slog.Logger) DetailModel {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	return DetailModel{
		instance:    int(detailInstances.Add(1)),
		ctx:         ctx,
		cancel:      cancel,
		repo:        repo,
		launcher:    launcher,
		logger:      logger,
		toggleMu:    &sync.Mutex{},
		favoriteIDs: map[int]struct{}{},
	}
}

// Init starts the favorites projection used to derive IsFavorite
func (m DetailModel) Init() tea.Cmd {
	instance := m.instance
	return subscribeFavoritesCmd(m.ctx, m.repo, func(movies []domain.Movie, closed bool, next tea.Cmd) tea.Msg {
		ids := make(map[int]struct{}, len(movies))
		for _, mv := range movies {
			ids[mv.ID] = struct{}{}
		}
		return favoriteIDsMsg{instance: instance, ids: ids, closed: closed, next: next}
	})
}

// Close cancels in-flight work and the favorites subscription
func (m DetailModel) Close() {
	m.cancel()
}

// State returns a copy of the current state
func (m DetailModel) State() DetailState {
	st := m.state
	if st.Detail != nil {
		d := *st.Detail
		d.Genres = append([]domain.Genre(nil), d.Genres...)
		st.Detail = &d
	}
	return st
}

func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case FetchDetailMsg:
		return m.fetch(msg.ID)

	case ToggleFavoriteMsg:
		return m.toggle(msg.Detail)

	case PlayTrailerMsg:
		return m.playTrailer()

	case detailMsg:
		if msg.instance != m.instance {
			return m, nil
		}
		return m.applyDetail(msg)

	case favoriteIDsMsg:
		if msg.instance != m.instance || msg.closed {
			return m, nil
		}
		m.favoriteIDs = msg.ids
		if m.state.Detail != nil {
			m.state.IsFavorite = m.isFavorite(m.state.Detail.ID)
		}
		return m, msg.next

	case favoriteToggledMsg:
		if msg.instance != m.instance {
			return m, nil
		}
		return m.applyToggle(msg)

	case trailerMsg:
		if msg.instance != m.instance {
			return m, nil
		}
		return m.applyTrailer(msg)

	case trailerLaunchedMsg:
		if msg.instance != m.instance {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Error("failed to launch trailer", "url", msg.url, "error", msg.err)
			m.state.Error = "Could not start the player"
			return m, notifyCmd("trailer", m.state.Error)
		}
		m.logger.Info("trailer launched", "url", msg.url)
		return m, nil
	}
	return m, nil
}

func (m DetailModel) isFavorite(id int) bool {
	_, ok := m.favoriteIDs[id]
	return ok
}

func (m DetailModel) fetch(id int) (DetailModel, tea.Cmd) {
	m.movieID = id
	m.state.IsLoading = true
	m.state.Error = ""

	instance, repo := m.instance, m.repo
	return m, streamCmd(m.ctx, func(ctx context.Context) <-chan domain.Result[domain.MovieDetail] {
		return repo.GetMovieDetail(ctx, id)
	}, func(res domain.Result[domain.MovieDetail], next tea.Cmd) tea.Msg {
		return detailMsg{instance: instance, movieID: id, result: res, next: next}
	})
}

func (m DetailModel) applyDetail(msg detailMsg) (DetailModel, tea.Cmd) {
	if msg.movieID != m.movieID {
		// Superseded by a later fetch
		return m, nil
	}
	if !msg.result.Terminal() {
		return m, msg.next
	}

	m.state.IsLoading = false
	if m.ctx.Err() != nil {
		return m, nil
	}

	if msg.result.Kind == domain.ResultSuccess {
		d := msg.result.Data
		m.state.Detail = &d
		m.state.IsFavorite = m.isFavorite(d.ID)
		return m, nil
	}
	m.state.Error = msg.result.Message
	m.logger.Warn("detail fetch failed", "movieID", msg.movieID, "message", msg.result.Message)
	return m, notifyCmd("detail", msg.result.Message)
}

// toggle flips the favorite flag. While a toggle is running, further
// requests are dropped.
func (m DetailModel) toggle(detail domain.MovieDetail) (DetailModel, tea.Cmd) {
	if !m.toggleMu.TryLock() {
		m.logger.Debug("favorite toggle already running", "movieID", detail.ID)
		return m, nil
	}

	add := !m.state.IsFavorite
	if m.state.Detail == nil || m.state.Detail.ID != detail.ID {
		add = !m.isFavorite(detail.ID)
	}
	instance, repo, rec := m.instance, m.repo, detail.FavoriteRecord()

	return m, func() (msg tea.Msg) {
		defer func() {
			if p := recover(); p != nil {
				msg = favoriteToggledMsg{instance: instance, movieID: rec.ID, err: fmt.Errorf("favorite toggle panicked: %v", p)}
			}
		}()
		if add {
			repo.AddFavorite(rec)
		} else {
			repo.RemoveFavorite(rec)
		}
		return favoriteToggledMsg{instance: instance, movieID: rec.ID, favorite: add}
	}
}

func (m DetailModel) applyToggle(msg favoriteToggledMsg) (DetailModel, tea.Cmd) {
	defer m.toggleMu.Unlock()

	if msg.err != nil {
		m.logger.Error("favorite toggle failed", "movieID", msg.movieID, "error", msg.err)
		m.state.Error = "Could not update favorites"
		return m, notifyCmd("favorites", m.state.Error)
	}
	if m.state.Detail != nil && m.state.Detail.ID == msg.movieID {
		m.state.IsFavorite = msg.favorite
	}
	return m, nil
}

func (m DetailModel) playTrailer() (DetailModel, tea.Cmd) {
	if m.state.Detail == nil || m.state.TrailerLoading {
		return m, nil
	}
	m.state.TrailerLoading = true

	instance, repo, id := m.instance, m.repo, m.state.Detail.ID
	return m, streamCmd(m.ctx, func(ctx context.Context) <-chan domain.Result[domain.Video] {
		return repo.GetTrailer(ctx, id)
	}, func(res domain.Result[domain.Video], next tea.Cmd) tea.Msg {
		return trailerMsg{instance: instance, result: res, next: next}
	})
}

func (m DetailModel) applyTrailer(msg trailerMsg) (DetailModel, tea.Cmd) {
	if !msg.result.Terminal() {
		return m, msg.next
	}
	m.state.TrailerLoading = false
	if m.ctx.Err() != nil {
		return m, nil
	}

	if msg.result.Kind != domain.ResultSuccess {
		return m, notifyCmd("trailer", msg.result.Message)
	}
	if m.launcher == nil {
		return m, notifyCmd("trailer", "No player configured")
	}

	instance, launcher, url := m.instance, m.launcher, msg.result.Data.URL()
	return m, func() tea.Msg {
		return trailerLaunchedMsg{instance: instance, url: url, err: launcher.Launch(url)}
	}
}
