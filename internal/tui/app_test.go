package tui

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviedb/internal/domain"
	"github.com/mmcdole/moviedb/internal/repository"
	"github.com/mmcdole/moviedb/internal/store"
	"github.com/mmcdole/moviedb/internal/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubFetcher serves three popular pages of 20 and one now-playing page
type stubFetcher struct {
	popularErr error
}

func (f *stubFetcher) GetPopular(ctx context.Context, page int) (domain.Page, error) {
	if f.popularErr != nil {
		return domain.Page{}, f.popularErr
	}
	movies := make([]domain.Movie, 20)
	for i := range movies {
		id := page*100 + i
		movies[i] = domain.Movie{ID: id, Title: "Movie " + strconv.Itoa(id), ReleaseDate: "2024-01-01"}
	}
	return domain.Page{Number: page, Movies: movies, TotalPages: 3}, nil
}

func (f *stubFetcher) GetNowPlaying(ctx context.Context, page int) (domain.Page, error) {
	return domain.Page{Number: page, TotalPages: 1, Movies: []domain.Movie{
		{ID: 7, Title: "Dune: Part Two"},
		{ID: 8, Title: "Inside Out 2"},
	}}, nil
}

func (f *stubFetcher) GetMovieDetail(ctx context.Context, id int) (domain.MovieDetail, error) {
	return domain.MovieDetail{Movie: domain.Movie{ID: id, Title: "Movie " + strconv.Itoa(id)}, Runtime: 125}, nil
}

func (f *stubFetcher) GetVideos(ctx context.Context, id int) ([]domain.Video, error) {
	return []domain.Video{{Key: "abc", Site: "YouTube", Type: "Trailer", Official: true}}, nil
}

type recordingLauncher struct {
	mu   sync.Mutex
	urls []string
}

func (l *recordingLauncher) Launch(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.urls = append(l.urls, url)
	return nil
}

func (l *recordingLauncher) launched() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.urls...)
}

// harness runs commands on goroutines and feeds their messages back into
// the model. Spinner ticks are dropped so the loop can go idle.
type harness struct {
	t     *testing.T
	model Model
	msgs  chan tea.Msg
	quit  bool
}

func newHarness(t *testing.T, f *stubFetcher, launcher *recordingLauncher, opts Options) *harness {
	t.Helper()
	s, err := store.NewFavoriteStore("", quiet)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		s.Close()
	})

	var l viewmodel.Launcher
	if launcher != nil {
		l = launcher
	}
	m := NewModel(ctx, repository.New(f, s, quiet), l, quiet, opts)
	h := &harness{t: t, model: m, msgs: make(chan tea.Msg, 256)}
	h.deliver(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.exec(m.Init())
	return h
}

func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		if msg := cmd(); msg != nil {
			h.msgs <- msg
		}
	}()
}

func (h *harness) deliver(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, cmd := range msg {
			h.exec(cmd)
		}
		return
	case spinner.TickMsg:
		return
	case tea.QuitMsg:
		h.quit = true
		return
	}
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	h.exec(cmd)
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		switch k {
		case "enter":
			h.deliver(tea.KeyMsg{Type: tea.KeyEnter})
		case "esc":
			h.deliver(tea.KeyMsg{Type: tea.KeyEsc})
		case "tab":
			h.deliver(tea.KeyMsg{Type: tea.KeyTab})
		case "shift+tab":
			h.deliver(tea.KeyMsg{Type: tea.KeyShiftTab})
		default:
			h.deliver(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

func (h *harness) until(cond func(Model) bool, why string) {
	h.t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond(h.model) {
		select {
		case msg := <-h.msgs:
			h.deliver(msg)
		case <-deadline:
			h.t.Fatalf("timed out waiting for %s", why)
		}
	}
}

func popularLoaded(n int) func(Model) bool {
	return func(m Model) bool {
		st := m.List().Popular
		return len(st.Movies) == n && !st.InFlight
	}
}

func TestModel_LoadsFeedsOnInit(t *testing.T) {
	h := newHarness(t, &stubFetcher{}, nil, Options{})
	h.until(popularLoaded(20), "first popular page")
	h.until(func(m Model) bool { return len(m.List().NowPlaying.Movies) == 2 }, "now playing")

	assert.Equal(t, domain.FeedPopular, h.model.List().ActiveTab)
	assert.Contains(t, h.model.View(), "Movie 100")
}

func TestModel_DefaultFeedOption(t *testing.T) {
	h := newHarness(t, &stubFetcher{}, nil, Options{DefaultFeed: domain.FeedNowPlaying})
	h.until(func(m Model) bool { return m.List().ActiveTab == domain.FeedNowPlaying }, "start tab")
}

func TestModel_ScrollingNearEndPaginates(t *testing.T) {
	h := newHarness(t, &stubFetcher{}, nil, Options{PrefetchThreshold: 5})
	h.until(popularLoaded(20), "first page")

	for i := 0; i < 14; i++ {
		h.press("j")
	}
	assert.Equal(t, 14, h.model.Cursor())
	assert.False(t, h.model.List().Popular.InFlight, "still outside the threshold")

	h.press("j")
	h.until(popularLoaded(40), "second page")
	assert.Equal(t, 3, h.model.List().Popular.Page)
	assert.Equal(t, 15, h.model.Cursor())
}

func TestModel_TabKeys(t *testing.T) {
	h := newHarness(t, &stubFetcher{}, nil, Options{})
	h.until(popularLoaded(20), "first page")

	h.press("2")
	assert.Equal(t, domain.FeedNowPlaying, h.model.List().ActiveTab)
	h.press("tab")
	assert.Equal(t, domain.FeedFavorites, h.model.List().ActiveTab)
	h.press("tab")
	assert.Equal(t, domain.FeedPopular, h.model.List().ActiveTab)
	h.press("shift+tab")
	assert.Equal(t, domain.FeedFavorites, h.model.List().ActiveTab)
	assert.Contains(t, h.model.View(), "No favorites yet")
}

func TestModel_FilterNarrowsRows(t *testing.T) {
	h := newHarness(t, &stubFetcher{}, nil, Options{})
	h.until(func(m Model) bool { return len(m.List().NowPlaying.Movies) == 2 }, "now playing")

	h.press("2", "/", "dune", "enter")
	rows := h.model.visible()
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].Movie.ID)

	h.press("esc")
	assert.Len(t, h.model.visible(), 2)
}

func TestModel_DetailFavoriteAndTrailer(t *testing.T) {
	launcher := &recordingLauncher{}
	h := newHarness(t, &stubFetcher{}, launcher, Options{})
	h.until(popularLoaded(20), "first page")

	h.press("j", "enter")
	h.until(func(m Model) bool {
		st, ok := m.Detail()
		return ok && st.Detail != nil
	}, "detail loaded")
	st, _ := h.model.Detail()
	assert.Equal(t, 101, st.Detail.ID)
	assert.Contains(t, h.model.View(), "2h 05m")

	h.press("f")
	h.until(func(m Model) bool {
		st, _ := m.Detail()
		return st.IsFavorite && len(m.List().Favorites) == 1
	}, "favorite stored")
	assert.Equal(t, 101, h.model.List().Favorites[0].ID)

	h.press("t")
	h.until(func(m Model) bool {
		st, _ := m.Detail()
		return !st.TrailerLoading && len(launcher.launched()) == 1
	}, "trailer launched")
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", launcher.launched()[0])

	h.press("esc")
	_, open := h.model.Detail()
	assert.False(t, open)
}

func TestModel_ErrorShowsStatus(t *testing.T) {
	h := newHarness(t, &stubFetcher{popularErr: domain.HTTPFailure("popular", 500, "")}, nil, Options{})
	h.until(func(m Model) bool { return m.StatusMsg != "" }, "error status")

	assert.True(t, h.model.StatusIsErr)
	assert.Contains(t, h.model.StatusMsg, "500")
	assert.Empty(t, h.model.List().Popular.Movies)
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, &stubFetcher{}, nil, Options{})
	h.press("q")
	h.until(func(Model) bool { return h.quit }, "quit")
}

func TestShiftFeed(t *testing.T) {
	assert.Equal(t, domain.FeedNowPlaying, shiftFeed(domain.FeedPopular, 1))
	assert.Equal(t, domain.FeedFavorites, shiftFeed(domain.FeedPopular, -1))
	assert.Equal(t, domain.FeedPopular, shiftFeed(domain.FeedFavorites, 1))
}
