package viewmodel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviedb/internal/domain"
	"github.com/mmcdole/moviedb/internal/repository"
	"github.com/mmcdole/moviedb/internal/store"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type updater[M any] interface {
	Update(tea.Msg) (M, tea.Cmd)
}

// driver runs a model the way the Bubble Tea event loop does: commands run
// on their own goroutines and their messages are fed back through Update one
// at a time.
type driver[M updater[M]] struct {
	t      *testing.T
	model  M
	msgs   chan tea.Msg
	errors []ErrorMsg
}

func newDriver[M updater[M]](t *testing.T, model M) *driver[M] {
	return &driver[M]{t: t, model: model, msgs: make(chan tea.Msg, 256)}
}

func (d *driver[M]) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		if msg := cmd(); msg != nil {
			d.msgs <- msg
		}
	}()
}

func (d *driver[M]) deliver(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, cmd := range msg {
			d.exec(cmd)
		}
		return
	case ErrorMsg:
		d.errors = append(d.errors, msg)
		return
	}
	var cmd tea.Cmd
	d.model, cmd = d.model.Update(msg)
	d.exec(cmd)
}

// send dispatches an action synchronously
func (d *driver[M]) send(msg tea.Msg) {
	d.deliver(msg)
}

// until pumps messages until cond holds
func (d *driver[M]) until(cond func(M) bool, why string) {
	d.t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond(d.model) {
		select {
		case msg := <-d.msgs:
			d.deliver(msg)
		case <-deadline:
			d.t.Fatalf("timed out waiting for %s", why)
		}
	}
}

// settle pumps messages until none arrive for a short while
func (d *driver[M]) settle() {
	for {
		select {
		case msg := <-d.msgs:
			d.deliver(msg)
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

// fakeFetcher serves scripted pages per feed
type fakeFetcher struct {
	mu         sync.Mutex
	popular    map[int]domain.Page
	nowPlaying map[int]domain.Page
	err        error
	gate       chan struct{} // when set, page fetches block until closed
	detailGate chan struct{}
	videos     []domain.Video
	calls      atomic.Int32
}

func (f *fakeFetcher) serve(pages map[int]domain.Page, page int) (domain.Page, error) {
	f.calls.Add(1)
	f.mu.Lock()
	gate, err := f.gate, f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return domain.Page{}, err
	}
	p, ok := pages[page]
	if !ok {
		return domain.Page{Number: page, Movies: []domain.Movie{}}, nil
	}
	return p, nil
}

func (f *fakeFetcher) GetPopular(ctx context.Context, page int) (domain.Page, error) {
	return f.serve(f.popular, page)
}

func (f *fakeFetcher) GetNowPlaying(ctx context.Context, page int) (domain.Page, error) {
	return f.serve(f.nowPlaying, page)
}

func (f *fakeFetcher) GetMovieDetail(ctx context.Context, id int) (domain.MovieDetail, error) {
	if f.detailGate != nil {
		<-f.detailGate
	}
	if id == 404 {
		return domain.MovieDetail{}, domain.HTTPFailure("detail", 404, "")
	}
	return domain.MovieDetail{Movie: domain.Movie{ID: id, Title: "Movie " + strconv.Itoa(id)}, Runtime: 100}, nil
}

func (f *fakeFetcher) GetVideos(ctx context.Context, id int) ([]domain.Video, error) {
	return f.videos, nil
}

// countingRepo counts page requests reaching the repository
type countingRepo struct {
	domain.MovieRepository
	popular    atomic.Int32
	nowPlaying atomic.Int32
}

func (r *countingRepo) GetPopular(ctx context.Context, page int) <-chan domain.Result[domain.Page] {
	r.popular.Add(1)
	return r.MovieRepository.GetPopular(ctx, page)
}

func (r *countingRepo) GetNowPlaying(ctx context.Context, page int) <-chan domain.Result[domain.Page] {
	r.nowPlaying.Add(1)
	return r.MovieRepository.GetNowPlaying(ctx, page)
}

type fixture struct {
	fetcher *fakeFetcher
	store   domain.FavoriteStore
	repo    *countingRepo
	ctx     context.Context
	cancel  context.CancelFunc
}

func newFixture(t *testing.T, f *fakeFetcher) *fixture {
	t.Helper()
	s, err := store.NewFavoriteStore("", quiet)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		s.Close()
	})
	return &fixture{
		fetcher: f,
		store:   s,
		repo:    &countingRepo{MovieRepository: repository.New(f, s, quiet)},
		ctx:     ctx,
		cancel:  cancel,
	}
}

func movies(ids ...int) []domain.Movie {
	out := make([]domain.Movie, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Movie{ID: id, Title: "Movie " + strconv.Itoa(id)})
	}
	return out
}

func movieIDs(ms []domain.Movie) []int {
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

// fakeLauncher records launched URLs
type fakeLauncher struct {
	mu   sync.Mutex
	urls []string
	fail bool
}

func (l *fakeLauncher) Launch(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("exec: mpv: not found")
	}
	l.urls = append(l.urls, url)
	return nil
}

func (l *fakeLauncher) launched() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.urls...)
}
