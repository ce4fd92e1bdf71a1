package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/mmcdole/moviedb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idle(f domain.Feed) func(ListModel) bool {
	return func(m ListModel) bool {
		if f == domain.FeedNowPlaying {
			return !m.State().NowPlaying.InFlight
		}
		return !m.State().Popular.InFlight
	}
}

func TestListModel_PaginationDeduplicates(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{popular: map[int]domain.Page{
		1: {Number: 1, Movies: movies(1, 2), TotalPages: 10},
		2: {Number: 2, Movies: movies(2, 3), TotalPages: 10},
	}})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.until(idle(domain.FeedPopular), "page 1")
	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.until(idle(domain.FeedPopular), "page 2")

	st := d.model.State()
	assert.Equal(t, []int{1, 2, 3}, movieIDs(st.Popular.Movies))
	assert.Equal(t, 3, st.Popular.Page)
	assert.Equal(t, 10, st.Popular.TotalPages)
	assert.False(t, st.IsLoading)
	assert.Empty(t, d.errors)
}

func TestListModel_OneFetchInFlightPerFeed(t *testing.T) {
	gate := make(chan struct{})
	fx := newFixture(t, &fakeFetcher{
		gate:    gate,
		popular: map[int]domain.Page{1: {Number: 1, Movies: movies(1), TotalPages: 10}},
	})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.send(PaginateMsg{Feed: domain.FeedPopular})

	st := d.model.State()
	assert.True(t, st.Popular.InFlight)
	assert.True(t, st.IsLoading)
	require.Eventually(t, func() bool { return fx.repo.popular.Load() == 1 }, time.Second, 5*time.Millisecond)

	close(gate)
	d.until(idle(domain.FeedPopular), "page 1")
	assert.Equal(t, 2, d.model.State().Popular.Page)
	assert.Equal(t, int32(1), fx.repo.popular.Load())
}

func TestListModel_FeedsFetchConcurrently(t *testing.T) {
	gate := make(chan struct{})
	fx := newFixture(t, &fakeFetcher{gate: gate})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.send(PaginateMsg{Feed: domain.FeedNowPlaying})

	st := d.model.State()
	assert.True(t, st.Popular.InFlight)
	assert.True(t, st.NowPlaying.InFlight)
	require.Eventually(t, func() bool {
		return fx.repo.popular.Load() == 1 && fx.repo.nowPlaying.Load() == 1
	}, time.Second, 5*time.Millisecond)

	close(gate)
	d.until(func(m ListModel) bool { return !m.State().IsLoading }, "both feeds")
}

func TestListModel_ServerErrorClearsLoading(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{err: domain.HTTPFailure("popular", 500, "")})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.until(idle(domain.FeedPopular), "failed page")
	d.settle()

	st := d.model.State()
	assert.False(t, st.IsLoading)
	assert.False(t, st.Popular.InFlight)
	assert.Empty(t, st.Popular.Movies)
	assert.Equal(t, 1, st.Popular.Page, "page does not advance on error")

	require.Len(t, d.errors, 1)
	assert.Equal(t, "popular", d.errors[0].Source)
	assert.Equal(t, "Server error 500 Internal Server Error", d.errors[0].Message)

	// The feed can be retried
	fx.fetcher.mu.Lock()
	fx.fetcher.err = nil
	fx.fetcher.mu.Unlock()
	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.until(idle(domain.FeedPopular), "retry")
	assert.Equal(t, 2, d.model.State().Popular.Page)
}

func TestListModel_PagesAccumulate(t *testing.T) {
	pages := map[int]domain.Page{}
	for p := 1; p <= 4; p++ {
		pages[p] = domain.Page{Number: p, Movies: movies(p*10, p*10+1), TotalPages: 50}
	}
	fx := newFixture(t, &fakeFetcher{nowPlaying: pages})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	for i := 0; i < 4; i++ {
		d.send(PaginateMsg{Feed: domain.FeedNowPlaying})
		d.until(idle(domain.FeedNowPlaying), "page")
	}

	st := d.model.State()
	assert.Len(t, st.NowPlaying.Movies, 8)
	assert.Equal(t, 5, st.NowPlaying.Page)
	assert.Equal(t, []int{10, 11, 20, 21, 30, 31, 40, 41}, movieIDs(st.NowPlaying.Movies))
}

func TestListModel_StopsAtLastPage(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{popular: map[int]domain.Page{
		1: {Number: 1, Movies: movies(1), TotalPages: 1},
	}})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.until(idle(domain.FeedPopular), "page 1")
	d.send(PaginateMsg{Feed: domain.FeedPopular})

	st := d.model.State()
	assert.True(t, st.Popular.Exhausted())
	assert.False(t, st.Popular.InFlight)
	assert.Equal(t, int32(1), fx.repo.popular.Load())
}

func TestListModel_CancelledResultsAreDropped(t *testing.T) {
	gate := make(chan struct{})
	fx := newFixture(t, &fakeFetcher{
		gate:    gate,
		popular: map[int]domain.Page{1: {Number: 1, Movies: movies(1, 2)}},
	})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	d.send(PaginateMsg{Feed: domain.FeedPopular})
	fx.cancel()
	close(gate)

	d.until(idle(domain.FeedPopular), "cancelled page")
	d.settle()

	st := d.model.State()
	assert.Empty(t, st.Popular.Movies)
	assert.Equal(t, 1, st.Popular.Page)
	assert.Empty(t, d.errors, "no notification after cancel")
}

type panickingRepo struct{ domain.MovieRepository }

func (panickingRepo) GetPopular(context.Context, int) <-chan domain.Result[domain.Page] {
	panic("repository exploded")
}

func TestListModel_PanicClearsInFlight(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{})
	d := newDriver(t, NewListModel(fx.ctx, panickingRepo{fx.repo}, quiet))

	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.until(idle(domain.FeedPopular), "panicked page")
	d.settle()

	require.Len(t, d.errors, 1)
	assert.Contains(t, d.errors[0].Message, "repository exploded")
}

func TestListModel_FavoritesFollowStore(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{})
	m := NewListModel(fx.ctx, fx.repo, quiet)
	cmd := m.Init()
	d := newDriver(t, m)
	d.exec(cmd)

	d.until(func(m ListModel) bool { return !m.State().IsLoading }, "initial pages")
	assert.Equal(t, int32(1), fx.repo.popular.Load())
	assert.Equal(t, int32(1), fx.repo.nowPlaying.Load())

	require.NoError(t, fx.store.UpsertFavorite(domain.FavoriteRecord{ID: 42, Title: "The Answer"}))
	d.until(func(m ListModel) bool { return len(m.State().Favorites) == 1 }, "favorite added")
	assert.Equal(t, "The Answer", d.model.State().Favorites[0].Title)

	require.NoError(t, fx.store.UpsertFavorite(domain.FavoriteRecord{ID: 7}))
	d.until(func(m ListModel) bool { return len(m.State().Favorites) == 2 }, "second favorite")
	assert.Equal(t, []int{7, 42}, movieIDs(d.model.State().Favorites))

	require.NoError(t, fx.store.DeleteFavorite(domain.FavoriteRecord{ID: 42}))
	d.until(func(m ListModel) bool { return len(m.State().Favorites) == 1 }, "favorite removed")
	assert.Equal(t, []int{7}, movieIDs(d.model.State().Favorites))
}

func TestListModel_SelectFavoritesTakesSnapshot(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{})
	require.NoError(t, fx.store.UpsertFavorite(domain.FavoriteRecord{ID: 5}))
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	d.send(SelectTabMsg{Feed: domain.FeedFavorites})
	d.until(func(m ListModel) bool { return len(m.State().Favorites) == 1 }, "snapshot")

	st := d.model.State()
	assert.Equal(t, domain.FeedFavorites, st.ActiveTab)
	assert.Equal(t, []int{5}, movieIDs(st.Movies(domain.FeedFavorites)))
	assert.Equal(t, int32(0), fx.repo.popular.Load(), "favorites never paginate")
}

func TestListModel_PaginateFavoritesIsNoop(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{})
	m := NewListModel(fx.ctx, fx.repo, quiet)

	m, cmd := m.Update(PaginateMsg{Feed: domain.FeedFavorites})
	assert.Nil(t, cmd)
	assert.False(t, m.State().IsLoading)
}

func TestListModel_SelectEmptyFeedFetches(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{nowPlaying: map[int]domain.Page{
		1: {Number: 1, Movies: movies(3), TotalPages: 2},
	}})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))

	d.send(SelectTabMsg{Feed: domain.FeedNowPlaying})
	d.until(func(m ListModel) bool { return len(m.State().NowPlaying.Movies) == 1 }, "first page")

	d.send(SelectTabMsg{Feed: domain.FeedNowPlaying})
	assert.False(t, d.model.State().NowPlaying.InFlight, "non-empty feed is not refetched")
	assert.Equal(t, int32(1), fx.repo.nowPlaying.Load())
}

func TestListModel_StateIsACopy(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{popular: map[int]domain.Page{1: {Number: 1, Movies: movies(1, 2)}}})
	d := newDriver(t, NewListModel(fx.ctx, fx.repo, quiet))
	d.send(PaginateMsg{Feed: domain.FeedPopular})
	d.until(idle(domain.FeedPopular), "page 1")

	st := d.model.State()
	st.Popular.Movies[0].Title = "changed"
	assert.Equal(t, "Movie 1", d.model.State().Popular.Movies[0].Title)
}

func TestMergeUnique(t *testing.T) {
	got := mergeUnique(movies(1, 2), append(movies(2, 3), domain.Movie{ID: 3, Title: "dup"}))
	assert.Equal(t, []int{1, 2, 3}, movieIDs(got))
	assert.Equal(t, "Movie 3", got[2].Title, "first occurrence wins")
}

func TestNearEnd(t *testing.T) {
	tests := []struct {
		index, length, threshold int
		want                     bool
	}{
		{0, 0, 5, false},
		{0, 20, 5, false},
		{14, 20, 5, false},
		{15, 20, 5, true},
		{19, 20, 5, true},
		{18, 20, 0, false},
		{19, 20, 0, true},
		{0, 3, 5, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NearEnd(tt.index, tt.length, tt.threshold), "NearEnd(%d, %d, %d)", tt.index, tt.length, tt.threshold)
	}
}
