// Package repository merges the remote catalog with the local favorite store
// behind domain.MovieRepository.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/mmcdole/moviedb/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Repository implements domain.MovieRepository.
type Repository struct {
	fetcher domain.MovieFetcher
	store   domain.FavoriteStore
	logger  *slog.Logger
	group   singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context shared by every caller waiting on one key. It is
// cancelled when the last waiter leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

var _ domain.MovieRepository = (*Repository)(nil)

// New creates a repository over the given fetcher and store.
func New(fetcher domain.MovieFetcher, store domain.FavoriteStore, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{fetcher: fetcher, store: store, logger: logger, flights: make(map[string]*flight)}
}

func (r *Repository) GetPopular(ctx context.Context, page int) <-chan domain.Result[domain.Page] {
	return stream(ctx, r, "popular:"+strconv.Itoa(page), func(ctx context.Context) (domain.Page, error) {
		return r.fetcher.GetPopular(ctx, page)
	})
}

func (r *Repository) GetNowPlaying(ctx context.Context, page int) <-chan domain.Result[domain.Page] {
	return stream(ctx, r, "now_playing:"+strconv.Itoa(page), func(ctx context.Context) (domain.Page, error) {
		return r.fetcher.GetNowPlaying(ctx, page)
	})
}

func (r *Repository) GetMovieDetail(ctx context.Context, id int) <-chan domain.Result[domain.MovieDetail] {
	return stream(ctx, r, "detail:"+strconv.Itoa(id), func(ctx context.Context) (domain.MovieDetail, error) {
		return r.fetcher.GetMovieDetail(ctx, id)
	})
}

// GetTrailer resolves the best playable clip for a movie
func (r *Repository) GetTrailer(ctx context.Context, id int) <-chan domain.Result[domain.Video] {
	return stream(ctx, r, "trailer:"+strconv.Itoa(id), func(ctx context.Context) (domain.Video, error) {
		videos, err := r.fetcher.GetVideos(ctx, id)
		if err != nil {
			return domain.Video{}, err
		}
		v, ok := PickTrailer(videos)
		if !ok {
			return domain.Video{}, domain.ErrNoTrailer
		}
		return v, nil
	})
}

// AddFavorite persists the record. Failures are logged, not returned.
func (r *Repository) AddFavorite(rec domain.FavoriteRecord) {
	if err := r.store.UpsertFavorite(rec); err != nil {
		r.logger.Error("failed to add favorite", "movieID", rec.ID, "error", err)
		return
	}
	r.logger.Debug("added favorite", "movieID", rec.ID)
}

// RemoveFavorite deletes the record. Failures are logged, not returned.
func (r *Repository) RemoveFavorite(rec domain.FavoriteRecord) {
	if err := r.store.DeleteFavorite(rec); err != nil {
		r.logger.Error("failed to remove favorite", "movieID", rec.ID, "error", err)
		return
	}
	r.logger.Debug("removed favorite", "movieID", rec.ID)
}

// AllFavorites relays the live favorite set as movie summaries. The channel
// closes with ctx or the store; a failed subscription yields a closed channel.
func (r *Repository) AllFavorites(ctx context.Context) <-chan []domain.Movie {
	out := make(chan []domain.Movie, 1)

	src, err := r.store.ObserveFavorites(ctx)
	if err != nil {
		r.logger.Error("failed to observe favorites", "error", err)
		close(out)
		return out
	}

	go func() {
		defer close(out)
		for recs := range src {
			movies := make([]domain.Movie, 0, len(recs))
			for _, rec := range recs {
				movies = append(movies, rec.Movie())
			}
			// Drop a stale unread set in favor of the new one
			select {
			case <-out:
			default:
			}
			select {
			case out <- movies:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// join registers a waiter for key and attaches it to the in-progress fetch,
// starting one if needed. The returned leave func must be called once the
// waiter stops listening.
func (r *Repository) join(ctx context.Context, key string, fetch func(context.Context) (any, error)) (<-chan singleflight.Result, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.flights == nil {
		r.flights = make(map[string]*flight)
	}
	f, ok := r.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		r.flights[key] = f
	}
	f.waiters++

	fctx := f.ctx
	ch := r.group.DoChan(key, func() (any, error) { return fetch(fctx) })
	return ch, func() { r.leave(key, f) }
}

func (r *Repository) leave(key string, f *flight) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	delete(r.flights, key)
	// A later caller must not join a cancelled fetch
	r.group.Forget(key)
}

// stream runs fetch behind the singleflight key and emits Loading(true)
// followed by exactly one terminal result. The fetch is cancelled once
// every caller waiting on it has gone.
func stream[T any](ctx context.Context, r *Repository, key string, fetch func(context.Context) (T, error)) <-chan domain.Result[T] {
	out := make(chan domain.Result[T], 2)
	out <- domain.LoadingResult[T](true)

	go func() {
		defer close(out)

		ch, leave := r.join(ctx, key, func(fctx context.Context) (v any, err error) {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Error("fetch panicked", "key", key, "panic", p)
					err = fmt.Errorf("unexpected failure: %v", p)
				}
			}()
			return fetch(fctx)
		})
		defer leave()

		select {
		case <-ctx.Done():
			out <- domain.ErrorResult[T](domain.FailureMessage(domain.NetworkFailure(key, ctx.Err())))
		case res := <-ch:
			if res.Err != nil {
				r.logger.Warn("fetch failed", "key", key, "shared", res.Shared, "error", res.Err)
				out <- domain.ErrorResult[T](domain.FailureMessage(res.Err))
				return
			}
			out <- domain.SuccessResult(res.Val.(T))
		}
	}()
	return out
}
