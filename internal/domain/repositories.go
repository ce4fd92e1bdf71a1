package domain

import "context"

// MovieFetcher performs reads against the remote catalog (implemented by tmdb.Client).
// I/O failures are returned as a *Failure; out-of-range arguments wrap
// ErrInvalidArgument and perform no request.
type MovieFetcher interface {
	// GetPopular returns one page of the popular feed (page >= 1)
	GetPopular(ctx context.Context, page int) (Page, error)

	// GetNowPlaying returns one page of the now-playing feed (page >= 1)
	GetNowPlaying(ctx context.Context, page int) (Page, error)

	// GetMovieDetail returns the full record for one movie
	GetMovieDetail(ctx context.Context, id int) (MovieDetail, error)

	// GetVideos returns the clips attached to a movie
	GetVideos(ctx context.Context, id int) ([]Video, error)
}

// FavoriteStore is the durable table of favorited movies.
type FavoriteStore interface {
	// UpsertFavorite inserts or replaces the record keyed by its ID
	UpsertFavorite(rec FavoriteRecord) error

	// DeleteFavorite removes the record; deleting a missing ID is not an error
	DeleteFavorite(rec FavoriteRecord) error

	// ObserveFavorites emits the current favorite set immediately and again
	// after every write, ordered by ID ascending. The channel closes when ctx
	// is done or the store is closed.
	ObserveFavorites(ctx context.Context) (<-chan []FavoriteRecord, error)

	Close() error
}

// MovieRepository is the data access surface consumed by the view-models.
// Read methods return a result stream: Loading(true), then one terminal
// result, then the channel closes. They never panic or return raw errors.
type MovieRepository interface {
	GetPopular(ctx context.Context, page int) <-chan Result[Page]
	GetNowPlaying(ctx context.Context, page int) <-chan Result[Page]
	GetMovieDetail(ctx context.Context, id int) <-chan Result[MovieDetail]
	GetTrailer(ctx context.Context, id int) <-chan Result[Video]

	// AddFavorite and RemoveFavorite are fire-and-forget; failures are logged
	AddFavorite(rec FavoriteRecord)
	RemoveFavorite(rec FavoriteRecord)

	// AllFavorites relays the store's live favorite set as movie summaries
	AllFavorites(ctx context.Context) <-chan []Movie
}
