package tmdb

import "github.com/mmcdole/moviedb/internal/domain"

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// mapMovie converts a list entry to the domain summary
func mapMovie(dto movieDTO) domain.Movie {
	return domain.Movie{
		ID:           dto.ID,
		Title:        dto.Title,
		Overview:     dto.Overview,
		ReleaseDate:  dto.ReleaseDate,
		BackdropPath: deref(dto.BackdropPath),
		PosterPath:   deref(dto.PosterPath),
		VoteAverage:  dto.VoteAverage,
		Popularity:   dto.Popularity,
	}
}

// mapPage converts a page payload. Entries without an ID cannot be navigated
// to or favorited and are dropped.
func mapPage(resp pageResponse) domain.Page {
	movies := make([]domain.Movie, 0, len(resp.Results))
	for _, dto := range resp.Results {
		if dto.ID <= 0 {
			continue
		}
		movies = append(movies, mapMovie(dto))
	}
	return domain.Page{
		Number:       resp.Page,
		Movies:       movies,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
	}
}

func mapMovieDetail(dto movieDetailDTO) domain.MovieDetail {
	genres := make([]domain.Genre, 0, len(dto.Genres))
	for _, g := range dto.Genres {
		genres = append(genres, domain.Genre{ID: g.ID, Name: g.Name})
	}
	return domain.MovieDetail{
		Movie:            mapMovie(dto.movieDTO),
		Runtime:          deref(dto.Runtime),
		Genres:           genres,
		Tagline:          dto.Tagline,
		Status:           dto.Status,
		VoteCount:        dto.VoteCount,
		Homepage:         dto.Homepage,
		IMDbID:           deref(dto.IMDbID),
		OriginalLanguage: dto.OriginalLanguage,
		Budget:           dto.Budget,
		Revenue:          dto.Revenue,
	}
}

func mapVideos(dtos []videoDTO) []domain.Video {
	videos := make([]domain.Video, 0, len(dtos))
	for _, v := range dtos {
		videos = append(videos, domain.Video{
			ID:          v.ID,
			Key:         v.Key,
			Name:        v.Name,
			Site:        v.Site,
			Type:        v.Type,
			Official:    v.Official,
			PublishedAt: v.PublishedAt,
		})
	}
	return videos
}
