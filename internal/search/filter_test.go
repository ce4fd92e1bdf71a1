package search

import (
	"testing"

	"github.com/mmcdole/moviedb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMovies(t *testing.T) {
	movies := []domain.Movie{
		{ID: 1, Title: "The Dark Knight"},
		{ID: 2, Title: "Dune: Part Two"},
		{ID: 3, Title: "Inside Out 2"},
		{ID: 4, Title: "Deadpool & Wolverine"},
	}

	matches := FilterMovies("DUNE", movies)
	require.NotEmpty(t, matches)
	assert.Equal(t, 2, matches[0].Movie.ID, "case-insensitive, best match first")
	assert.Equal(t, 1, matches[0].Index)
	assert.Equal(t, []int{0, 1, 2, 3}, matches[0].MatchedIndexes)

	for _, m := range FilterMovies("wolv", movies) {
		assert.Equal(t, 4, m.Movie.ID)
	}

	assert.Empty(t, FilterMovies("zzz", movies))
	assert.Nil(t, FilterMovies("  ", movies))
	assert.Nil(t, FilterMovies("dune", nil))
}
