// Package search filters loaded movie lists by title.
package search

import (
	"strings"

	"github.com/mmcdole/moviedb/internal/domain"
	"github.com/sahilm/fuzzy"
)

// titleSource implements fuzzy.Source over precomputed lowercase titles
type titleSource []string

func (s titleSource) String(i int) string { return s[i] }
func (s titleSource) Len() int            { return len(s) }

// Match is a filtered movie with the title positions that matched
type Match struct {
	Index          int // Index in the source slice
	Movie          domain.Movie
	MatchedIndexes []int
}

// FilterMovies fuzzy-matches query against movie titles, best match first.
// An empty query matches nothing.
func FilterMovies(query string, movies []domain.Movie) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(movies) == 0 {
		return nil
	}

	titles := make(titleSource, len(movies))
	for i, m := range movies {
		titles[i] = strings.ToLower(m.Title)
	}

	found := fuzzy.FindFrom(query, titles)
	matches := make([]Match, len(found))
	for i, f := range found {
		matches[i] = Match{
			Index:          f.Index,
			Movie:          movies[f.Index],
			MatchedIndexes: f.MatchedIndexes,
		}
	}
	return matches
}
