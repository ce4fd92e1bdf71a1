package repository

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/moviedb/internal/domain"
)

// PickTrailer chooses the clip to play. Only clips with a watch URL qualify.
// Preference: official trailers, other trailers, clips named like
// "Official Trailer", then teasers. Ties keep catalog order.
func PickTrailer(videos []domain.Video) (domain.Video, bool) {
	best, bestRank := domain.Video{}, -1
	for _, v := range videos {
		if v.URL() == "" {
			continue
		}
		rank := trailerRank(v)
		if rank < 0 {
			continue
		}
		if bestRank < 0 || rank < bestRank {
			best, bestRank = v, rank
		}
	}
	return best, bestRank >= 0
}

// trailerRank returns 0 for the best match, -1 if the clip is not wanted
func trailerRank(v domain.Video) int {
	isTrailer := strings.EqualFold(v.Type, "Trailer")
	switch {
	case isTrailer && v.Official:
		return 0
	case isTrailer:
		return 1
	case fuzzy.MatchNormalizedFold("official trailer", v.Name):
		return 2
	case strings.EqualFold(v.Type, "Teaser"):
		return 3
	default:
		return -1
	}
}
