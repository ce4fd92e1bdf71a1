package domain

import (
	"fmt"
	"strings"
)

// Feed identifies one of the movie lists
type Feed string

const (
	FeedPopular    Feed = "popular"
	FeedNowPlaying Feed = "now_playing"
	FeedFavorites  Feed = "favorites"
)

// Feeds lists every feed in tab order
var Feeds = []Feed{FeedPopular, FeedNowPlaying, FeedFavorites}

// Paginated reports whether the feed is fetched page by page
func (f Feed) Paginated() bool {
	return f == FeedPopular || f == FeedNowPlaying
}

// Title returns the display name
func (f Feed) Title() string {
	switch f {
	case FeedPopular:
		return "Popular"
	case FeedNowPlaying:
		return "Now Playing"
	case FeedFavorites:
		return "Favorites"
	default:
		return string(f)
	}
}

// ParseFeed accepts the feed identifier or its display name, case-insensitive
func ParseFeed(s string) (Feed, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, f := range Feeds {
		if norm == string(f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feed %q", s)
}
