package domain

import (
	"strconv"
	"strings"
	"time"
)

// Movie is the summary shape shared by every feed.
// Values are produced by the fetcher and never mutated by the client.
type Movie struct {
	ID           int      // Catalog identifier, used for navigation and favorite matching
	Title        string   // Display title
	Overview     string   // Plot synopsis
	ReleaseDate  string   // As served by the catalog: "2006-01-02" or empty
	BackdropPath string   // Relative image path, e.g., "/abc.jpg"
	PosterPath   string   // Relative image path
	VoteAverage  float64  // 0-10 audience rating
	Popularity   *float64 // nil when the catalog did not report one
}

// Year returns the release year (0 if unknown)
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Popularity category labels
const (
	PopularityUnknown     = "Unknown"
	PopularityVeryPopular = "Very Popular"
	PopularityPopular     = "Popular"
	PopularityFairly      = "Fairly Popular"
	PopularityLow         = "Currently Not Very Popular"
	PopularityInvalid     = "---"
)

// PopularityCategory buckets the popularity score into a display label
func (m Movie) PopularityCategory() string {
	if m.Popularity == nil {
		return PopularityUnknown
	}
	switch p := *m.Popularity; {
	case p >= 3000:
		return PopularityVeryPopular
	case p >= 1500:
		return PopularityPopular
	case p >= 200:
		return PopularityFairly
	case p >= 0:
		return PopularityLow
	default:
		return PopularityInvalid
	}
}

// Genre is a catalog genre
type Genre struct {
	ID   int
	Name string
}

// MovieDetail is the full record for a single movie.
type MovieDetail struct {
	Movie

	Runtime          int // Minutes
	Genres           []Genre
	Tagline          string
	Status           string // "Released", "Post Production", ...
	VoteCount        int
	Homepage         string
	IMDbID           string
	OriginalLanguage string
	Budget           int64
	Revenue          int64
}

// FormattedRuntime returns the runtime as "2h 05m" or "" if unknown
func (d MovieDetail) FormattedRuntime() string {
	if d.Runtime <= 0 {
		return ""
	}
	h, m := d.Runtime/60, d.Runtime%60
	if h == 0 {
		return strconv.Itoa(m) + "m"
	}
	if m < 10 {
		return strconv.Itoa(h) + "h 0" + strconv.Itoa(m) + "m"
	}
	return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "m"
}

// GenreNames joins genre names with ", "
func (d MovieDetail) GenreNames() string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// FavoriteRecord converts the detail into the persisted favorite shape
func (d MovieDetail) FavoriteRecord() FavoriteRecord {
	return FavoriteRecord{
		ID:           d.ID,
		Title:        d.Title,
		Overview:     d.Overview,
		ReleaseDate:  d.ReleaseDate,
		BackdropPath: d.BackdropPath,
		PosterPath:   d.PosterPath,
		VoteAverage:  d.VoteAverage,
		Popularity:   d.Popularity,
	}
}

// FavoriteRecord is the persisted subset of a movie. Keyed by ID.
type FavoriteRecord struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	ReleaseDate  string   `json:"release_date"`
	BackdropPath string   `json:"backdrop_path"`
	PosterPath   string   `json:"poster_path"`
	VoteAverage  float64  `json:"vote_average"`
	Popularity   *float64 `json:"popularity,omitempty"`
	AddedAt      int64    `json:"added_at"` // Unix seconds, stamped by the store when zero
}

// Movie maps the record back to the summary shape
func (r FavoriteRecord) Movie() Movie {
	return Movie{
		ID:           r.ID,
		Title:        r.Title,
		Overview:     r.Overview,
		ReleaseDate:  r.ReleaseDate,
		BackdropPath: r.BackdropPath,
		PosterPath:   r.PosterPath,
		VoteAverage:  r.VoteAverage,
		Popularity:   r.Popularity,
	}
}

// Stamped returns a copy with AddedAt set to now if it was unset
func (r FavoriteRecord) Stamped(now time.Time) FavoriteRecord {
	if r.AddedAt == 0 {
		r.AddedAt = now.Unix()
	}
	return r
}

// Page is one fetched batch of a paginated feed
type Page struct {
	Number       int
	Movies       []Movie
	TotalPages   int
	TotalResults int
}

// Video is a clip attached to a movie (trailer, teaser, featurette...)
type Video struct {
	ID          string
	Key         string // Site-specific key, e.g., YouTube video ID
	Name        string
	Site        string // "YouTube", "Vimeo"
	Type        string // "Trailer", "Teaser", "Clip", ...
	Official    bool
	PublishedAt string
}

// URL returns a watch URL for the video, or "" for unsupported sites
func (v Video) URL() string {
	if v.Key == "" {
		return ""
	}
	switch strings.ToLower(v.Site) {
	case "youtube":
		return "https://www.youtube.com/watch?v=" + v.Key
	case "vimeo":
		return "https://vimeo.com/" + v.Key
	default:
		return ""
	}
}
