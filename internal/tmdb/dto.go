package tmdb

// TMDB v3 JSON shapes. Only fields the client maps are declared.

// pageResponse is shared by /movie/popular and /movie/now_playing
type pageResponse struct {
	Page         int        `json:"page"`
	Results      []movieDTO `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Dates        *struct {
		Maximum string `json:"maximum"`
		Minimum string `json:"minimum"`
	} `json:"dates,omitempty"` // now_playing only
}

type movieDTO struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	ReleaseDate  string   `json:"release_date"`
	BackdropPath *string  `json:"backdrop_path"`
	PosterPath   *string  `json:"poster_path"`
	VoteAverage  float64  `json:"vote_average"`
	Popularity   *float64 `json:"popularity"`
}

type genreDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type movieDetailDTO struct {
	movieDTO
	Runtime          *int       `json:"runtime"`
	Genres           []genreDTO `json:"genres"`
	Tagline          string     `json:"tagline"`
	Status           string     `json:"status"`
	VoteCount        int        `json:"vote_count"`
	Homepage         string     `json:"homepage"`
	IMDbID           *string    `json:"imdb_id"`
	OriginalLanguage string     `json:"original_language"`
	Budget           int64      `json:"budget"`
	Revenue          int64      `json:"revenue"`
}

type videoDTO struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

type videosResponse struct {
	ID      int        `json:"id"`
	Results []videoDTO `json:"results"`
}

// errorResponse is the body TMDB returns alongside non-2xx statuses
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       *bool  `json:"success"`
}
