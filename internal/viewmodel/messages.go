package viewmodel

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviedb/internal/domain"
)

// Actions dispatched by the presentation

// PaginateMsg requests the next page of a feed
type PaginateMsg struct {
	Feed domain.Feed
}

// SelectTabMsg switches the visible feed
type SelectTabMsg struct {
	Feed domain.Feed
}

// FetchDetailMsg loads one movie into the detail model
type FetchDetailMsg struct {
	ID int
}

// ToggleFavoriteMsg adds or removes the movie from favorites
type ToggleFavoriteMsg struct {
	Detail domain.MovieDetail
}

// PlayTrailerMsg resolves and launches the current movie's trailer
type PlayTrailerMsg struct{}

// ErrorMsg is a one-shot notification for the presentation. It is never
// stored in model state.
type ErrorMsg struct {
	Source  string // e.g., "popular", "detail"
	Message string
}

func (e ErrorMsg) Error() string { return e.Source + ": " + e.Message }

// Internal stream messages. Non-terminal emissions carry the command that
// reads the next one.

type pageMsg struct {
	feed   domain.Feed
	result domain.Result[domain.Page]
	next   tea.Cmd
}

type favoritesMsg struct {
	movies   []domain.Movie
	snapshot bool // one-off read, no continuation
	closed   bool
	next     tea.Cmd
}

type detailMsg struct {
	instance int
	movieID  int
	result   domain.Result[domain.MovieDetail]
	next     tea.Cmd
}

type favoriteIDsMsg struct {
	instance int
	ids      map[int]struct{}
	closed   bool
	next     tea.Cmd
}

type favoriteToggledMsg struct {
	instance int
	movieID  int
	favorite bool
	err      error
}

type trailerMsg struct {
	instance int
	result   domain.Result[domain.Video]
	next     tea.Cmd
}

type trailerLaunchedMsg struct {
	instance int
	url      string
	err      error
}
