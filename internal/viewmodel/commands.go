package viewmodel

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviedb/internal/domain"
)

// Command factories for repository streams

// streamCmd opens a result stream and delivers its first emission.
// Every path ends in exactly one terminal message: panics, early closes and
// cancellation are reported as Error results.
func streamCmd[T any](
	ctx context.Context,
	open func(context.Context) <-chan domain.Result[T],
	wrap func(domain.Result[T], tea.Cmd) tea.Msg,
) tea.Cmd {
	return func() (msg tea.Msg) {
		defer recoverResult(&msg, wrap)
		return readResult(ctx, open(ctx), wrap)
	}
}

// listenResultCmd delivers the next emission of an open stream
func listenResultCmd[T any](
	ctx context.Context,
	stream <-chan domain.Result[T],
	wrap func(domain.Result[T], tea.Cmd) tea.Msg,
) tea.Cmd {
	return func() (msg tea.Msg) {
		defer recoverResult(&msg, wrap)
		return readResult(ctx, stream, wrap)
	}
}

func readResult[T any](
	ctx context.Context,
	stream <-chan domain.Result[T],
	wrap func(domain.Result[T], tea.Cmd) tea.Msg,
) tea.Msg {
	select {
	case <-ctx.Done():
		return wrap(domain.ErrorResult[T](domain.FailureMessage(domain.NetworkFailure("stream", ctx.Err()))), nil)
	case res, ok := <-stream:
		if !ok {
			return wrap(domain.ErrorResult[T]("stream closed without a result"), nil)
		}
		if res.Terminal() {
			return wrap(res, nil)
		}
		return wrap(res, listenResultCmd(ctx, stream, wrap))
	}
}

func recoverResult[T any](msg *tea.Msg, wrap func(domain.Result[T], tea.Cmd) tea.Msg) {
	if p := recover(); p != nil {
		*msg = wrap(domain.ErrorResult[T](fmt.Sprintf("unexpected failure: %v", p)), nil)
	}
}

// subscribeFavoritesCmd starts the live favorites relay and delivers the
// first set. wrap builds the message for each emission; closed reports the
// end of the subscription.
func subscribeFavoritesCmd(
	ctx context.Context,
	repo domain.MovieRepository,
	wrap func(movies []domain.Movie, closed bool, next tea.Cmd) tea.Msg,
) tea.Cmd {
	return func() tea.Msg {
		return readFavorites(ctx, repo.AllFavorites(ctx), wrap)
	}
}

func listenFavoritesCmd(
	ctx context.Context,
	ch <-chan []domain.Movie,
	wrap func(movies []domain.Movie, closed bool, next tea.Cmd) tea.Msg,
) tea.Cmd {
	return func() tea.Msg {
		return readFavorites(ctx, ch, wrap)
	}
}

func readFavorites(
	ctx context.Context,
	ch <-chan []domain.Movie,
	wrap func(movies []domain.Movie, closed bool, next tea.Cmd) tea.Msg,
) tea.Msg {
	select {
	case <-ctx.Done():
		return wrap(nil, true, nil)
	case movies, ok := <-ch:
		if !ok {
			return wrap(nil, true, nil)
		}
		return wrap(movies, false, listenFavoritesCmd(ctx, ch, wrap))
	}
}

// favoritesSnapshotCmd reads the current favorite set once
func favoritesSnapshotCmd(ctx context.Context, repo domain.MovieRepository) tea.Cmd {
	return func() tea.Msg {
		child, cancel := context.WithCancel(ctx)
		defer cancel()

		select {
		case movies, ok := <-repo.AllFavorites(child):
			if !ok {
				return favoritesMsg{snapshot: true, closed: true}
			}
			return favoritesMsg{movies: movies, snapshot: true}
		case <-ctx.Done():
			return favoritesMsg{snapshot: true, closed: true}
		}
	}
}

// notifyCmd emits a one-shot ErrorMsg
func notifyCmd(source, message string) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Source: source, Message: message}
	}
}
