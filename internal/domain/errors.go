package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain operations
var (
	// ErrAuthFailed indicates the API credential was rejected
	ErrAuthFailed = errors.New("API credential is invalid")

	// ErrMovieNotFound indicates the requested movie does not exist
	ErrMovieNotFound = errors.New("movie not found")

	// ErrRateLimited indicates the catalog throttled the client
	ErrRateLimited = errors.New("too many requests")

	// ErrInvalidArgument indicates a page or id outside the accepted range
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoTrailer indicates the movie has no playable trailer
	ErrNoTrailer = errors.New("no trailer available")

	// ErrStoreClosed indicates the favorite store was already closed
	ErrStoreClosed = errors.New("favorite store is closed")
)

// FailureKind classifies a Failure
type FailureKind int

const (
	FailureNetwork FailureKind = iota + 1 // unreachable, timeout, cancelled
	FailureHTTP                           // non-2xx status
	FailureDecode                         // malformed payload
	FailureStore                          // persistence I/O
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureHTTP:
		return "http"
	case FailureDecode:
		return "decode"
	case FailureStore:
		return "store"
	default:
		return "unknown"
	}
}

// Failure is the typed error returned by the fetcher and the stores.
type Failure struct {
	Kind       FailureKind
	Op         string // e.g., "popular", "detail", "upsert favorite"
	StatusCode int    // HTTP only
	Detail     string // Server-provided message, if any
	Err        error
}

func (f *Failure) Error() string {
	msg := f.Kind.String() + " failure"
	if f.Op != "" {
		msg = f.Op + ": " + msg
	}
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Message returns a human-readable description suitable for a notification
func (f *Failure) Message() string {
	switch f.Kind {
	case FailureNetwork:
		switch {
		case errors.Is(f.Err, context.Canceled):
			return "Request cancelled"
		case isTimeout(f.Err):
			return "Request timed out, check your connection"
		default:
			return "Could not reach the movie catalog, check your connection"
		}
	case FailureHTTP:
		switch {
		case errors.Is(f.Err, ErrAuthFailed):
			return "The API key was rejected"
		case errors.Is(f.Err, ErrMovieNotFound):
			return "Movie not found"
		case errors.Is(f.Err, ErrRateLimited):
			return "Too many requests, try again shortly"
		}
		msg := fmt.Sprintf("Server error %d %s", f.StatusCode, http.StatusText(f.StatusCode))
		if f.Detail != "" {
			msg += ": " + f.Detail
		}
		return msg
	case FailureDecode:
		return "Received an unreadable response from the movie catalog"
	case FailureStore:
		return "Could not update favorites"
	default:
		return f.Error()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// NetworkFailure wraps a transport error
func NetworkFailure(op string, err error) *Failure {
	return &Failure{Kind: FailureNetwork, Op: op, Err: err}
}

// HTTPFailure builds a failure for a non-2xx response.
// Well-known statuses wrap the matching sentinel.
func HTTPFailure(op string, status int, detail string) *Failure {
	var err error
	switch status {
	case http.StatusUnauthorized:
		err = ErrAuthFailed
	case http.StatusNotFound:
		err = ErrMovieNotFound
	case http.StatusTooManyRequests:
		err = ErrRateLimited
	default:
		err = fmt.Errorf("unexpected status code: %d", status)
	}
	return &Failure{Kind: FailureHTTP, Op: op, StatusCode: status, Detail: detail, Err: err}
}

// DecodeFailure wraps a payload parse error
func DecodeFailure(op string, err error) *Failure {
	return &Failure{Kind: FailureDecode, Op: op, Err: err}
}

// StoreFailure wraps a persistence error
func StoreFailure(op string, err error) *Failure {
	return &Failure{Kind: FailureStore, Op: op, Err: err}
}

// IsFailure reports whether err carries a Failure of the given kind
func IsFailure(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

// FailureMessage returns the user-facing message for any error
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message()
	}
	switch {
	case errors.Is(err, ErrNoTrailer):
		return "No trailer available"
	case errors.Is(err, ErrInvalidArgument):
		return "Invalid request"
	}
	return err.Error()
}
