package domain

import (
	"context"
	"fmt"
)

// ResultKind discriminates a Result
type ResultKind int

const (
	ResultLoading ResultKind = iota
	ResultSuccess
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultLoading:
		return "loading"
	case ResultSuccess:
		return "success"
	case ResultError:
		return "error"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Result is the outcome envelope emitted by every asynchronous repository
// call: exactly one Loading(true) followed by exactly one Success or Error.
// Only the fields matching Kind are meaningful.
type Result[T any] struct {
	Kind      ResultKind
	IsLoading bool   // ResultLoading
	Data      T      // ResultSuccess
	Message   string // ResultError
}

// LoadingResult builds a Loading result
func LoadingResult[T any](isLoading bool) Result[T] {
	return Result[T]{Kind: ResultLoading, IsLoading: isLoading}
}

// SuccessResult builds a Success result
func SuccessResult[T any](data T) Result[T] {
	return Result[T]{Kind: ResultSuccess, Data: data}
}

// ErrorResult builds an Error result
func ErrorResult[T any](message string) Result[T] {
	return Result[T]{Kind: ResultError, Message: message}
}

// Terminal reports whether no further emission follows this result
func (r Result[T]) Terminal() bool {
	return r.Kind == ResultSuccess || r.Kind == ResultError
}

func (r Result[T]) String() string {
	switch r.Kind {
	case ResultLoading:
		return fmt.Sprintf("Loading(%t)", r.IsLoading)
	case ResultSuccess:
		return "Success"
	case ResultError:
		return "Error(" + r.Message + ")"
	default:
		return r.Kind.String()
	}
}

// Await drains a result stream and returns its terminal result.
// A stream that closes early or a done ctx yields an Error result.
func Await[T any](ctx context.Context, stream <-chan Result[T]) Result[T] {
	for {
		select {
		case <-ctx.Done():
			return ErrorResult[T](FailureMessage(NetworkFailure("await", ctx.Err())))
		case res, ok := <-stream:
			if !ok {
				return ErrorResult[T]("stream closed without a result")
			}
			if res.Terminal() {
				return res
			}
		}
	}
}
