package routing

import (
	"errors"

	"fiber_router/pkg/graph"
	"fiber_router/pkg/index"
)

// ErrorKind classifies a failed route computation.
type ErrorKind string

const (
	KindEmptyIndex    ErrorKind = "empty_index"
	KindEmptyGraph    ErrorKind = "empty_graph"
	KindNoPath        ErrorKind = "no_path"
	KindUpstreamFetch ErrorKind = "upstream_fetch"
	KindInvalidInput  ErrorKind = "invalid_input"
	KindInternal      ErrorKind = "internal"
)

// RouteError is the typed failure returned by Engine.Compute and
// Service.Route.
type RouteError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RouteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *RouteError) Unwrap() error { return e.Err }

// NewError wraps err as a RouteError of the given kind.
func NewError(kind ErrorKind, err error) *RouteError {
	re := &RouteError{Kind: kind, Err: err}
	if err != nil {
		re.Message = err.Error()
	}
	return re
}

// KindOf returns the kind of a RouteError in err's chain, classifying the
// package sentinels when err is not already typed.
func KindOf(err error) ErrorKind {
	var re *RouteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return classify(err)
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, index.ErrEmptyIndex):
		return KindEmptyIndex
	case errors.Is(err, graph.ErrEmptyGraph):
		return KindEmptyGraph
	case errors.Is(err, ErrNoRoute):
		return KindNoPath
	}
	return KindInternal
}

// asRouteError types a sentinel error from the engine's stages.
func asRouteError(err error) error {
	if err == nil {
		return nil
	}
	var re *RouteError
	if errors.As(err, &re) {
		return err
	}
	return NewError(classify(err), err)
}
