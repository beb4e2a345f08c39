package searcher

import (
	"errors"
	"fmt"
)

var (
	ErrModelSimulation   = errors.New("model simulation failed")
	ErrEstimation        = errors.New("leaf estimation failed")
	ErrActionGeneration  = errors.New("action generation failed")
	ErrDimensionMismatch = errors.New("cost vector dimension mismatch")
	ErrNoActions         = errors.New("root has no actions")

	// ErrWideningExhausted is returned by an ActionGenerator that has no new
	// action to offer. The search treats it as a signal, not a failure.
	ErrWideningExhausted = errors.New("no untried actions left")
)

// SearchError carries the state and action a failure originated from.
type SearchError[S, A comparable] struct {
	Op        string
	State     S
	Action    A
	HasAction bool
	Err       error
}

func (e *SearchError[S, A]) Error() string {
	if e.HasAction {
		return fmt.Sprintf("%s at state %v, action %v: %v", e.Op, e.State, e.Action, e.Err)
	}
	return fmt.Sprintf("%s at state %v: %v", e.Op, e.State, e.Err)
}

func (e *SearchError[S, A]) Unwrap() error {
	return e.Err
}

func stateError[S, A comparable](op string, state S, err error) error {
	return &SearchError[S, A]{Op: op, State: state, Err: err}
}

func actionError[S, A comparable](op string, state S, action A, err error) error {
	return &SearchError[S, A]{Op: op, State: state, Action: action, HasAction: true, Err: err}
}

// checkDims fails fast on a cost vector of the wrong length.
func checkDims(source string, costs []float64, dims int) error {
	if len(costs) != dims {
		return fmt.Errorf("%w: %s returned %d costs, want %d", ErrDimensionMismatch, source, len(costs), dims)
	}
	return nil
}

// fatal reports errors that must bypass the fallback.
func fatal(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}
