package ledger

import (
	"errors"
	"fmt"
)

// ErrBoardDimensions indicates a board confirmation with a non-positive dimension.
var ErrBoardDimensions = errors.New("board dimensions must be positive")

// ErrEmptyBatch indicates a board confirmation without a batch identifier.
var ErrEmptyBatch = errors.New("batch identifier must not be empty")

// ErrEmptyCart indicates a save attempt with no products in the cart.
var ErrEmptyCart = errors.New("cannot save a shift with an empty cart")

// ErrSaveInFlight indicates a save attempt while a previous one for the same
// shift has not finished.
var ErrSaveInFlight = errors.New("save already in flight for this shift")

// ErrInvalidTransition indicates an operation not allowed in the shift's
// current state.
var ErrInvalidTransition = errors.New("operation not allowed in current shift state")

// YieldOutOfRangeError rejects a save whose yield falls outside the
// configured band. The underlying analysis result is never clamped; the
// gate can be disabled entirely in configuration.
type YieldOutOfRangeError struct {
	YieldPercent int
	MinPercent   int
	MaxPercent   int
}

func (e *YieldOutOfRangeError) Error() string {
	return fmt.Sprintf("yield %d%% outside allowed range [%d%%, %d%%]", e.YieldPercent, e.MinPercent, e.MaxPercent)
}

// PersistenceError wraps a failed store call. The ledger catches every
// collaborator failure and converts it to this type; nothing propagates as
// an unhandled failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
