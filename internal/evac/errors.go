package evac

import "errors"

var (
	// ErrInvalidPosition reports an out-of-bounds coordinate or a cell of
	// the wrong kind handed to the grid setup.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrInvalidParameter reports a model parameter outside its range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInconsistentState is raised (as a panic) when the resolver finds
	// the grid disagreeing with its own bookkeeping.
	ErrInconsistentState = errors.New("inconsistent engine state")
)
