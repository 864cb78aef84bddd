// Package analysis holds the shared error taxonomy for the analysis stages.
// All errors here are recoverable at the caller boundary: stages report them
// synchronously and never terminate the process.
package analysis

import "errors"

var (
	// ErrEmptyInput is returned when a stage receives no bars at all.
	ErrEmptyInput = errors.New("analysis: empty bar sequence")

	// ErrInsufficientHistory is returned when a downstream step strictly
	// requires a complete window. Indicators themselves report short history
	// as NaN values instead of failing.
	ErrInsufficientHistory = errors.New("analysis: not enough history for requested window")

	// ErrEmptySplit is returned when a chronological split leaves the train
	// or holdout side empty.
	ErrEmptySplit = errors.New("analysis: empty train or holdout partition")

	// ErrInsufficientData is returned when fitting is attempted on a
	// degenerate (empty or single-row) train set.
	ErrInsufficientData = errors.New("analysis: train set too small to fit")
)
