package models

import "errors"

// Backtest error taxonomy. Everything except ErrConfiguration is recoverable
// at the period or strategy level and is counted rather than propagated.
var (
	ErrInsufficientHistory    = errors.New("insufficient history")
	ErrModelNotTrainable      = errors.New("model not trainable")
	ErrDegenerateDistribution = errors.New("degenerate distribution")
	ErrConfiguration          = errors.New("configuration error")
)

// Data errors
var (
	ErrInvalidDraw  = errors.New("invalid draw")
	ErrUnknownGame  = errors.New("unknown game")
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)
