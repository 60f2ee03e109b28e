package ml

import "errors"

var (
	// ErrEmptyDataset indicates the window produced no training samples
	ErrEmptyDataset = errors.New("empty training dataset")

	// ErrNonFiniteLoss indicates training diverged
	ErrNonFiniteLoss = errors.New("non-finite training loss")

	// ErrInputShape indicates a prediction sequence of the wrong length
	ErrInputShape = errors.New("input sequence has wrong shape")
)
