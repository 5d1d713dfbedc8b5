package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrUnavailable signals the backing store could not serve the operation.
	ErrUnavailable = errors.New("store unavailable")
	// ErrWrongType signals a key holds a value of another kind.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
)
