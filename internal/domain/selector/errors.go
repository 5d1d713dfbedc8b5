package selector

import "errors"

var (
	// ErrCatalogTooSmall indicates fewer than two items are available.
	ErrCatalogTooSmall = errors.New("catalog must contain at least two items")
	// ErrNoDistinctPair indicates repeated draws failed to produce two
	// distinct items.
	ErrNoDistinctPair = errors.New("could not draw a distinct pair")
)
