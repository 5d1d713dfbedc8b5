package catalog

import "errors"

var (
	// ErrDuplicateID indicates two catalog entries share an id.
	ErrDuplicateID = errors.New("duplicate catalog id")
	// ErrEmptyCatalog indicates the catalog source contained no items.
	ErrEmptyCatalog = errors.New("empty catalog")
)
