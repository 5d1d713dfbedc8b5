package owners

import "errors"

var (
	// ErrIndexer indicates the external index rejected or failed a request.
	ErrIndexer = errors.New("indexer request failed")
	// ErrNoIndexer indicates no external index is configured.
	ErrNoIndexer = errors.New("no owner indexer configured")
)
