package daily

import "errors"

var (
	// ErrSamePair indicates an override with two identical ids.
	ErrSamePair = errors.New("matchup items must be distinct")
	// ErrUnknownItem indicates an id outside the catalog or today's pair.
	ErrUnknownItem = errors.New("unknown item")
	// ErrAlreadyVoted indicates this voter already voted on the current
	// matchup.
	ErrAlreadyVoted = errors.New("already voted on this matchup")
	// ErrMissingVoter indicates no voter identity was supplied.
	ErrMissingVoter = errors.New("missing voter identity")
	// ErrCatalogTooSmall indicates fewer than two items are available.
	ErrCatalogTooSmall = errors.New("catalog must contain at least two items")
)
