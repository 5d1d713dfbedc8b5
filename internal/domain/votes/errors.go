package votes

import "errors"

var (
	// ErrSamePair indicates the winner and loser ids are equal.
	ErrSamePair = errors.New("winner and loser must be distinct")
	// ErrUnknownItem indicates an id outside the catalog.
	ErrUnknownItem = errors.New("unknown item")
	// ErrRateLimited indicates the caller exhausted the vote window.
	ErrRateLimited = errors.New("rate limit exceeded")
)
