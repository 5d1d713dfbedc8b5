package duos

import "errors"

var (
	// ErrSamePair indicates both sides of a submission or vote are the same.
	ErrSamePair = errors.New("duo items must be distinct")
	// ErrUnknownItem indicates an id outside the catalog.
	ErrUnknownItem = errors.New("unknown item")
	// ErrItemTaken indicates an item already belongs to an active duo.
	ErrItemTaken = errors.New("item already in an active duo")
	// ErrMissingOwner indicates a submission without a wallet.
	ErrMissingOwner = errors.New("missing owner wallet")
	// ErrMissingDevice indicates a vote without a device id.
	ErrMissingDevice = errors.New("missing device id")
	// ErrNotFound indicates no duo exists under the given id.
	ErrNotFound = errors.New("duo not found")
	// ErrNotOwner indicates a delete by a wallet other than the submitter.
	ErrNotOwner = errors.New("not the duo owner")
	// ErrNotEnoughDuos indicates fewer than two duos exist.
	ErrNotEnoughDuos = errors.New("not enough duos for a matchup")
	// ErrQuotaExceeded indicates the device spent its daily votes.
	ErrQuotaExceeded = errors.New("daily duo vote quota exceeded")
)
