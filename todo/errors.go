package todo

import (
	"errors"

	"sheetctl/internal/validation"
)

var (
	// ErrInvalidStatus indicates a status value outside the known set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNotLoaded indicates the overlay has not fetched its todo yet.
	ErrNotLoaded = errors.New("todo not loaded")

	// ErrUnknownRow indicates a row ID that is not part of the overlay.
	ErrUnknownRow = errors.New("row is not part of this todo")

	// ErrPending indicates a status change for the row is already in flight.
	ErrPending = errors.New("status change already in flight for this row")
)

func formatInvalidStatusError(status Status) error {
	return validation.FormatInvalidValueError(ErrInvalidStatus, status, ValidStatuses())
}
