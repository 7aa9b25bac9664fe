package domain

import "errors"

var (
	// ErrNoCodeColumn means no code column could be resolved from the input
	// header at all. The import fails as a whole; no partial table is kept.
	ErrNoCodeColumn = errors.New("no product code column could be resolved")

	// ErrEmptyTable means the input had no data rows to import.
	ErrEmptyTable = errors.New("input table has no data rows")

	// ErrStoreUnavailable marks persistence failures. The core never
	// retries; retry policy belongs to the store implementation.
	ErrStoreUnavailable = errors.New("persistence store unavailable")

	// ErrWindowMissing means a recommendation run referenced a window tag
	// for which no movements have been imported.
	ErrWindowMissing = errors.New("no movements imported for window")
)
