package docstore

import "errors"

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMissingID is returned when a document without an id is written.
	ErrMissingID = errors.New("document has no id")

	// ErrUnsupportedStage is returned for pipeline stages a backend cannot run.
	ErrUnsupportedStage = errors.New("unsupported pipeline stage")
)
