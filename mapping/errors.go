package mapping

import "errors"

// Loader errors.
var (
	// ErrNoMappings is returned when a document has no top-level mappings collection.
	ErrNoMappings = errors.New("no 'mappings' dict found in mapping document")
)
