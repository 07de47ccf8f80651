package docstore

import "errors"

// Sentinel errors for consistent error handling.
var (
	// ErrDuplicateKey is returned by imports when an id already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConcurrentModification is returned by updates when another writer
	// committed between the version read and the write. The caller decides
	// whether to retry; the store never retries on its own.
	ErrConcurrentModification = errors.New("concurrent modification")
)
