package scan

import "errors"

var (
	// ErrAlreadyRunning is returned when a refresh is requested while one
	// is in flight. The request is dropped, not queued; the last known
	// status is re-emitted so the caller is never left silent.
	ErrAlreadyRunning = errors.New("a refresh run is already in progress")

	// ErrNoProviders is returned when no enabled provider is
	// authenticated, so a run cannot begin.
	ErrNoProviders = errors.New("no authenticated achievement provider is enabled")
)
