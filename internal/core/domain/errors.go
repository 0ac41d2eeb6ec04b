package domain

import "go.trai.ch/zerr"

var (
	// ErrNotFound is returned when a file requested for hashing does not exist.
	ErrNotFound = zerr.New("file not found")

	// ErrCacheUnavailable is returned when the cache root cannot be locked or opened.
	ErrCacheUnavailable = zerr.New("cache unavailable")

	// ErrMergeTimeout is returned when a parallel merge cannot acquire its
	// critical section within the configured wait bound.
	ErrMergeTimeout = zerr.New("merge timeout")

	// ErrNoOutputsConfigured is returned when the pipeline configuration declares no bundles.
	ErrNoOutputsConfigured = zerr.New("no outputs configured")

	// ErrSectionFailed is returned when a section's unit of work reports failure.
	ErrSectionFailed = zerr.New("section failed")
)
