package service

import "errors"

var (
	// ErrNotFound is returned when an attachment does not exist
	ErrNotFound = errors.New("attachment not found")
	// ErrUploadsDisabled is returned when no storage adapter registered an upload hook
	ErrUploadsDisabled = errors.New("uploads are disabled: no storage adapter registered")
	// ErrStorageUnavailable is returned when content is requested while no
	// storage backend is configured (metadata-only mode)
	ErrStorageUnavailable = errors.New("storage backend is not configured")
)
