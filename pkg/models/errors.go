package models

import "errors"

var (
	// ErrDeviceNotFound is returned when a device registry lookup misses.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDuplicateArchive is returned when an archive index row already
	// exists for the generated filename.
	ErrDuplicateArchive = errors.New("archive record already exists")
)
