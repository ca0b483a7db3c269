package domain

import (
	"errors"
	"strconv"
)

var (
	// ErrNotFound is returned when a catalog entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIncompleteOrientation is returned for orientation readings with a missing axis.
	ErrIncompleteOrientation = errors.New("orientation reading is missing an axis")

	// ErrNoTarget is returned when a session has nothing to navigate to.
	ErrNoTarget = errors.New("no navigation target")

	// ErrConflict is returned when a resource with the same key is already active.
	ErrConflict = errors.New("conflict")

	// ErrInvalidLocation is returned for coordinates outside the WGS 84 domain.
	ErrInvalidLocation = errors.New("location out of range")
)

func itoa(i int) string { return strconv.Itoa(i) }
