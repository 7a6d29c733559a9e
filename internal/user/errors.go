package user

import "errors"

var (
	// ErrNotFound is returned by Get, Update and Delete alike when no row
	// with the requested id exists.
	ErrNotFound = errors.New("user not found")

	// ErrEmailExists is returned when an insert or update would violate the
	// per-store unique email constraint.
	ErrEmailExists = errors.New("email already exists")
)
