package product

import "errors"

// ErrNotFound is returned by Get, Update and Delete alike when no row with
// the requested id exists.
var ErrNotFound = errors.New("product not found")
