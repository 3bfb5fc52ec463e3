package storage

import "errors"

// ErrConflict is returned by Create when the id is already taken in the
// partition.
var ErrConflict = errors.New("product already exists")
