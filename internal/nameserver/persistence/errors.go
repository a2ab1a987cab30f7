package persistence

import "errors"

// ErrNotFound is returned when a file or user record doesn't exist.
var ErrNotFound = errors.New("persistence: not found")

// ErrExists is returned by CreateFile when a file record already exists.
var ErrExists = errors.New("persistence: already exists")
