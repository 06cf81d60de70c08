package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrCorrupt indicates a stored value could not be decoded.
var ErrCorrupt = errors.New("repository: corrupt value")
