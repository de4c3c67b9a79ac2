package sqlite

import "errors"

// Sandbox lifecycle errors.
var (
	ErrDetached        = errors.New("sandbox is detached")
	ErrAlreadyAttached = errors.New("sandbox is already attached")
)
