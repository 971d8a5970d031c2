package dispatch

import "errors"

// ErrTaskNotFound indicates the task id is unknown or has already left
// the active set.
var ErrTaskNotFound = errors.New("task not found")

// ErrTaskConflict indicates a dispatch collided with an id that is
// already active. Duplicate-id dispatch is an error, never an overwrite.
var ErrTaskConflict = errors.New("task id already active")
