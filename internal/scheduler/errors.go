package scheduler

import "errors"

// ErrOutOfRange is returned when a topic or repetition index does not exist
var ErrOutOfRange = errors.New("index out of range")
