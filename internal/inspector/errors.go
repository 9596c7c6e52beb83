package inspector

import "errors"

var (
	ErrAlreadyStarted = errors.New("inspector already started")
	ErrClosed         = errors.New("inspector closed")
)
