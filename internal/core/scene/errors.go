package scene

import "errors"

var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrComponentNotFound = errors.New("component not found on entity")
	ErrAlreadyOpen       = errors.New("scene already open")
	ErrSceneClosed       = errors.New("scene is closed")
	ErrInvalidDescriptor = errors.New("invalid scene descriptor")
)
