package component

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectUnavailable is returned when a component asks for the visual object
	// before its entity produced one.
	ErrObjectUnavailable = errors.New("visual object not available")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrShutdown          = errors.New("component is shut down")
	ErrCallbackPanic     = errors.New("callback panicked")

	ErrUnknownType   = errors.New("unknown component type")
	ErrDuplicateType = errors.New("component type already registered")
	ErrEmptyTypeName = errors.New("component type name is empty")
	ErrNilFactory    = errors.New("component factory is nil")
)

// CallbackError reports a failed callback of one instance. The engine logs it and
// moves on.
type CallbackError struct {
	Instance string
	Type     string
	Entity   string
	Callback string
	Err      error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("component %s (%s) on entity %q: %s: %v", e.Type, e.Instance, e.Entity, e.Callback, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}
