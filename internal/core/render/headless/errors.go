package headless

import "errors"

var (
	ErrUnsupportedKind = errors.New("unsupported object kind")
	ErrNoCamera        = errors.New("view has no camera")
	ErrEmptyViewport   = errors.New("view has an empty viewport")
	ErrNilDependency   = errors.New("nil dependency")
)
