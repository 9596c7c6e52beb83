// Package components holds the built-in components every scene can reference by type
// name.
package components

import (
	"github.com/zeusync/scenekit/internal/core/component"
)

const (
	TypeSpin             = "spin"
	TypeLoadingIndicator = "loading-indicator"
	TypeTracer           = "tracer"
	TypeBusRelay         = "bus-relay"
)

// Register adds the built-in component types to reg.
func Register(reg *component.Registry) error {
	builtins := []struct {
		name    string
		factory component.Factory
	}{
		{TypeSpin, func() component.Component { return &Spin{} }},
		{TypeLoadingIndicator, func() component.Component { return &LoadingIndicator{} }},
		{TypeTracer, func() component.Component { return &Tracer{} }},
		{TypeBusRelay, func() component.Component { return &BusRelay{} }},
	}
	for _, b := range builtins {
		if err := reg.Register(b.name, b.factory); err != nil {
			return err
		}
	}
	return nil
}
