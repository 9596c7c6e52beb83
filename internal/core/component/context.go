package component

import (
	"github.com/zeusync/scenekit/internal/core/assets"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
)

// EntityHandle is the view of the owning entity a component gets.
type EntityHandle interface {
	ID() uint64
	Name() string
	// Object returns ErrObjectUnavailable until the visual object was created.
	Object() (render.Object, error)
	HasObject() bool
}

// SceneHandle is the view of the owning scene a component gets.
type SceneHandle interface {
	Name() string
	Loaded() bool
	Lookup(name string) (EntityHandle, bool)
}

// Context carries every engine service a component may use. The engine builds one per
// instance at attach time; nothing is looked up globally afterwards.
type Context struct {
	Entity   EntityHandle
	Scene    SceneHandle
	Events   bus.EventBus
	Renderer render.Backend
	Assets   assets.Registry
	Logger   log.Log
}
