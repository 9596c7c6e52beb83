// Package component defines the contract between the engine and pluggable behavior
// units attached to scene entities.
//
// A component is any value with an Attach method, usually obtained by embedding Base.
// Every lifecycle and frame callback is optional: the engine checks for the matching
// capability interface below and skips the call when it is absent. Callbacks run on the
// frame thread one at a time, so component code never needs locking.
package component

import (
	"github.com/zeusync/scenekit/internal/core/render"
)

// Component is the minimal surface the engine requires.
type Component interface {
	// Attach hands the engine services to the component. It runs once, right after
	// construction and before PreInit.
	Attach(ctx Context)
}

// Factory builds a fresh component for each attachment.
type Factory func() Component

// PreIniter runs immediately after construction. Attributes are not bound yet.
type PreIniter interface {
	PreInit() error
}

// Initializer runs once the entity load was requested and every sibling entity exists.
// Attributes are bound; the visual object is not guaranteed.
type Initializer interface {
	Init() error
}

// Shutdowner runs exactly once when the entity unloads or the component is detached.
// Subscriptions and timers created by the component must be released here.
type Shutdowner interface {
	Shutdown() error
}

type PreUpdater interface {
	PreUpdate(delta float64) error
}

type Updater interface {
	Update(delta float64) error
}

type PostUpdater interface {
	PostUpdate(delta float64) error
}

type PreRenderer interface {
	PreRender(delta float64) error
}

type Renderer interface {
	Render(delta float64) error
}

type PostRenderer interface {
	PostRender(delta float64) error
}

// ViewPreRenderer runs before each camera view is drawn, possibly several times a frame.
type ViewPreRenderer interface {
	PreRenderView(scene SceneHandle, camera *render.Camera, options render.ViewOptions) error
}

// ViewPostRenderer runs after each camera view is drawn.
type ViewPostRenderer interface {
	PostRenderView(scene SceneHandle, camera *render.Camera, options render.ViewOptions) error
}

// Suspender runs when the application loses focus.
type Suspender interface {
	Suspend() error
}

// Resumer runs when the application regains focus.
type Resumer interface {
	Resume() error
}

// ObjectCreatedListener runs once the entity's visual object exists. Children and
// dependencies may still be loading.
type ObjectCreatedListener interface {
	ObjectCreated() error
}

// ObjectLoadedListener runs once the visual object and its dependency subtree resolved.
type ObjectLoadedListener interface {
	ObjectLoaded() error
}

// SceneLoadedListener runs once per scene, when its initial entities finished loading.
type SceneLoadedListener interface {
	SceneLoaded() error
}

// AttributeDeclarer lists the attribute keys a component recognizes. Keys outside the
// list are dropped at bind time. Components without it accept every key.
type AttributeDeclarer interface {
	AttributeKeys() []string
}

// Defaulter supplies attribute values used when the descriptor omits them.
type Defaulter interface {
	Defaults() map[string]any
}
