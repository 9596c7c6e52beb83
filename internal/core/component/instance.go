package component

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
)

// FailureHandler receives every callback failure of an instance.
type FailureHandler func(*CallbackError)

// Instance drives one component through its lifecycle. It is owned by an entity and
// only touched from the frame thread.
type Instance struct {
	id        string
	typeName  string
	entity    string
	comp      Component
	logger    log.Log
	onFailure FailureHandler

	stage     State
	suspended bool
	attrs     map[string]any
}

// NewInstance attaches ctx to c and returns the instance in StateCreated. A nil
// onFailure only logs.
func NewInstance(typeName string, c Component, ctx Context, onFailure FailureHandler) *Instance {
	id := uuid.NewString()
	entityName := ""
	if ctx.Entity != nil {
		entityName = ctx.Entity.Name()
	}
	logger := ctx.Logger
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.With(
		log.String("component_type", typeName),
		log.String("instance", id),
		log.String("entity", entityName))
	ctx.Logger = logger

	i := &Instance{
		id:        id,
		typeName:  typeName,
		entity:    entityName,
		comp:      c,
		logger:    logger,
		onFailure: onFailure,
		stage:     StateCreated,
	}
	c.Attach(ctx)
	return i
}

func (i *Instance) ID() string           { return i.id }
func (i *Instance) Type() string         { return i.typeName }
func (i *Instance) Component() Component { return i.comp }

// State reports Shutdown, then Suspended while suspended, else the furthest stage.
func (i *Instance) State() State {
	switch {
	case i.stage == StateShutdown:
		return StateShutdown
	case i.suspended:
		return StateSuspended
	default:
		return i.stage
	}
}

// Stage is the furthest lifecycle stage reached, ignoring suspension.
func (i *Instance) Stage() State { return i.stage }

func (i *Instance) Initialized() bool {
	return i.stage >= StateInit && i.stage != StateShutdown
}

// Ticking reports whether per-frame callbacks are delivered.
func (i *Instance) Ticking() bool {
	return i.Initialized() && !i.suspended
}

func (i *Instance) IsShutdown() bool { return i.stage == StateShutdown }

func (i *Instance) Suspended() bool { return i.suspended && i.stage != StateShutdown }

// Attributes returns the attributes bound at Init.
func (i *Instance) Attributes() map[string]any { return i.attrs }

func (i *Instance) advance(to State) error {
	if i.stage == StateShutdown {
		return ErrShutdown
	}
	if !canAdvance(i.stage, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.stage, to)
	}
	i.logger.Debug("lifecycle transition",
		log.String("from", i.stage.String()),
		log.String("to", to.String()))
	i.stage = to
	return nil
}

// PreInit moves Created -> PreInit.
func (i *Instance) PreInit() error {
	if err := i.advance(StatePreInit); err != nil {
		return err
	}
	if c, ok := i.comp.(PreIniter); ok {
		i.invoke("pre_init", c.PreInit)
	}
	return nil
}

// Init binds attrs and moves PreInit -> Init. If the application was suspended before
// Init, Suspend is delivered right after.
func (i *Instance) Init(attrs map[string]any) error {
	if err := i.advance(StateInit); err != nil {
		return err
	}
	i.bind(attrs)
	if c, ok := i.comp.(Initializer); ok {
		i.invoke("init", c.Init)
	}
	if i.suspended {
		if c, ok := i.comp.(Suspender); ok {
			i.invoke("suspend", c.Suspend)
		}
	}
	return nil
}

func (i *Instance) bind(supplied map[string]any) {
	merged, dropped := mergeAttributes(i.comp, supplied)
	if len(dropped) > 0 {
		i.logger.Warn("unknown attributes dropped", log.Strings("keys", dropped))
	}
	i.attrs = merged
	if sink, ok := i.comp.(attributeSink); ok {
		sink.bindAttributes(merged)
	}
	if err := decodeAttributes(i.comp, merged); err != nil {
		i.fail("attributes", err)
	}
}

func (i *Instance) ObjectCreated() error {
	if err := i.advance(StateObjectCreated); err != nil {
		return err
	}
	if c, ok := i.comp.(ObjectCreatedListener); ok {
		i.invoke("object_created", c.ObjectCreated)
	}
	return nil
}

func (i *Instance) ObjectLoaded() error {
	if err := i.advance(StateObjectLoaded); err != nil {
		return err
	}
	if c, ok := i.comp.(ObjectLoadedListener); ok {
		i.invoke("object_loaded", c.ObjectLoaded)
	}
	return nil
}

// Activate marks the end of loading: from ObjectLoaded, or straight from Init for an
// entity that never produces a visual object.
func (i *Instance) Activate() error {
	return i.advance(StateActive)
}

// SceneLoaded is delivered once per scene to initialized instances.
func (i *Instance) SceneLoaded() {
	if !i.Initialized() {
		return
	}
	if c, ok := i.comp.(SceneLoadedListener); ok {
		i.invoke("scene_loaded", c.SceneLoaded)
	}
}

// Suspend reports whether the call changed anything. Repeated calls are no-ops.
func (i *Instance) Suspend() bool {
	if i.stage == StateShutdown || i.suspended {
		return false
	}
	i.suspended = true
	if i.Initialized() {
		if c, ok := i.comp.(Suspender); ok {
			i.invoke("suspend", c.Suspend)
		}
	}
	return true
}

// Resume reports whether the call changed anything. Resuming a running instance is a
// no-op.
func (i *Instance) Resume() bool {
	if i.stage == StateShutdown || !i.suspended {
		return false
	}
	i.suspended = false
	if i.Initialized() {
		if c, ok := i.comp.(Resumer); ok {
			i.invoke("resume", c.Resume)
		}
	}
	return true
}

// Shutdown is terminal and runs at most once. It reports whether this call shut the
// instance down.
func (i *Instance) Shutdown() bool {
	if i.stage == StateShutdown {
		return false
	}
	i.logger.Debug("lifecycle transition",
		log.String("from", i.stage.String()),
		log.String("to", StateShutdown.String()))
	i.stage = StateShutdown
	if c, ok := i.comp.(Shutdowner); ok {
		i.invoke("shutdown", c.Shutdown)
	}
	return true
}

func (i *Instance) PreUpdate(delta float64) {
	if c, ok := i.comp.(PreUpdater); ok && i.Ticking() {
		i.invoke("pre_update", func() error { return c.PreUpdate(delta) })
	}
}

func (i *Instance) Update(delta float64) {
	if c, ok := i.comp.(Updater); ok && i.Ticking() {
		i.invoke("update", func() error { return c.Update(delta) })
	}
}

func (i *Instance) PostUpdate(delta float64) {
	if c, ok := i.comp.(PostUpdater); ok && i.Ticking() {
		i.invoke("post_update", func() error { return c.PostUpdate(delta) })
	}
}

func (i *Instance) PreRender(delta float64) {
	if c, ok := i.comp.(PreRenderer); ok && i.Ticking() {
		i.invoke("pre_render", func() error { return c.PreRender(delta) })
	}
}

func (i *Instance) Render(delta float64) {
	if c, ok := i.comp.(Renderer); ok && i.Ticking() {
		i.invoke("render", func() error { return c.Render(delta) })
	}
}

func (i *Instance) PostRender(delta float64) {
	if c, ok := i.comp.(PostRenderer); ok && i.Ticking() {
		i.invoke("post_render", func() error { return c.PostRender(delta) })
	}
}

func (i *Instance) PreRenderView(scene SceneHandle, camera *render.Camera, options render.ViewOptions) {
	if c, ok := i.comp.(ViewPreRenderer); ok && i.Ticking() {
		i.invoke("pre_render_view", func() error { return c.PreRenderView(scene, camera, options) })
	}
}

func (i *Instance) PostRenderView(scene SceneHandle, camera *render.Camera, options render.ViewOptions) {
	if c, ok := i.comp.(ViewPostRenderer); ok && i.Ticking() {
		i.invoke("post_render_view", func() error { return c.PostRenderView(scene, camera, options) })
	}
}

// invoke runs one callback and contains whatever it returns or panics with.
func (i *Instance) invoke(callback string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			i.fail(callback, fmt.Errorf("%w: %v", ErrCallbackPanic, r))
		}
	}()
	if err := fn(); err != nil {
		i.fail(callback, err)
	}
}

func (i *Instance) fail(callback string, err error) {
	cbErr := &CallbackError{
		Instance: i.id,
		Type:     i.typeName,
		Entity:   i.entity,
		Callback: callback,
		Err:      err,
	}
	if i.onFailure != nil {
		i.onFailure(cbErr)
		return
	}
	i.logger.Error("component callback failed",
		log.String("callback", callback),
		log.Error(err))
}
