// Package scene owns entities, their component instances and the load handshake
// with the loader.
package scene

import (
	"fmt"
	"sync/atomic"

	"github.com/zeusync/scenekit/internal/core/assets"
	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/loader"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
)

// Dependencies are the services a scene hands to its components and uses for loading.
type Dependencies struct {
	Events     bus.EventBus
	Renderer   render.Backend
	Assets     assets.Registry
	Loader     loader.Loader
	Components *component.Registry
	Logger     log.Log
}

// Scene owns entities in spawn order and the view set. All methods must be called
// from the frame goroutine.
type Scene struct {
	name   string
	deps   Dependencies
	logger log.Log

	entities []*Entity
	byID     map[uint64]*Entity
	views    []render.View
	nextID   uint64

	opened    bool
	loaded    bool
	closed    bool
	suspended bool
	// initial entities that still hold back scene-loaded
	gate map[uint64]struct{}

	failures atomic.Uint64
}

var _ component.SceneHandle = (*Scene)(nil)

func New(name string, deps Dependencies) *Scene {
	logger := deps.Logger
	if logger == nil {
		logger = log.Nop()
	}
	if deps.Components == nil {
		deps.Components = component.NewRegistry()
	}
	return &Scene{
		name:   name,
		deps:   deps,
		logger: logger.With(log.String("scene", name)),
		byID:   make(map[uint64]*Entity),
		gate:   make(map[uint64]struct{}),
	}
}

// Build creates an unopened scene from a descriptor. Components are constructed and
// pre-initialized; Open starts loading.
func Build(desc *Descriptor, deps Dependencies) (*Scene, error) {
	if err := desc.Validate(deps.Components); err != nil {
		return nil, err
	}
	s := New(desc.Name, deps)
	for _, v := range desc.Views {
		s.AddView(v.View())
	}
	for _, ed := range desc.Entities {
		if _, err := s.Spawn(ed); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Scene) Name() string { return s.name }

// Loaded reports whether scene-loaded has fired.
func (s *Scene) Loaded() bool { return s.loaded }

func (s *Scene) Opened() bool { return s.opened }

func (s *Scene) Suspended() bool { return s.suspended }

// Failures counts component callback failures since creation.
func (s *Scene) Failures() uint64 { return s.failures.Load() }

func (s *Scene) Lookup(name string) (component.EntityHandle, bool) {
	e, ok := s.Find(name)
	if !ok {
		return nil, false
	}
	return e, true
}

// Find returns the first entity with the given name.
func (s *Scene) Find(name string) (*Entity, bool) {
	for _, e := range s.entities {
		if e.name == name {
			return e, true
		}
	}
	return nil, false
}

func (s *Scene) Entity(id uint64) (*Entity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

func (s *Scene) Entities() []*Entity {
	out := make([]*Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

func (s *Scene) AddView(v render.View) {
	s.views = append(s.views, v)
}

func (s *Scene) Views() []render.View {
	out := make([]render.View, len(s.views))
	copy(out, s.views)
	return out
}

// Open requests loads for every entity and initializes their components. Entities
// present now gate scene-loaded.
func (s *Scene) Open() error {
	if s.closed {
		return ErrSceneClosed
	}
	if s.opened {
		return ErrAlreadyOpen
	}
	s.opened = true
	for _, e := range s.entities {
		s.gate[e.id] = struct{}{}
	}
	s.logger.Info("scene opened", log.Int("entities", len(s.entities)))
	for _, e := range s.Entities() {
		if !e.unloaded {
			s.start(e)
		}
	}
	s.checkLoaded()
	return nil
}

// Spawn creates an entity and its components. In an open scene the entity starts
// loading immediately; it never affects scene-loaded.
func (s *Scene) Spawn(desc EntityDescriptor) (*Entity, error) {
	if s.closed {
		return nil, ErrSceneClosed
	}
	comps := make([]component.Component, 0, len(desc.Components))
	for _, cd := range desc.Components {
		c, err := s.deps.Components.New(cd.Type)
		if err != nil {
			return nil, fmt.Errorf("spawn %q: %w", desc.Name, err)
		}
		comps = append(comps, c)
	}

	s.nextID++
	e := &Entity{
		id:    s.nextID,
		name:  desc.Name,
		scene: s,
		desc:  desc.Object,
		attrs: make(map[*component.Instance]map[string]any, len(comps)),
	}
	if e.name == "" {
		e.name = fmt.Sprintf("entity-%d", e.id)
	}
	s.entities = append(s.entities, e)
	s.byID[e.id] = e

	for i, c := range comps {
		inst := s.newInstance(e, desc.Components[i].Type, c)
		e.instances = append(e.instances, inst)
		e.attrs[inst] = desc.Components[i].Attributes
	}
	for _, inst := range e.Components() {
		_ = inst.PreInit()
	}
	s.publish(bus.EventEntitySpawned, e.id)

	if s.opened && !e.unloaded {
		s.start(e)
	}
	return e, nil
}

// Attach adds a component to an existing entity. In an open scene the instance is
// initialized and caught up with the entity's load state.
func (s *Scene) Attach(entityID uint64, desc ComponentDescriptor) (*component.Instance, error) {
	e, ok := s.byID[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	}
	c, err := s.deps.Components.New(desc.Type)
	if err != nil {
		return nil, err
	}
	return s.attach(e, desc.Type, c, desc.Attributes), nil
}

// AttachComponent attaches an already constructed component under typeName.
func (s *Scene) AttachComponent(entityID uint64, typeName string, c component.Component, attrs map[string]any) (*component.Instance, error) {
	e, ok := s.byID[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	}
	return s.attach(e, typeName, c, attrs), nil
}

func (s *Scene) attach(e *Entity, typeName string, c component.Component, attrs map[string]any) *component.Instance {
	inst := s.newInstance(e, typeName, c)
	e.instances = append(e.instances, inst)
	_ = inst.PreInit()
	s.publish(bus.EventComponentAttached, inst.ID())
	if e.started && !inst.IsShutdown() {
		_ = inst.Init(attrs)
		e.catchUp(inst)
	} else {
		e.attrs[inst] = attrs
	}
	return inst
}

// Detach shuts the instance down and removes it from its entity.
func (s *Scene) Detach(entityID uint64, instanceID string) error {
	e, ok := s.byID[entityID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	}
	inst, ok := e.Component(instanceID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrComponentNotFound, instanceID)
	}
	e.remove(inst)
	inst.Shutdown()
	s.publish(bus.EventComponentDetached, instanceID)
	return nil
}

// Unload cancels any outstanding load and shuts the entity's components down in
// attachment order.
func (s *Scene) Unload(entityID uint64) error {
	e, ok := s.byID[entityID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	}
	s.unload(e)
	s.checkLoaded()
	return nil
}

func (s *Scene) unload(e *Entity) {
	if e.unloaded {
		return
	}
	e.unloaded = true
	if e.handle != nil {
		e.handle.Cancel()
	}
	for _, inst := range e.Components() {
		inst.Shutdown()
	}
	for i, cur := range s.entities {
		if cur == e {
			s.entities = append(s.entities[:i:i], s.entities[i+1:]...)
			break
		}
	}
	delete(s.byID, e.id)
	delete(s.gate, e.id)
	s.logger.Debug("entity unloaded", log.Uint64("entity", e.id), log.String("name", e.name))
	s.publish(bus.EventEntityUnloaded, e.id)
}

// start requests the entity's load, then initializes its components.
func (s *Scene) start(e *Entity) {
	if e.started {
		return
	}
	e.started = true
	if e.desc != nil && s.deps.Loader != nil {
		e.state = LoadStateRequested
		e.handle = s.deps.Loader.RequestLoad(e.id, *e.desc)
	} else {
		if e.desc != nil {
			s.logger.Warn("no loader configured, entity treated as empty", log.String("entity", e.name))
		}
		e.state = LoadStateEmpty
	}
	for _, inst := range e.Components() {
		if inst.IsShutdown() {
			continue
		}
		attrs := e.attrs[inst]
		delete(e.attrs, inst)
		_ = inst.Init(attrs)
		if e.state == LoadStateEmpty {
			_ = inst.Activate()
		}
	}
	if e.state == LoadStateEmpty {
		s.resolve(e)
	}
}

// Apply delivers drained loader completions. Completions of cancelled, superseded or
// unloaded requests are dropped.
func (s *Scene) Apply(completions []loader.Completion) {
	for _, c := range completions {
		e, ok := s.byID[c.Key]
		if !ok || e.unloaded || e.handle == nil || e.handle.ID() != c.Request || e.handle.Cancelled() {
			s.logger.Debug("stale completion dropped",
				log.Uint64("entity", c.Key),
				log.Uint64("request", c.Request),
				log.String("kind", c.Kind.String()))
			continue
		}
		switch c.Kind {
		case loader.ObjectCreated:
			if e.state != LoadStateRequested {
				continue
			}
			e.object = c.Object
			e.state = LoadStateObjectCreated
			for _, inst := range e.Components() {
				_ = inst.ObjectCreated()
			}
			s.publish(bus.EventObjectCreated, e.id)
		case loader.ObjectLoaded:
			if e.state != LoadStateObjectCreated {
				continue
			}
			e.state = LoadStateObjectLoaded
			for _, inst := range e.Components() {
				if inst.ObjectLoaded() == nil {
					_ = inst.Activate()
				}
			}
			s.publish(bus.EventObjectLoaded, e.id)
			s.resolve(e)
		case loader.LoadFailed:
			if e.state.Resolved() {
				continue
			}
			e.state = LoadStateFailed
			e.loadErr = c.Err
			s.logger.Warn("entity load failed",
				log.Uint64("entity", e.id),
				log.String("name", e.name),
				log.Error(c.Err))
			s.publish(bus.EventEntityLoadFailed, e.id)
			s.resolve(e)
		}
	}
	s.checkLoaded()
}

func (s *Scene) resolve(e *Entity) {
	delete(s.gate, e.id)
}

func (s *Scene) checkLoaded() {
	if !s.opened || s.loaded || s.closed || len(s.gate) > 0 {
		return
	}
	s.loaded = true
	s.logger.Info("scene loaded")
	for _, e := range s.Entities() {
		for _, inst := range e.Components() {
			if !inst.IsShutdown() {
				inst.SceneLoaded()
			}
		}
	}
	s.publish(bus.EventSceneLoaded, s.name)
}

// Suspend delivers Suspend to every instance once per boundary. It reports whether
// the scene changed state.
func (s *Scene) Suspend() bool {
	if s.suspended {
		return false
	}
	s.suspended = true
	for _, inst := range s.instances() {
		inst.Suspend()
	}
	return true
}

func (s *Scene) Resume() bool {
	if !s.suspended {
		return false
	}
	s.suspended = false
	for _, inst := range s.instances() {
		inst.Resume()
	}
	return true
}

// Ticking snapshots the instances that receive per-frame callbacks, in entity order
// then attachment order.
func (s *Scene) Ticking() []*component.Instance {
	var out []*component.Instance
	for _, e := range s.entities {
		for _, inst := range e.instances {
			if inst.Ticking() {
				out = append(out, inst)
			}
		}
	}
	return out
}

func (s *Scene) instances() []*component.Instance {
	var out []*component.Instance
	for _, e := range s.entities {
		out = append(out, e.instances...)
	}
	return out
}

// Close unloads every entity. The scene cannot be reopened.
func (s *Scene) Close() {
	if s.closed {
		return
	}
	for _, e := range s.Entities() {
		s.unload(e)
	}
	s.closed = true
	s.logger.Info("scene closed", log.Uint64("failures", s.failures.Load()))
}

func (s *Scene) newInstance(e *Entity, typeName string, c component.Component) *component.Instance {
	ctx := component.Context{
		Entity:   e,
		Scene:    s,
		Events:   s.deps.Events,
		Renderer: s.deps.Renderer,
		Assets:   s.deps.Assets,
		Logger:   s.logger,
	}
	inst := component.NewInstance(typeName, c, ctx, s.onFailure)
	if s.suspended {
		inst.Suspend()
	}
	return inst
}

func (s *Scene) onFailure(err *component.CallbackError) {
	s.failures.Add(1)
	s.logger.Error("component callback failed",
		log.String("component_type", err.Type),
		log.String("instance", err.Instance),
		log.String("entity", err.Entity),
		log.String("callback", err.Callback),
		log.Error(err.Err))
	s.publish(bus.EventComponentFailed, err)
}

func (s *Scene) publish(eventType string, data any) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(bus.NewEvent(eventType, "scene:"+s.name, data, nil)); err != nil {
		s.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}
